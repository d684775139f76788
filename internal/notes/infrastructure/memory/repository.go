package memory

import (
	"context"
	"sync"
	"time"

	notes "debitnote-cloud/internal/notes/domain"
)

// NoteRepository is an in-memory note store for tests and local runs.
type NoteRepository struct {
	mu   sync.RWMutex
	data []notes.DebitNote
}

// NewNoteRepository constructs a repository.
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{}
}

// Insert stores a copy of note.
func (r *NoteRepository) Insert(_ context.Context, note *notes.DebitNote) error {
	if note == nil {
		return notes.ErrNilNote
	}
	if err := note.Validate(); err != nil {
		return err
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	copy := cloneNote(*note)
	r.mu.Lock()
	r.data = append(r.data, copy)
	r.mu.Unlock()
	return nil
}

// Query returns matching notes ordered by date.
func (r *NoteRepository) Query(_ context.Context, filter notes.NoteFilter) ([]notes.DebitNote, error) {
	r.mu.RLock()
	var result []notes.DebitNote
	for _, n := range r.data {
		if filter.Match(n) {
			result = append(result, cloneNote(n))
		}
	}
	r.mu.RUnlock()
	notes.SortNotes(result)
	return filter.ApplyLimit(result), nil
}

func cloneNote(n notes.DebitNote) notes.DebitNote {
	n.ImageLinks = append([]string(nil), n.ImageLinks...)
	return n
}

// ContractorRepository is an in-memory contractor store.
type ContractorRepository struct {
	mu   sync.RWMutex
	data []notes.Contractor
}

// NewContractorRepository constructs a repository.
func NewContractorRepository() *ContractorRepository {
	return &ContractorRepository{}
}

// Add registers a contractor unless the name is taken.
func (r *ContractorRepository) Add(_ context.Context, contractor *notes.Contractor) error {
	if contractor == nil {
		return notes.ErrEmptyName
	}
	if err := contractor.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.data {
		if notes.SameName(c.Name, contractor.Name) {
			return notes.ErrDuplicateContractor
		}
	}
	if contractor.CreatedAt.IsZero() {
		contractor.CreatedAt = time.Now().UTC()
	}
	r.data = append(r.data, *contractor)
	return nil
}

// List returns contractors in registration order.
func (r *ContractorRepository) List(_ context.Context) ([]notes.Contractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]notes.Contractor(nil), r.data...), nil
}
