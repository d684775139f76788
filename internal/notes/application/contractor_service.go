package application

import (
	"context"
	"errors"
	"strings"

	notes "debitnote-cloud/internal/notes/domain"
)

// ContractorService manages the contractor list.
type ContractorService struct {
	repo  notes.ContractorRepository
	clock Clock
}

// NewContractorService constructs the service.
func NewContractorService(repo notes.ContractorRepository, clock Clock) (*ContractorService, error) {
	if repo == nil {
		return nil, errors.New("contractor service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ContractorService{repo: repo, clock: clock}, nil
}

// Add registers a contractor name.
func (s *ContractorService) Add(ctx context.Context, name string) (*notes.Contractor, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, notes.ErrEmptyName
	}
	contractor := &notes.Contractor{ID: newID(), Name: name, CreatedAt: s.clock.Now().UTC()}
	if err := s.repo.Add(ctx, contractor); err != nil {
		return nil, err
	}
	return contractor, nil
}

// List returns all contractors.
func (s *ContractorService) List(ctx context.Context) ([]notes.Contractor, error) {
	return s.repo.List(ctx)
}
