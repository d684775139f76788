package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notes "debitnote-cloud/internal/notes/domain"
)

func TestNoteRepository_InsertQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	later := &notes.DebitNote{ID: "2", Contractor: "Acme", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Site: "A", Category: notes.CategoryDelay, Amount: decimal.NewFromInt(10), ImageLinks: []string{"x"}}
	earlier := &notes.DebitNote{ID: "1", Contractor: "Acme", Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Site: "A", Category: notes.CategoryQuality, Amount: decimal.NewFromInt(5)}
	other := &notes.DebitNote{ID: "3", Contractor: "Beta", Date: time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), Site: "B", Category: notes.CategoryQuality, Amount: decimal.NewFromInt(7)}
	for _, n := range []*notes.DebitNote{later, earlier, other} {
		require.NoError(t, repo.Insert(ctx, n))
		assert.False(t, n.CreatedAt.IsZero())
	}

	got, err := repo.Query(ctx, notes.NoteFilter{Contractor: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	// Returned slices are copies.
	got[1].ImageLinks[0] = "mutated"
	again, err := repo.Query(ctx, notes.NoteFilter{Category: notes.CategoryDelay})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "x", again[0].ImageLinks[0])
}

func TestNoteRepository_RejectsInvalid(t *testing.T) {
	repo := NewNoteRepository()
	assert.ErrorIs(t, repo.Insert(context.Background(), nil), notes.ErrNilNote)
	assert.ErrorIs(t, repo.Insert(context.Background(), &notes.DebitNote{ID: "1"}), notes.ErrEmptyContractor)
}

func TestContractorRepository_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewContractorRepository()
	require.NoError(t, repo.Add(ctx, &notes.Contractor{ID: "1", Name: "Shree Builders"}))
	assert.ErrorIs(t, repo.Add(ctx, &notes.Contractor{ID: "2", Name: "shree  builders"}), notes.ErrDuplicateContractor)
	require.NoError(t, repo.Add(ctx, &notes.Contractor{ID: "3", Name: "Acme"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Shree Builders", list[0].Name)
}
