package notes

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNote() DebitNote {
	return DebitNote{
		ID:         "n-1",
		Contractor: "Shree Builders",
		Date:       time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC),
		Site:       "Tower B",
		Category:   CategorySafety,
		Amount:     decimal.RequireFromString("250.50"),
		Reason:     "No harness on scaffold",
	}
}

func TestDebitNoteValidate(t *testing.T) {
	require.NoError(t, sampleNote().Validate())

	cases := []struct {
		mutate func(*DebitNote)
		want   error
	}{
		{func(n *DebitNote) { n.ID = "" }, ErrEmptyID},
		{func(n *DebitNote) { n.Contractor = " " }, ErrEmptyContractor},
		{func(n *DebitNote) { n.Date = time.Time{} }, ErrInvalidDate},
		{func(n *DebitNote) { n.Site = "" }, ErrEmptySite},
		{func(n *DebitNote) { n.Category = "" }, ErrUnknownCategory},
		{func(n *DebitNote) { n.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
	}
	for _, tc := range cases {
		n := sampleNote()
		tc.mutate(&n)
		assert.ErrorIs(t, n.Validate(), tc.want)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Safety ", DefaultCategories)
	require.NoError(t, err)
	assert.Equal(t, CategorySafety, c)

	_, err = ParseCategory("bonus", DefaultCategories)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestNoteFilterMatch(t *testing.T) {
	n := sampleNote()

	assert.True(t, NoteFilter{}.Match(n))
	assert.True(t, NoteFilter{Contractor: "shree builders"}.Match(n))
	assert.False(t, NoteFilter{Contractor: "Other Co"}.Match(n))

	day := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, NoteFilter{From: day, To: day}.Match(n), "inclusive single day")
	assert.False(t, NoteFilter{From: day.AddDate(0, 0, 1)}.Match(n))
	assert.False(t, NoteFilter{To: day.AddDate(0, 0, -1)}.Match(n))

	assert.True(t, NoteFilter{Category: CategorySafety}.Match(n))
	assert.False(t, NoteFilter{Category: CategoryDelay}.Match(n))

	assert.True(t, NoteFilter{Query: "HARNESS"}.Match(n))
	assert.True(t, NoteFilter{Query: "tower"}.Match(n))
	assert.False(t, NoteFilter{Query: "crack"}.Match(n))
}

func TestSortNotesAndLimit(t *testing.T) {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	items := []DebitNote{
		{ID: "c", Date: base.AddDate(0, 0, 2)},
		{ID: "b", Date: base, CreatedAt: base.Add(time.Hour)},
		{ID: "a", Date: base, CreatedAt: base},
	}
	SortNotes(items)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, "c", items[2].ID)

	assert.Len(t, NoteFilter{Limit: 2}.ApplyLimit(items), 2)
	assert.Len(t, NoteFilter{}.ApplyLimit(items), 3)
}

func TestContractor(t *testing.T) {
	assert.ErrorIs(t, Contractor{Name: "x"}.Validate(), ErrEmptyID)
	assert.ErrorIs(t, Contractor{ID: "1", Name: "  "}.Validate(), ErrEmptyName)
	assert.True(t, SameName("Shree  Builders", "shree builders"))
	assert.False(t, SameName("Shree", "Shree Builders"))
}
