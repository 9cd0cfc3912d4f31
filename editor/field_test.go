// ABOUTME: Tests for the generic multi-value field
// ABOUTME: Checks the single-primary invariant, stale-index tolerance and annotations
package editor

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaryCount[T any](f *Field[T]) int {
	n := 0
	for _, e := range f.Entries() {
		if e.IsPrimary {
			n++
		}
	}
	return n
}

func TestFieldAddFirstIsPrimary(t *testing.T) {
	f := NewField[Email]()
	assert.Equal(t, 0, f.Len())

	id := f.Add()
	require.Equal(t, 1, f.Len())
	e, ok := f.At(0)
	require.True(t, ok)
	assert.Equal(t, id, e.ID)
	assert.True(t, e.IsPrimary)

	f.AddValue(Email{Address: "b@example.com"})
	e, _ = f.At(1)
	assert.False(t, e.IsPrimary)
	assert.Equal(t, 1, primaryCount(f))
}

func TestNewFieldNormalizesPrimary(t *testing.T) {
	none := NewField(Entry[Email]{Value: Email{"a@x.com"}}, Entry[Email]{Value: Email{"b@x.com"}})
	first, _ := none.At(0)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, 1, primaryCount(none))

	many := NewField(
		Entry[Email]{Value: Email{"a@x.com"}},
		Entry[Email]{Value: Email{"b@x.com"}, IsPrimary: true},
		Entry[Email]{Value: Email{"c@x.com"}, IsPrimary: true},
	)
	p, ok := many.Primary()
	require.True(t, ok)
	assert.Equal(t, "b@x.com", p.Value.Address)
	assert.Equal(t, 1, primaryCount(many))

	for _, e := range many.Entries() {
		assert.NotEqual(t, uuid.Nil, e.ID)
	}
}

func TestFieldRemoveLastIsNoop(t *testing.T) {
	f := NewField(Entry[Phone]{Value: Phone{Number: "5512345678"}})
	assert.False(t, f.Remove(0))
	assert.Equal(t, 1, f.Len())
}

func TestFieldRemovePrimaryPromotesFirst(t *testing.T) {
	f := NewField(
		Entry[Email]{Value: Email{"a@x.com"}},
		Entry[Email]{Value: Email{"b@x.com"}},
		Entry[Email]{Value: Email{"c@x.com"}, IsPrimary: true},
	)

	require.True(t, f.Remove(2))
	p, _ := f.Primary()
	assert.Equal(t, "a@x.com", p.Value.Address)

	require.True(t, f.SetPrimary(1))
	require.True(t, f.Remove(0))
	p, _ = f.Primary()
	assert.Equal(t, "b@x.com", p.Value.Address)
	assert.Equal(t, 1, f.Len())
}

func TestFieldRemoveNonPrimaryKeepsPrimary(t *testing.T) {
	f := NewField(
		Entry[Email]{Value: Email{"a@x.com"}},
		Entry[Email]{Value: Email{"b@x.com"}, IsPrimary: true},
	)
	require.True(t, f.Remove(0))
	p, _ := f.Primary()
	assert.Equal(t, "b@x.com", p.Value.Address)
}

func TestFieldSetPrimaryEveryIndex(t *testing.T) {
	f := NewField[Email]()
	for i := 0; i < 4; i++ {
		f.Add()
	}

	for i := 0; i < f.Len(); i++ {
		require.True(t, f.SetPrimary(i))
		for j, e := range f.Entries() {
			assert.Equal(t, i == j, e.IsPrimary, "after SetPrimary(%d) entry %d", i, j)
		}
	}
}

func TestFieldOutOfRangeIsNoop(t *testing.T) {
	f := NewField(Entry[Email]{Value: Email{"a@x.com"}}, Entry[Email]{Value: Email{"b@x.com"}})
	before := f.Entries()

	assert.False(t, f.Update(5, Email{"z@x.com"}))
	assert.False(t, f.Update(-1, Email{"z@x.com"}))
	assert.False(t, f.Remove(2))
	assert.False(t, f.SetPrimary(-1))
	assert.False(t, f.Annotate(9, []models.DuplicateMatch{{DisplayName: "x"}}))

	assert.Equal(t, before, f.Entries())
}

func TestFieldUpdateKeepsPrimaryAndClearsDuplicates(t *testing.T) {
	f := NewField(Entry[Email]{Value: Email{"a@x.com"}}, Entry[Email]{Value: Email{"b@x.com"}})
	require.True(t, f.Annotate(0, []models.DuplicateMatch{{DisplayName: "Other"}}))

	e, _ := f.At(0)
	require.Len(t, e.Duplicates, 1)

	require.True(t, f.Update(0, Email{"new@x.com"}))
	e, _ = f.At(0)
	assert.Equal(t, "new@x.com", e.Value.Address)
	assert.True(t, e.IsPrimary)
	assert.Nil(t, e.Duplicates)
}

func TestFieldAnnotateByIDAfterReorder(t *testing.T) {
	f := NewField(Entry[Email]{Value: Email{"a@x.com"}}, Entry[Email]{Value: Email{"b@x.com"}})
	second, _ := f.At(1)

	require.True(t, f.Remove(0))
	assert.Equal(t, 0, f.IndexOf(second.ID))
	require.True(t, f.AnnotateByID(second.ID, []models.DuplicateMatch{{DisplayName: "Dup"}}))

	e, _ := f.Get(second.ID)
	assert.Equal(t, "Dup", e.Duplicates[0].DisplayName)
	assert.False(t, f.AnnotateByID(uuid.New(), nil))
}

func TestFieldEntriesIsCopy(t *testing.T) {
	f := NewField(Entry[Email]{Value: Email{"a@x.com"}})
	entries := f.Entries()
	entries[0].Value.Address = "mutated"
	entries[0].IsPrimary = false

	e, _ := f.At(0)
	assert.Equal(t, "a@x.com", e.Value.Address)
	assert.True(t, e.IsPrimary)
}

func TestFieldRandomOperationsKeepOnePrimary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := NewField(Entry[Phone]{})

	for step := 0; step < 2000; step++ {
		switch rng.Intn(4) {
		case 0:
			f.Add()
		case 1:
			f.Remove(rng.Intn(f.Len() + 2))
		case 2:
			f.SetPrimary(rng.Intn(f.Len()+2) - 1)
		case 3:
			f.Update(rng.Intn(f.Len()+1), Phone{Number: "1"})
		}
		require.GreaterOrEqual(t, f.Len(), 1)
		require.Equal(t, 1, primaryCount(f), "step %d", step)
	}
}
