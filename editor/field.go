// ABOUTME: Generic ordered collection of email, phone or company entries
// ABOUTME: Keeps exactly one primary entry and tolerates stale indices as no-ops
package editor

import (
	"sync"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
)

// FieldKind names one of the three multi-valued contact fields.
type FieldKind string

const (
	FieldEmail   FieldKind = "email"
	FieldPhone   FieldKind = "phone"
	FieldCompany FieldKind = "company"
)

// Valid reports whether k is a known field kind.
func (k FieldKind) Valid() bool {
	return k == FieldEmail || k == FieldPhone || k == FieldCompany
}

// Email is the value held by an email entry.
type Email struct {
	Address string `json:"address"`
}

// Phone is the value held by a phone entry. Number excludes the dialing prefix.
type Phone struct {
	CountryCode string `json:"country_code,omitempty"`
	Number      string `json:"number"`
}

// CompanyRef is the value held by a company entry. A nil ID means free text only.
type CompanyRef struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// Resolved reports whether the reference points at a directory company.
func (c CompanyRef) Resolved() bool {
	return c.ID != nil
}

// Entry is one item of a multi-valued field.
type Entry[T any] struct {
	ID         uuid.UUID               `json:"id"`
	Value      T                       `json:"value"`
	IsPrimary  bool                    `json:"is_primary"`
	Duplicates []models.DuplicateMatch `json:"duplicates,omitempty"`
}

// Field is an ordered entry collection. Every method returns with exactly one
// primary entry whenever the collection is non-empty.
type Field[T any] struct {
	mu      sync.RWMutex
	entries []Entry[T]
}

// NewField builds a field from seed entries. Missing IDs are assigned; with no
// primary flag the first entry becomes primary, with several the first flagged wins.
func NewField[T any](seed ...Entry[T]) *Field[T] {
	f := &Field[T]{entries: make([]Entry[T], 0, len(seed))}

	primary := -1
	for i, e := range seed {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.IsPrimary && primary < 0 {
			primary = i
		}
		e.Duplicates = copyMatches(e.Duplicates)
		f.entries = append(f.entries, e)
	}

	if len(f.entries) > 0 {
		if primary < 0 {
			primary = 0
		}
		f.setPrimaryLocked(primary)
	}

	return f
}

// Add appends a blank entry and returns its ID.
func (f *Field[T]) Add() uuid.UUID {
	var zero T
	return f.AddValue(zero)
}

// AddValue appends an entry holding v. The first entry of an empty field is primary.
func (f *Field[T]) AddValue(v T) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := Entry[T]{ID: uuid.New(), Value: v, IsPrimary: len(f.entries) == 0}
	f.entries = append(f.entries, e)
	return e.ID
}

// Update replaces the value at index. Primary status is unchanged; duplicate
// annotations computed for the old value are dropped.
func (f *Field[T]) Update(index int, v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inRange(index) {
		return false
	}
	f.entries[index].Value = v
	f.entries[index].Duplicates = nil
	return true
}

// UpdateByID replaces the value of the entry with the given ID.
func (f *Field[T]) UpdateByID(id uuid.UUID, v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexLocked(id)
	if i < 0 {
		return false
	}
	f.entries[i].Value = v
	f.entries[i].Duplicates = nil
	return true
}

// Remove deletes the entry at index. The last remaining entry cannot be removed.
// Removing the primary promotes the new first entry.
func (f *Field[T]) Remove(index int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) <= 1 || !f.inRange(index) {
		return false
	}

	wasPrimary := f.entries[index].IsPrimary
	f.entries = append(f.entries[:index], f.entries[index+1:]...)
	if wasPrimary {
		f.setPrimaryLocked(0)
	}
	return true
}

// SetPrimary makes index the only primary entry.
func (f *Field[T]) SetPrimary(index int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inRange(index) {
		return false
	}
	f.setPrimaryLocked(index)
	return true
}

// Annotate stores externally computed duplicates on the entry at index.
func (f *Field[T]) Annotate(index int, matches []models.DuplicateMatch) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inRange(index) {
		return false
	}
	f.entries[index].Duplicates = copyMatches(matches)
	return true
}

// AnnotateByID stores duplicates on the entry with the given ID.
func (f *Field[T]) AnnotateByID(id uuid.UUID, matches []models.DuplicateMatch) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexLocked(id)
	if i < 0 {
		return false
	}
	f.entries[i].Duplicates = copyMatches(matches)
	return true
}

// Entries returns a copy of all entries in order.
func (f *Field[T]) Entries() []Entry[T] {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Entry[T], len(f.entries))
	for i, e := range f.entries {
		e.Duplicates = copyMatches(e.Duplicates)
		out[i] = e
	}
	return out
}

// At returns a copy of the entry at index.
func (f *Field[T]) At(index int) (Entry[T], bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.inRange(index) {
		return Entry[T]{}, false
	}
	e := f.entries[index]
	e.Duplicates = copyMatches(e.Duplicates)
	return e, true
}

// Get returns a copy of the entry with the given ID.
func (f *Field[T]) Get(id uuid.UUID) (Entry[T], bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	i := f.indexLocked(id)
	if i < 0 {
		return Entry[T]{}, false
	}
	e := f.entries[i]
	e.Duplicates = copyMatches(e.Duplicates)
	return e, true
}

// IndexOf returns the current index of the entry with the given ID, or -1.
func (f *Field[T]) IndexOf(id uuid.UUID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.indexLocked(id)
}

// Primary returns the primary entry.
func (f *Field[T]) Primary() (Entry[T], bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, e := range f.entries {
		if e.IsPrimary {
			e.Duplicates = copyMatches(e.Duplicates)
			return e, true
		}
	}
	return Entry[T]{}, false
}

// Len returns the number of entries.
func (f *Field[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

func (f *Field[T]) inRange(index int) bool {
	return index >= 0 && index < len(f.entries)
}

func (f *Field[T]) indexLocked(id uuid.UUID) int {
	for i := range f.entries {
		if f.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Field[T]) setPrimaryLocked(index int) {
	for i := range f.entries {
		f.entries[i].IsPrimary = i == index
	}
}

func copyMatches(in []models.DuplicateMatch) []models.DuplicateMatch {
	if in == nil {
		return nil
	}
	out := make([]models.DuplicateMatch, len(in))
	copy(out, in)
	return out
}
