// ABOUTME: Error values for contact editing
// ABOUTME: Sentinel errors plus the ResolutionError and SaveError failure types
package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrSaveInFlight indicates a case-role save for the same case is still pending.
	ErrSaveInFlight = errors.New("case role save already in flight")
	// ErrUnknownCase indicates the case was never loaded into the tracker.
	ErrUnknownCase = errors.New("case not loaded")
	// ErrInvalidRole indicates a role outside the known role set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotSearching indicates a company search transition outside the Searching state.
	ErrNotSearching = errors.New("company workflow is not searching")
	// ErrNotCreating indicates a create confirmation outside the CreatingNew state.
	ErrNotCreating = errors.New("company workflow is not creating")
	// ErrCreateUnavailable indicates create-new is not offered for the current query.
	ErrCreateUnavailable = errors.New("create new company not available for query")
	// ErrCreateInFlight indicates a company creation is already pending.
	ErrCreateInFlight = errors.New("company creation already in flight")
	// ErrCandidateOutOfRange indicates a selection outside the candidate list.
	ErrCandidateOutOfRange = errors.New("candidate out of range")
	// ErrEntryGone indicates the targeted entry no longer exists or is no longer active.
	ErrEntryGone = errors.New("entry no longer exists")
)

// ResolutionError reports a failed company creation. The entry stays unresolved.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to create company %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// SaveError reports a failed case-role save. Local roles are kept for retry.
type SaveError struct {
	CaseID uuid.UUID
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save roles for case %s: %v", e.CaseID, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ValidationWarning is an advisory hint about a malformed email or phone.
// It never blocks a mutation or a save.
type ValidationWarning struct {
	Field   FieldKind `json:"field"`
	Index   int       `json:"index"`
	Value   string    `json:"value"`
	Message string    `json:"message"`
}

var errNoStore = errors.New("no case role store configured")

var (
	// ErrUnknownField indicates a field kind other than email, phone or company.
	ErrUnknownField = errors.New("unknown field")
	// ErrNoContactStore indicates Submit was called without a contact store.
	ErrNoContactStore = errors.New("no contact store configured")
)
