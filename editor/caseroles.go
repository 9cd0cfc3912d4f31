// ABOUTME: Per-case role assignment tracking with dirty state and serialized saves
// ABOUTME: Compares the locally edited role set with the last persisted one for every case
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
)

// DefaultSaveTimeout bounds a single case-role save.
const DefaultSaveTimeout = 10 * time.Second

type roleSet map[models.Role]struct{}

func newRoleSet(roles []models.Role) roleSet {
	s := make(roleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s roleSet) equal(other roleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if _, ok := other[r]; !ok {
			return false
		}
	}
	return true
}

func (s roleSet) toggle(r models.Role) {
	if _, ok := s[r]; ok {
		delete(s, r)
		return
	}
	s[r] = struct{}{}
}

func (s roleSet) sorted() []models.Role {
	out := make([]models.Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return models.SortRoles(out)
}

type caseState struct {
	info    models.Case
	server  roleSet
	local   roleSet
	lastErr error
}

// CaseRoleView is the projection of one case for renderers.
type CaseRoleView struct {
	Case        models.Case   `json:"case"`
	LocalRoles  []models.Role `json:"local_roles"`
	ServerRoles []models.Role `json:"server_roles"`
	Dirty       bool          `json:"dirty"`
	Saving      bool          `json:"saving"`
	LastError   string        `json:"last_error,omitempty"`
}

// CaseRoleTracker holds server and local role sets per case for one contact.
type CaseRoleTracker struct {
	mu          sync.Mutex
	contactID   uuid.UUID
	store       CaseRoleStore
	saveTimeout time.Duration
	logger      *zap.Logger

	cases map[uuid.UUID]*caseState
	order []uuid.UUID
	// saving is keyed by case ID so the guard outlives reloads.
	saving map[uuid.UUID]bool
}

// NewCaseRoleTracker creates an empty tracker for contactID.
func NewCaseRoleTracker(contactID uuid.UUID, store CaseRoleStore, saveTimeout time.Duration, logger *zap.Logger) *CaseRoleTracker {
	if saveTimeout <= 0 {
		saveTimeout = DefaultSaveTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseRoleTracker{
		contactID:   contactID,
		store:       store,
		saveTimeout: saveTimeout,
		logger:      logger,
		cases:       make(map[uuid.UUID]*caseState),
		saving:      make(map[uuid.UUID]bool),
	}
}

// Load replaces all tracked cases with history. Local roles start equal to
// server roles. A case that is reloaded while its save is in flight stays
// marked as saving until that save returns; the save's outcome is not applied
// to the reloaded state.
func (t *CaseRoleTracker) Load(history []models.CaseRoles) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cases = make(map[uuid.UUID]*caseState, len(history))
	t.order = t.order[:0]
	for _, h := range history {
		if _, seen := t.cases[h.Case.ID]; seen {
			continue
		}
		t.cases[h.Case.ID] = &caseState{
			info:   h.Case,
			server: newRoleSet(h.Roles),
			local:  newRoleSet(h.Roles),
		}
		t.order = append(t.order, h.Case.ID)
	}
}

// LoadHistory fetches the contact's case history from the store and loads it.
func (t *CaseRoleTracker) LoadHistory(ctx context.Context) error {
	if t.store == nil {
		t.Load(nil)
		return nil
	}
	history, err := t.store.ListCaseRoles(ctx, t.contactID)
	if err != nil {
		return err
	}
	t.Load(history)
	return nil
}

// Toggle flips role membership in the local set of caseID.
func (t *CaseRoleTracker) Toggle(caseID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cs, ok := t.cases[caseID]
	if !ok {
		return ErrUnknownCase
	}
	cs.local.toggle(role)
	return nil
}

// IsDirty reports whether local roles differ from server roles. Unknown cases are clean.
func (t *CaseRoleTracker) IsDirty(caseID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs, ok := t.cases[caseID]
	return ok && !cs.local.equal(cs.server)
}

// IsSaving reports whether a save for caseID is in flight.
func (t *CaseRoleTracker) IsSaving(caseID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.saving[caseID]
}

// LocalRoles returns the sorted local role set, or nil for unknown cases.
func (t *CaseRoleTracker) LocalRoles(caseID uuid.UUID) []models.Role {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cs, ok := t.cases[caseID]; ok {
		return cs.local.sorted()
	}
	return nil
}

// ServerRoles returns the sorted last-persisted role set, or nil for unknown cases.
func (t *CaseRoleTracker) ServerRoles(caseID uuid.UUID) []models.Role {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cs, ok := t.cases[caseID]; ok {
		return cs.server.sorted()
	}
	return nil
}

// DirtyCases returns the IDs of cases with unsaved role changes, in load order.
func (t *CaseRoleTracker) DirtyCases() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range t.order {
		if cs := t.cases[id]; !cs.local.equal(cs.server) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Cases returns a view of every tracked case in load order.
func (t *CaseRoleTracker) Cases() []CaseRoleView {
	t.mu.Lock()
	defer t.mu.Unlock()

	views := make([]CaseRoleView, 0, len(t.order))
	for _, id := range t.order {
		cs := t.cases[id]
		v := CaseRoleView{
			Case:        cs.info,
			LocalRoles:  cs.local.sorted(),
			ServerRoles: cs.server.sorted(),
			Dirty:       !cs.local.equal(cs.server),
			Saving:      t.saving[id],
		}
		if cs.lastErr != nil {
			v.LastError = cs.lastErr.Error()
		}
		views = append(views, v)
	}
	return views
}

// Save sends the full local role set of caseID to the store. A clean case is
// a no-op. A second call while one is pending returns ErrSaveInFlight without
// touching the store. On success the sent set becomes the server set; on
// failure local roles are kept and a *SaveError is returned.
func (t *CaseRoleTracker) Save(ctx context.Context, caseID uuid.UUID) error {
	t.mu.Lock()
	cs, ok := t.cases[caseID]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownCase
	}
	if t.saving[caseID] {
		t.mu.Unlock()
		return ErrSaveInFlight
	}
	if cs.local.equal(cs.server) {
		t.mu.Unlock()
		return nil
	}
	if t.store == nil {
		t.mu.Unlock()
		return &SaveError{CaseID: caseID, Err: errNoStore}
	}
	snapshot := cs.local.sorted()
	t.saving[caseID] = true
	t.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, t.saveTimeout)
	err := t.store.SaveCaseRoles(sctx, t.contactID, caseID, snapshot)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.saving, caseID)
	if current, ok := t.cases[caseID]; !ok || current != cs {
		t.logger.Debug("case reloaded during role save", zap.String("case_id", caseID.String()))
		if err != nil {
			return &SaveError{CaseID: caseID, Err: err}
		}
		return nil
	}

	if err != nil {
		cs.lastErr = err
		t.logger.Warn("case role save failed", zap.String("case_id", caseID.String()), zap.Error(err))
		return &SaveError{CaseID: caseID, Err: err}
	}

	cs.server = newRoleSet(snapshot)
	cs.lastErr = nil
	t.logger.Info("case roles saved",
		zap.String("case_id", caseID.String()), zap.Int("roles", len(snapshot)))
	return nil
}
