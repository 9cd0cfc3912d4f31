// ABOUTME: Search-or-create state machine for resolving company entries
// ABOUTME: Debounced directory search with sequence tokens so stale responses are dropped
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
)

// WorkflowState is the resolution state of the active company entry.
type WorkflowState int

const (
	StateIdle WorkflowState = iota
	StateSearching
	StateCreatingNew
)

func (s WorkflowState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateCreatingNew:
		return "creating_new"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name in JSON views.
func (s WorkflowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WorkflowConfig tunes company search. Zero values take the defaults.
type WorkflowConfig struct {
	MinQueryLen   int
	Debounce      time.Duration
	SearchTimeout time.Duration
	CreateTimeout time.Duration
	SearchLimit   int
}

// DefaultWorkflowConfig returns the stock search settings.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		MinQueryLen:   2,
		Debounce:      250 * time.Millisecond,
		SearchTimeout: 5 * time.Second,
		CreateTimeout: 10 * time.Second,
		SearchLimit:   10,
	}
}

func (c WorkflowConfig) withDefaults() WorkflowConfig {
	d := DefaultWorkflowConfig()
	if c.MinQueryLen < 1 {
		c.MinQueryLen = d.MinQueryLen
	}
	if c.Debounce < 0 {
		c.Debounce = 0
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = d.SearchTimeout
	}
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = d.CreateTimeout
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = d.SearchLimit
	}
	return c
}

// WorkflowView is the read-only projection handed to renderers.
type WorkflowView struct {
	State       WorkflowState    `json:"state"`
	EntryID     *uuid.UUID       `json:"entry_id,omitempty"`
	EntryIndex  int              `json:"entry_index"`
	Query       string           `json:"query"`
	Candidates  []models.Company `json:"candidates"`
	Pending     bool             `json:"pending"`
	CanCreate   bool             `json:"can_create"`
	Creating    bool             `json:"creating"`
	SearchError string           `json:"search_error,omitempty"`
	CreateError string           `json:"create_error,omitempty"`
}

// CompanyWorkflow drives one company entry at a time through search, select
// and create. Lock order is workflow then field; the lock is never held while
// the directory is called.
type CompanyWorkflow struct {
	mu     sync.Mutex
	field  *Field[CompanyRef]
	dir    CompanyDirectory
	cfg    WorkflowConfig
	logger *zap.Logger

	state      WorkflowState
	active     uuid.UUID
	query      string
	candidates []models.Company
	seq        uint64
	cancel     context.CancelFunc
	pending    bool
	searchErr  error
	creating   bool
	createErr  error

	wg sync.WaitGroup
}

// NewCompanyWorkflow binds a workflow to a company field and directory.
func NewCompanyWorkflow(field *Field[CompanyRef], dir CompanyDirectory, cfg WorkflowConfig, logger *zap.Logger) *CompanyWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyWorkflow{
		field:  field,
		dir:    dir,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Activate focuses the entry at index and starts searching, seeded with its
// current name. Any other active entry returns to Idle first: a searching
// entry is blurred, a creating entry is cancelled.
func (w *CompanyWorkflow) Activate(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.field.At(index)
	if !ok {
		return ErrEntryGone
	}
	if w.state != StateIdle && w.active == entry.ID {
		return nil
	}

	switch w.state {
	case StateSearching:
		w.blurLocked()
	case StateCreatingNew:
		w.resetLocked()
	}

	w.state = StateSearching
	w.active = entry.ID
	w.query = entry.Value.Name
	w.seq++
	return nil
}

// Type replaces the query text. Queries at least MinQueryLen long are sent to
// the directory after the debounce; any earlier search is cancelled.
func (w *CompanyWorkflow) Type(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSearching {
		return ErrNotSearching
	}

	w.query = text
	w.seq++
	w.stopSearchLocked()
	w.searchErr = nil

	q := strings.TrimSpace(text)
	if len([]rune(q)) < w.cfg.MinQueryLen {
		w.candidates = nil
		return nil
	}
	if w.dir == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.pending = true
	w.wg.Add(1)
	go w.search(ctx, w.seq, w.active, q)
	return nil
}

func (w *CompanyWorkflow) search(ctx context.Context, seq uint64, entryID uuid.UUID, query string) {
	defer w.wg.Done()

	if w.cfg.Debounce > 0 {
		timer := time.NewTimer(w.cfg.Debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Debug("company search superseded during debounce", zap.String("query", query))
			return
		case <-timer.C:
		}
	}

	sctx, cancel := context.WithTimeout(ctx, w.cfg.SearchTimeout)
	results, err := w.dir.SearchCompanies(sctx, query, w.cfg.SearchLimit)
	cancel()

	w.applySearch(seq, entryID, query, results, err)
}

func (w *CompanyWorkflow) applySearch(seq uint64, entryID uuid.UUID, query string, results []models.Company, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != w.seq || w.state != StateSearching || w.active != entryID {
		w.logger.Debug("discarding stale company search response",
			zap.String("query", query), zap.Uint64("seq", seq), zap.Uint64("latest", w.seq))
		return
	}
	w.pending = false
	w.cancel = nil

	if w.field.IndexOf(entryID) < 0 {
		w.resetLocked()
		return
	}

	if err != nil {
		w.searchErr = err
		w.logger.Warn("company search failed", zap.String("query", query), zap.Error(err))
		return
	}
	w.searchErr = nil
	w.candidates = append([]models.Company(nil), results...)
}

// Wait blocks until every search goroutine has returned.
func (w *CompanyWorkflow) Wait() {
	w.wg.Wait()
}

// Select resolves the active entry to the candidate at index.
func (w *CompanyWorkflow) Select(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSearching {
		return ErrNotSearching
	}
	if index < 0 || index >= len(w.candidates) {
		return ErrCandidateOutOfRange
	}
	return w.resolveLocked(w.candidates[index])
}

// SelectByID resolves the active entry to the candidate with the given company ID.
func (w *CompanyWorkflow) SelectByID(companyID uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSearching {
		return ErrNotSearching
	}
	for _, c := range w.candidates {
		if c.ID == companyID {
			return w.resolveLocked(c)
		}
	}
	return ErrCandidateOutOfRange
}

// CanCreate reports whether create-new is offered for the current query.
func (w *CompanyWorkflow) CanCreate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canCreateLocked()
}

// Create stays unavailable until the search for the current query has
// answered, so a match can never hide behind the previous query's candidates.
func (w *CompanyWorkflow) canCreateLocked() bool {
	if w.state != StateSearching || w.pending {
		return false
	}
	q := strings.TrimSpace(w.query)
	if len([]rune(q)) < w.cfg.MinQueryLen {
		return false
	}
	for _, c := range w.candidates {
		if strings.EqualFold(strings.TrimSpace(c.Name), q) {
			return false
		}
	}
	return true
}

// RequestCreate switches from Searching to CreatingNew.
func (w *CompanyWorkflow) RequestCreate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSearching {
		return ErrNotSearching
	}
	if !w.canCreateLocked() {
		return ErrCreateUnavailable
	}

	w.seq++
	w.stopSearchLocked()
	w.state = StateCreatingNew
	w.createErr = nil
	return nil
}

// Confirm creates the company in the directory and resolves the active entry
// to it. On failure the workflow stays in CreatingNew and a *ResolutionError
// is returned. An empty name falls back to the query text.
func (w *CompanyWorkflow) Confirm(ctx context.Context, name, industry string) error {
	w.mu.Lock()
	if w.state != StateCreatingNew {
		w.mu.Unlock()
		return ErrNotCreating
	}
	if w.creating {
		w.mu.Unlock()
		return ErrCreateInFlight
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(w.query)
	}
	if name == "" || w.dir == nil {
		err := &ResolutionError{Name: name, Err: errors.New("company name and directory are required")}
		w.createErr = err
		w.mu.Unlock()
		return err
	}
	w.creating = true
	gen := w.seq
	w.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, w.cfg.CreateTimeout)
	company, err := w.dir.CreateCompany(cctx, name, strings.TrimSpace(industry))
	cancel()
	if err == nil && company == nil {
		err = errors.New("directory returned no company")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Any reset or new attempt since the call started bumps seq.
	if w.seq != gen {
		if err == nil {
			w.logger.Info("company created after workflow moved on",
				zap.String("company_id", company.ID.String()), zap.String("name", company.Name))
		}
		return ErrEntryGone
	}
	w.creating = false

	if err != nil {
		rerr := &ResolutionError{Name: name, Err: err}
		w.createErr = rerr
		w.logger.Warn("company creation failed", zap.String("name", name), zap.Error(err))
		return rerr
	}

	w.logger.Info("company created", zap.String("company_id", company.ID.String()), zap.String("name", company.Name))
	return w.resolveLocked(*company)
}

// Cancel returns to Idle without touching the entry.
func (w *CompanyWorkflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

// Blur leaves a searching entry without a selection. The typed text becomes
// the entry's free-text name; its company ID survives only when the text still
// names the resolved company.
func (w *CompanyWorkflow) Blur() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateIdle:
		return nil
	case StateCreatingNew:
		return ErrNotSearching
	}
	w.blurLocked()
	return nil
}

// EntryRemoved resets the workflow when the active entry was deleted.
func (w *CompanyWorkflow) EntryRemoved(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle && w.active == id {
		w.resetLocked()
	}
}

// State returns the current state.
func (w *CompanyWorkflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View returns a snapshot of the workflow.
func (w *CompanyWorkflow) View() WorkflowView {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := WorkflowView{
		State:      w.state,
		EntryIndex: -1,
		Query:      w.query,
		Candidates: append([]models.Company(nil), w.candidates...),
		Pending:    w.pending,
		CanCreate:  w.canCreateLocked(),
		Creating:   w.creating,
	}
	if w.state != StateIdle {
		id := w.active
		v.EntryID = &id
		v.EntryIndex = w.field.IndexOf(id)
	}
	if w.searchErr != nil {
		v.SearchError = w.searchErr.Error()
	}
	if w.createErr != nil {
		v.CreateError = w.createErr.Error()
	}
	return v
}

// Close cancels any outstanding search.
func (w *CompanyWorkflow) Close() {
	w.mu.Lock()
	w.seq++
	w.stopSearchLocked()
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *CompanyWorkflow) resolveLocked(c models.Company) error {
	id := c.ID
	if !w.field.UpdateByID(w.active, CompanyRef{ID: &id, Name: c.Name}) {
		w.resetLocked()
		return ErrEntryGone
	}
	w.resetLocked()
	return nil
}

func (w *CompanyWorkflow) blurLocked() {
	entry, ok := w.field.Get(w.active)
	if ok {
		typed := strings.TrimSpace(w.query)
		current := entry.Value
		if !(current.Resolved() && strings.EqualFold(typed, strings.TrimSpace(current.Name))) {
			w.field.UpdateByID(w.active, CompanyRef{Name: typed})
		}
	}
	w.resetLocked()
}

func (w *CompanyWorkflow) stopSearchLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.pending = false
}

func (w *CompanyWorkflow) resetLocked() {
	w.seq++
	w.stopSearchLocked()
	w.state = StateIdle
	w.active = uuid.Nil
	w.query = ""
	w.candidates = nil
	w.searchErr = nil
	w.createErr = nil
	w.creating = false
}
