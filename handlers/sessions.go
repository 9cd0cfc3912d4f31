// ABOUTME: MCP tool handlers for contact edit sessions
// ABOUTME: Opens, inspects, autosaves, submits and closes sessions keyed by ULID
package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ErrUnknownSession is returned for a session ID that is not open.
var ErrUnknownSession = errors.New("unknown session")

// ContactLoader fetches a persisted contact. A nil contact with a nil error means not found.
type ContactLoader interface {
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
}

// DraftStore persists session snapshots between runs.
type DraftStore interface {
	Save(snap editor.DraftSnapshot) (time.Time, error)
	Load(contactID uuid.UUID) (*editor.DraftSnapshot, error)
	List() ([]editor.DraftSnapshot, error)
	Discard(contactID uuid.UUID) error
}

// SessionHandlers owns the open edit sessions.
type SessionHandlers struct {
	deps     editor.Deps
	loader   ContactLoader
	drafts   DraftStore
	resolver *editor.CountryCodeResolver
	cfg      editor.SessionConfig
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*editor.EditSession
	entropy  *ulid.MonotonicEntropy
}

// NewSessionHandlers builds the handlers. loader and drafts may be nil.
func NewSessionHandlers(deps editor.Deps, loader ContactLoader, drafts DraftStore, resolver *editor.CountryCodeResolver, cfg editor.SessionConfig, logger *zap.Logger) *SessionHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = editor.NewCountryCodeResolver("")
	}
	return &SessionHandlers{
		deps:     deps,
		loader:   loader,
		drafts:   drafts,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*editor.EditSession),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Session returns the open session with id.
func (h *SessionHandlers) Session(id string) (*editor.EditSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

// CloseAll stops every open session.
func (h *SessionHandlers) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		s.Close()
		delete(h.sessions, id)
	}
}

func (h *SessionHandlers) output(id string, s *editor.EditSession) SessionOutput {
	return sessionToOutput(id, s.View())
}

type OpenSessionInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"UUID of the contact to edit; omit to create a new contact"`
	Resume    bool   `json:"resume,omitempty" jsonschema:"Resume the autosaved draft when one exists"`
}

func (h *SessionHandlers) OpenSession(ctx context.Context, _ *mcp.CallToolRequest, input OpenSessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	contactID := uuid.Nil
	if input.ContactID != "" {
		id, err := uuid.Parse(input.ContactID)
		if err != nil {
			return nil, SessionOutput{}, fmt.Errorf("invalid contact_id: %w", err)
		}
		contactID = id
	}

	draft, err := h.buildDraft(ctx, contactID, input.Resume)
	if err != nil {
		return nil, SessionOutput{}, err
	}

	h.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), h.entropy).String()
	h.mu.Unlock()

	session := editor.NewEditSession(draft, h.resolver, h.deps, h.cfg, h.logger.With(zap.String("session", id)))
	if err := session.Open(ctx); err != nil {
		session.Close()
		return nil, SessionOutput{}, err
	}

	h.mu.Lock()
	h.sessions[id] = session
	h.mu.Unlock()

	h.logger.Info("edit session opened", zap.String("session", id), zap.String("contact_id", idString(contactID)))
	return nil, h.output(id, session), nil
}

func (h *SessionHandlers) buildDraft(ctx context.Context, contactID uuid.UUID, resume bool) (*editor.ContactDraft, error) {
	if resume && h.drafts != nil {
		snap, err := h.drafts.Load(contactID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			return editor.RestoreDraft(*snap), nil
		}
	}

	if contactID == uuid.Nil {
		d := editor.NewDraft()
		d.Phones.Update(0, editor.Phone{CountryCode: h.resolver.Fallback()})
		return d, nil
	}

	if h.loader == nil {
		return nil, fmt.Errorf("no contact store configured")
	}
	contact, err := h.loader.GetContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", contactID)
	}
	return editor.DraftFromContact(contact, h.resolver), nil
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"Edit session ID returned by open_contact_session"`
}

func (h *SessionHandlers) ViewSession(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SessionOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, h.output(input.SessionID, s), nil
}

type CloseSessionOutput struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

func (h *SessionHandlers) CloseSession(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, CloseSessionOutput, error) {
	h.mu.Lock()
	s, ok := h.sessions[input.SessionID]
	delete(h.sessions, input.SessionID)
	h.mu.Unlock()

	if ok {
		s.Close()
	}
	return nil, CloseSessionOutput{SessionID: input.SessionID, Closed: ok}, nil
}

type SaveDraftOutput struct {
	SessionID string `json:"session_id"`
	DraftKey  string `json:"draft_key"`
	SavedAt   string `json:"saved_at"`
}

func (h *SessionHandlers) SaveDraft(_ context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SaveDraftOutput, error) {
	if h.drafts == nil {
		return nil, SaveDraftOutput{}, fmt.Errorf("draft storage is disabled")
	}
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SaveDraftOutput{}, err
	}

	snap := s.Draft().Snapshot()
	savedAt, err := h.drafts.Save(snap)
	if err != nil {
		return nil, SaveDraftOutput{}, err
	}
	return nil, SaveDraftOutput{
		SessionID: input.SessionID,
		DraftKey:  draftKey(snap.ContactID),
		SavedAt:   savedAt.Format(time.RFC3339),
	}, nil
}

type DraftSummary struct {
	DraftKey  string `json:"draft_key"`
	ContactID string `json:"contact_id,omitempty"`
	Name      string `json:"name"`
	SavedAt   string `json:"saved_at"`
}

type ListDraftsInput struct{}

type ListDraftsOutput struct {
	Drafts []DraftSummary `json:"drafts"`
}

func (h *SessionHandlers) ListDrafts(_ context.Context, _ *mcp.CallToolRequest, _ ListDraftsInput) (*mcp.CallToolResult, ListDraftsOutput, error) {
	out := ListDraftsOutput{Drafts: []DraftSummary{}}
	if h.drafts == nil {
		return nil, out, nil
	}
	snaps, err := h.drafts.List()
	if err != nil {
		return nil, ListDraftsOutput{}, err
	}
	for _, snap := range snaps {
		name := strings.TrimSpace(snap.Scalars.FirstName + " " + snap.Scalars.LastName)
		out.Drafts = append(out.Drafts, DraftSummary{
			DraftKey:  draftKey(snap.ContactID),
			ContactID: idString(snap.ContactID),
			Name:      name,
			SavedAt:   snap.SavedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

func draftKey(id uuid.UUID) string {
	if id == uuid.Nil {
		return "new"
	}
	return id.String()
}

type SubmitOutput struct {
	SessionID string          `json:"session_id"`
	ContactID string          `json:"contact_id"`
	Created   bool            `json:"created"`
	Name      string          `json:"name"`
	Warnings  []WarningOutput `json:"warnings,omitempty"`
}

func (h *SessionHandlers) SubmitContact(ctx context.Context, _ *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SubmitOutput, error) {
	s, err := h.Session(input.SessionID)
	if err != nil {
		return nil, SubmitOutput{}, err
	}

	wasNew := s.Draft().ContactID() == uuid.Nil
	warnings := s.Warnings()

	contact, err := s.Submit(ctx)
	if err != nil {
		return nil, SubmitOutput{}, err
	}

	if h.drafts != nil {
		if wasNew {
			_ = h.drafts.Discard(uuid.Nil)
		}
		if err := h.drafts.Discard(contact.ID); err != nil {
			h.logger.Warn("failed to discard draft", zap.String("contact_id", contact.ID.String()), zap.Error(err))
		}
	}

	out := SubmitOutput{
		SessionID: input.SessionID,
		ContactID: contact.ID.String(),
		Created:   wasNew,
		Name:      contact.DisplayName(),
	}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, WarningOutput{Field: string(w.Field), Index: w.Index, Value: w.Value, Message: w.Message})
	}
	return nil, out, nil
}
