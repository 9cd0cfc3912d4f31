// ABOUTME: Autosave store for in-progress contact edits on top of charm KV
// ABOUTME: Drafts are JSON snapshots keyed by contact ID, "new" for unsaved contacts
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
)

const draftPrefix = "drafts:"

// NewDraftKey is the key suffix used for a contact that has never been saved.
const NewDraftKey = "new"

// DraftStore persists editor snapshots so an edit can be resumed later.
type DraftStore struct {
	client *Client
	now    func() time.Time
}

// NewDraftStore returns a DraftStore on top of c.
func NewDraftStore(c *Client) *DraftStore {
	return &DraftStore{client: c, now: time.Now}
}

func draftKey(contactID uuid.UUID) []byte {
	if contactID == uuid.Nil {
		return []byte(draftPrefix + NewDraftKey)
	}
	return []byte(draftPrefix + contactID.String())
}

// Save stores the snapshot, stamping SavedAt.
func (s *DraftStore) Save(snap editor.DraftSnapshot) (time.Time, error) {
	snap.SavedAt = s.now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(draftKey(snap.ContactID), data); err != nil {
		return time.Time{}, fmt.Errorf("failed to save draft: %w", err)
	}
	return snap.SavedAt, nil
}

// Load returns the stored draft for contactID, or nil when there is none.
func (s *DraftStore) Load(contactID uuid.UUID) (*editor.DraftSnapshot, error) {
	data, err := s.client.Get(draftKey(contactID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var snap editor.DraftSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &snap, nil
}

// List returns every stored draft, most recently saved first. Undecodable
// entries are skipped.
func (s *DraftStore) List() ([]editor.DraftSnapshot, error) {
	keys, err := s.client.KeysWithPrefix([]byte(draftPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	drafts := make([]editor.DraftSnapshot, 0, len(keys))
	for _, k := range keys {
		data, err := s.client.Get(k)
		if err != nil {
			continue
		}
		var snap editor.DraftSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		drafts = append(drafts, snap)
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
	return drafts, nil
}

// Discard removes the draft for contactID. Missing drafts are not an error.
func (s *DraftStore) Discard(contactID uuid.UUID) error {
	if err := s.client.Delete(draftKey(contactID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	return nil
}

// ParseDraftKey maps a user supplied draft key ("new" or a UUID) to a contact ID.
func ParseDraftKey(key string) (uuid.UUID, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), draftPrefix)
	if key == "" || strings.EqualFold(key, NewDraftKey) {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid draft key %q: %w", key, err)
	}
	return id, nil
}
