// ABOUTME: Tests for the remote CRM client against an httptest server
// ABOUTME: Verifies request shapes, decoding and error mapping
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Token: "secret", Timeout: 2 * time.Second}, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSearchCompanies(t *testing.T) {
	acme := models.Company{ID: uuid.New(), Name: "Acme"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/companies", r.URL.Path)
		assert.Equal(t, "acm", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []models.Company{acme})
	})

	got, err := client.SearchCompanies(context.Background(), "acm", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, acme.ID, got[0].ID)
}

func TestCreateCompanyError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body createCompanyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Globex", body.Name)
		writeJSON(w, http.StatusConflict, map[string]string{"error": "name taken"})
	})

	_, err := client.CreateCompany(context.Background(), "Globex", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "name taken", apiErr.Message)
}

func TestSaveCaseRolesSendsEmptySet(t *testing.T) {
	contactID, caseID := uuid.New(), uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/contacts/"+contactID.String()+"/cases/"+caseID.String()+"/roles", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `[]`, string(body["roles"]))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SaveCaseRoles(context.Background(), contactID, caseID, nil))
}

func TestListCaseRolesAndLookup(t *testing.T) {
	contactID := uuid.New()
	history := []models.CaseRoles{{Case: models.Case{ID: uuid.New(), Title: "Pilot"}, Roles: []models.Role{models.RoleChampion}}}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/contacts/" + contactID.String() + "/cases":
			writeJSON(w, http.StatusOK, history)
		case "/api/duplicates":
			assert.Equal(t, "phone", r.URL.Query().Get("kind"))
			writeJSON(w, http.StatusOK, []models.DuplicateMatch{{ContactID: uuid.New(), DisplayName: "Luis"}})
		default:
			http.NotFound(w, r)
		}
	})

	got, err := client.ListCaseRoles(context.Background(), contactID)
	require.NoError(t, err)
	assert.Equal(t, history[0].Roles, got[0].Roles)

	dups, err := client.LookupDuplicates(context.Background(), "+525512345678", models.DuplicatePhone)
	require.NoError(t, err)
	assert.Equal(t, "Luis", dups[0].DisplayName)
}

func TestSaveContactCreatesThenUpdates(t *testing.T) {
	assigned := uuid.New()
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		var c models.Contact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		if c.ID == uuid.Nil {
			c.ID = assigned
		}
		writeJSON(w, http.StatusOK, c)
	})

	c := &models.Contact{FirstName: "Ana"}
	require.NoError(t, client.SaveContact(context.Background(), c))
	assert.Equal(t, assigned, c.ID)

	c.JobTitle = "CFO"
	require.NoError(t, client.SaveContact(context.Background(), c))
	assert.Equal(t, []string{"POST /api/contacts", "PUT /api/contacts/" + assigned.String()}, methods)
}

func TestGetContactNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetContact(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClientServesEditSession(t *testing.T) {
	acme := models.Company{ID: uuid.New(), Name: "Acme"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Company{acme})
	})

	cfg := editor.SessionConfig{Workflow: editor.WorkflowConfig{Debounce: time.Millisecond}}
	s := editor.NewEditSession(nil, nil, editor.Deps{Companies: client}, cfg, nil)
	defer s.Close()

	require.NoError(t, s.Company().Activate(0))
	require.NoError(t, s.Company().Type("acme"))
	s.Company().Wait()
	assert.False(t, s.Company().CanCreate())
	require.NoError(t, s.Company().Select(0))

	e, _ := s.Draft().Companies.At(0)
	assert.Equal(t, acme.ID, *e.Value.ID)
}
