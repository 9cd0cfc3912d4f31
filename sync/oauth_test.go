package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfigCreation(t *testing.T) {
	config := NewOAuthConfig()

	require.NotNil(t, config)
	assert.Equal(t, []string{ContactsScope}, config.Scopes)
}

func TestRequireOAuthConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	_, err := RequireOAuthConfig()
	assert.Error(t, err)

	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	config, err := RequireOAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "id", config.ClientID)
}

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()

	assert.Equal(t, filepath.Join(xdg.DataHome, "contactdesk"), filepath.Dir(path))
	assert.Equal(t, "google-credentials.json", filepath.Base(path))
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "abc", RefreshToken: "def", Expiry: expiry}))

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "def", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
