package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/shift-roster/internal/config"
)

func TestGetOAuthConfig(t *testing.T) {
	cfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:     "client-id",
		ClientSecret: "secret",
		AuthURI:      "https://accounts.google.com/o/oauth2/auth",
		TokenURI:     "https://oauth2.googleapis.com/token",
		RedirectURIs: []string{"http://localhost"},
	}}

	oauthConfig, err := GetOAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "client-id", oauthConfig.ClientID)
	assert.Equal(t, "http://localhost:3000/oauth/callback", oauthConfig.RedirectURL)
	assert.ElementsMatch(t, []string{ScopeSheets, ScopeGmailSend}, oauthConfig.Scopes)
}

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, missingScopes(ScopeGmailSend+" "+ScopeSheets+" openid"))
	assert.Equal(t, []string{ScopeGmailSend}, missingScopes(ScopeSheets))
	assert.Equal(t, []string{ScopeSheets, ScopeGmailSend}, missingScopes(""))
}

func TestTokenFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	token, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	expiry := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, SaveTokenToFile("test", &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}))

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "r", token.RefreshToken)
	assert.True(t, token.Expiry.Equal(expiry))

	require.NoError(t, DeleteTokenFile("test"))
	require.NoError(t, DeleteTokenFile("test"))

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)
}
