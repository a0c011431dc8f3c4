package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appscope-labs/appscope-cli/internal/core/domain"
	"github.com/appscope-labs/appscope-cli/internal/core/ports/driven"
)

func TestOAuthClient_MissingConfig(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.OAuthClient(domain.PlatformGitHub)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingClientConfig)
	assert.Contains(t, err.Error(), "github")
}

func TestOAuthClient_UnsupportedPlatform(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.OAuthClient(domain.PlatformType("yahoo"))
	assert.True(t, domain.IsUnsupportedPlatform(err))
}

func TestSetOAuthClient_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	creds := driven.ClientCredentials{ClientID: "cid", ClientSecret: "csec"}
	require.NoError(t, store.SetOAuthClient(domain.PlatformGitHub, creds))

	// The file is a secret store.
	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	got, err := reloaded.OAuthClient(domain.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	// Other platforms stay unset.
	_, err = reloaded.OAuthClient(domain.PlatformGoogle)
	assert.ErrorIs(t, err, domain.ErrMissingClientConfig)
}

func TestOAuthClient_EnvironmentOverride(t *testing.T) {
	dir := t.TempDir()

	seed, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, seed.SetOAuthClient(domain.PlatformGitHub, driven.ClientCredentials{
		ClientID: "from-file", ClientSecret: "file-secret",
	}))

	t.Setenv("APPSCOPE_GITHUB_CLIENT_ID", "from-env")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	got, err := store.OAuthClient(domain.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got.ClientID, "environment wins over the file")
	assert.Equal(t, "file-secret", got.ClientSecret, "fields not overridden keep file values")
}

func TestOAuthClient_EnvironmentOnly(t *testing.T) {
	t.Setenv("APPSCOPE_GOOGLE_CLIENT_ID", "env-cid")
	t.Setenv("APPSCOPE_GOOGLE_CLIENT_SECRET", "env-secret")

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.OAuthClient(domain.PlatformGoogle)
	require.NoError(t, err)
	assert.Equal(t, "env-cid", got.ClientID)
	assert.Equal(t, "env-secret", got.ClientSecret)
}

func TestPath(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
