package bento

import (
	"os"
	"path/filepath"
	"testing"

	"bentobot/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	store := SessionStore{Path: filepath.Join(t.TempDir(), "session.json")}

	saved := PersistedSession{
		SavedAt: timezone.Now(),
		Cookies: []SessionCookie{
			{
				Name:   ".ASPXAUTH",
				Value:  "ticket-value",
				Domain: "sumiyoshi.azurewebsites.net",
				Path:   "/",
			},
			{
				Name:   "ASP.NET_SessionId",
				Value:  "session-value",
				Domain: "sumiyoshi.azurewebsites.net",
				Path:   "/",
			},
		},
	}
	err := store.Save(saved)
	require.NoError(t, err)

	loaded, ok := store.Load()
	require.True(t, ok)
	require.Equal(t, saved.Cookies, loaded.Cookies)
	require.True(t, saved.SavedAt.Equal(loaded.SavedAt))
}

func TestSessionLoadMissing(t *testing.T) {
	store := SessionStore{Path: filepath.Join(t.TempDir(), "does_not_exist.json")}
	_, ok := store.Load()
	require.False(t, ok)
}

func TestSessionLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	err := os.WriteFile(path, []byte("{not json"), 0600)
	require.NoError(t, err)

	store := SessionStore{Path: path}
	_, ok := store.Load()
	require.False(t, ok)
}

func TestSessionSaveOverwrites(t *testing.T) {
	store := SessionStore{Path: filepath.Join(t.TempDir(), "session.json")}

	err := store.Save(PersistedSession{
		SavedAt: timezone.Now(),
		Cookies: []SessionCookie{{Name: ".ASPXAUTH", Value: "old", Domain: "a", Path: "/"}},
	})
	require.NoError(t, err)
	err = store.Save(PersistedSession{
		SavedAt: timezone.Now(),
		Cookies: []SessionCookie{{Name: ".ASPXAUTH", Value: "new", Domain: "a", Path: "/"}},
	})
	require.NoError(t, err)

	loaded, ok := store.Load()
	require.True(t, ok)
	require.Len(t, loaded.Cookies, 1)
	require.Equal(t, "new", loaded.Cookies[0].Value)
}
