package bento

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

type SessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

type PersistedSession struct {
	SavedAt time.Time       `json:"saved_at"`
	Cookies []SessionCookie `json:"cookies"`
}

// SessionStore keeps login cookies in a json file so separate runs
// share one server session instead of logging in every time.
type SessionStore struct {
	Path string
}

func (s SessionStore) Save(session PersistedSession) error {
	contents, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	// whole-file rename so a crash mid-write never leaves a truncated
	// session behind
	tmp := s.Path + ".tmp"
	err = os.WriteFile(tmp, contents, 0600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Load reads the persisted session. A missing or unreadable file
// reports ok=false, callers fall back to a fresh login.
func (s SessionStore) Load() (PersistedSession, bool) {
	contents, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return PersistedSession{}, false
	}
	if err != nil {
		slog.Warn("failed to read session file", "path", s.Path, "err", err)
		return PersistedSession{}, false
	}

	var session PersistedSession
	err = json.Unmarshal(contents, &session)
	if err != nil {
		slog.Warn("failed to parse session file", "path", s.Path, "err", err)
		return PersistedSession{}, false
	}
	return session, true
}
