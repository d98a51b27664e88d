package store

import (
	"context"
	"sort"
	"time"
)

// SchemaVersion marks the current on-disk snapshot layout. Payloads with a
// lower (or absent) version are upgraded on load, see migrate.go.
const SchemaVersion = 1

// Snapshot is the whole application state. It is persisted as a single
// document: every mutation rewrites the full snapshot atomically.
type Snapshot struct {
	SchemaVersion int                    `json:"schemaVersion"`
	Credentials   map[string]*Credential `json:"credentials"`
	Branches      []Branch               `json:"branches"`
	History       []InspectionRecord     `json:"history"`
	SessionUserID string                 `json:"sessionUserId,omitempty"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Store loads and saves whole snapshots. Implementations must make Save
// atomic: a crash mid-save must leave either the old or the new snapshot
// readable, never a torn one.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// UserByID returns the user with the given id, or nil.
func (s *Snapshot) UserByID(id string) *User {
	for _, cred := range s.Credentials {
		if cred.User.ID == id {
			return &cred.User
		}
	}
	return nil
}

// CredentialByUsername looks up by the already-normalized username key.
func (s *Snapshot) CredentialByUsername(username string) *Credential {
	return s.Credentials[username]
}

func (s *Snapshot) BranchByID(id string) (Branch, bool) {
	for _, b := range s.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}

// Users returns the directory sorted by id for stable listings.
func (s *Snapshot) Users() []User {
	users := make([]User, 0, len(s.Credentials))
	for _, cred := range s.Credentials {
		users = append(users, cred.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Clone deep-copies the snapshot so callers can mutate a working copy
// without racing readers of the original.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		SchemaVersion: s.SchemaVersion,
		Credentials:   make(map[string]*Credential, len(s.Credentials)),
		Branches:      make([]Branch, len(s.Branches)),
		History:       make([]InspectionRecord, len(s.History)),
		SessionUserID: s.SessionUserID,
		UpdatedAt:     s.UpdatedAt,
	}
	for k, cred := range s.Credentials {
		c := *cred
		out.Credentials[k] = &c
	}
	copy(out.Branches, s.Branches)
	for i, rec := range s.History {
		out.History[i] = rec
		if rec.Checklist != nil {
			cl := make(map[string]Mark, len(rec.Checklist))
			for k, v := range rec.Checklist {
				cl[k] = v
			}
			out.History[i].Checklist = cl
		}
	}
	return out
}
