package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aport-academy/appraisal-api/internal/core"
)

// DecodeSnapshot parses a persisted payload and upgrades it to the current
// schema. Payloads without a schemaVersion field are treated as the legacy
// layout and migrated in full; anything newer than SchemaVersion is refused
// rather than guessed at.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("probing snapshot version: %w: %w", core.ErrStoreCorrupt, err)
	}

	switch {
	case probe.SchemaVersion == 0:
		return migrateLegacy(data)
	case probe.SchemaVersion == SchemaVersion:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w: %w", core.ErrStoreCorrupt, err)
		}
		if snap.Credentials == nil {
			snap.Credentials = make(map[string]*Credential)
		}
		return &snap, nil
	default:
		return nil, fmt.Errorf("%w: snapshot schema %d is newer than supported %d",
			core.ErrStoreCorrupt, probe.SchemaVersion, SchemaVersion)
	}
}

// legacy layout: flat user objects carrying plaintext passwords, epoch-ms
// timestamps and nullable checklist marks.
type legacyUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID string `json:"branchId"`
	JoinedAt int64  `json:"joinedAt"`
	Stats    struct {
		CompletedChecks int    `json:"completedChecks"`
		PassedExams     int    `json:"passedExams"`
		XP              int    `json:"xp"`
		Level           int    `json:"level"`
		Rank            string `json:"rank"`
	} `json:"stats"`
}

type legacyRecord struct {
	ID            string             `json:"id"`
	Timestamp     int64              `json:"timestamp"`
	BranchID      string             `json:"branchId"`
	InspectorID   string             `json:"inspectorId"`
	InspectorName string             `json:"inspectorName"`
	Phone         string             `json:"phone"`
	Category      Category           `json:"category"`
	Model         string             `json:"model"`
	MarketPrice   float64            `json:"marketPrice"`
	LoanAmount    int64              `json:"loanAmount"`
	Checklist     map[string]*string `json:"checklist"`
	Comment       string             `json:"comment"`
}

type legacyPayload struct {
	Users    []legacyUser   `json:"users"`
	Branches []Branch       `json:"branches"`
	History  []legacyRecord `json:"history"`
	Session  *struct {
		ID string `json:"id"`
	} `json:"session"`
}

func migrateLegacy(data []byte) (*Snapshot, error) {
	var legacy legacyPayload
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("decoding legacy snapshot: %w: %w", core.ErrStoreCorrupt, err)
	}

	snap := &Snapshot{
		SchemaVersion: SchemaVersion,
		Credentials:   make(map[string]*Credential, len(legacy.Users)),
		Branches:      legacy.Branches,
		History:       make([]InspectionRecord, 0, len(legacy.History)),
		UpdatedAt:     time.Now().UTC(),
	}

	for _, lu := range legacy.Users {
		hash, err := core.HashPassword(lu.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing legacy credential for %q: %w", lu.Username, err)
		}
		username := strings.ToLower(strings.TrimSpace(lu.Username))
		snap.Credentials[username] = &Credential{
			PasswordHash: hash,
			User: User{
				ID:       lu.ID,
				Username: username,
				Name:     lu.Name,
				Role:     lu.Role,
				BranchID: lu.BranchID,
				JoinedAt: time.UnixMilli(lu.JoinedAt).UTC(),
				Stats: UserStats{
					CompletedChecks: lu.Stats.CompletedChecks,
					PassedExams:     lu.Stats.PassedExams,
					XP:              lu.Stats.XP,
					Level:           lu.Stats.Level,
					Rank:            lu.Stats.Rank,
				},
			},
		}
	}

	for _, lr := range legacy.History {
		checklist := make(map[string]Mark, len(lr.Checklist))
		for label, mark := range lr.Checklist {
			if mark == nil {
				checklist[label] = MarkUnset
				continue
			}
			checklist[label] = Mark(*mark)
		}
		snap.History = append(snap.History, InspectionRecord{
			ID:            lr.ID,
			Timestamp:     time.UnixMilli(lr.Timestamp).UTC(),
			BranchID:      lr.BranchID,
			InspectorID:   lr.InspectorID,
			InspectorName: lr.InspectorName,
			Phone:         lr.Phone,
			Category:      lr.Category,
			Model:         lr.Model,
			MarketPrice:   lr.MarketPrice,
			LoanAmount:    lr.LoanAmount,
			Checklist:     checklist,
			Comment:       lr.Comment,
		})
	}

	if legacy.Session != nil {
		snap.SessionUserID = legacy.Session.ID
	}
	return snap, nil
}
