package store

import (
	"fmt"
	"time"

	"github.com/aport-academy/appraisal-api/internal/core"
)

// SeedSnapshot builds the bootstrap snapshot used when the store is empty or
// unreadable. All seed accounts share the configured default password, which
// is hashed once and reused.
func SeedSnapshot(defaultPassword string) (*Snapshot, error) {
	hash, err := core.HashPassword(defaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing seed password: %w", err)
	}

	now := time.Now().UTC()
	snap := &Snapshot{
		SchemaVersion: SchemaVersion,
		Credentials:   make(map[string]*Credential),
		Branches: []Branch{
			{ID: "b1", Name: "Центральный (Aport)", City: "Алматы", CreatedAt: now},
			{ID: "b2", Name: "MEGA Silk Way", City: "Астана", CreatedAt: now},
			{ID: "b3", Name: "Dostyk Plaza", City: "Алматы", CreatedAt: now},
		},
		History:   []InspectionRecord{},
		UpdatedAt: now,
	}

	seedUsers := []User{
		{
			ID: "1", Username: "master", Name: "Главный Мастер", Role: RoleAdmin,
			JoinedAt: now,
			Stats:    UserStats{CompletedChecks: 250, PassedExams: 12, XP: 45000, Level: 80, Rank: "Legendary Master"},
		},
		{
			ID: "2", Username: "head_user", Name: "Александр К.", Role: RoleHead, BranchID: "b1",
			JoinedAt: now.Add(-10000 * time.Second),
			Stats:    UserStats{CompletedChecks: 45, PassedExams: 8, XP: 15200, Level: 25, Rank: "Эксперт"},
		},
		{
			ID: "3", Username: "manager_user", Name: "Дмитрий В.", Role: RoleManager, BranchID: "b1",
			JoinedAt: now.Add(-5000 * time.Second),
			Stats:    UserStats{CompletedChecks: 120, PassedExams: 5, XP: 18000, Level: 32, Rank: "Специалист"},
		},
		{
			ID: "4", Username: "intern_user", Name: "Аружан С.", Role: RoleIntern, BranchID: "b1",
			JoinedAt: now,
			Stats:    UserStats{CompletedChecks: 2, PassedExams: 0, XP: 500, Level: 2, Rank: "Стажер"},
		},
		{
			ID: "5", Username: "astana_top", Name: "Бауржан М.", Role: RoleManager, BranchID: "b2",
			JoinedAt: now,
			Stats:    UserStats{CompletedChecks: 80, PassedExams: 4, XP: 12000, Level: 20, Rank: "Специалист"},
		},
		{
			ID: "6", Username: "almaty_top", Name: "Николай Г.", Role: RoleManager, BranchID: "b3",
			JoinedAt: now,
			Stats:    UserStats{CompletedChecks: 95, PassedExams: 6, XP: 16000, Level: 28, Rank: "Специалист"},
		},
	}
	for _, u := range seedUsers {
		snap.Credentials[u.Username] = &Credential{PasswordHash: hash, User: u}
	}
	return snap, nil
}
