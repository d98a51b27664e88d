package store

import (
	"time"
)

const (
	RoleAdmin   = "ADMIN"
	RoleHead    = "HEAD"
	RoleManager = "MANAGER"
	RoleIntern  = "INTERN"
)

// BranchGlobal is the sentinel branch id stamped on inspection records that
// were created by a user without a branch assignment.
const BranchGlobal = "global"

// ProtectedUsername can never be removed from the directory.
const ProtectedUsername = "master"

// HistoryCap bounds the inspection history. Eviction is strict FIFO by
// insertion order, not by timestamp.
const HistoryCap = 500

type Mark string

const (
	MarkOK    Mark = "ok"
	MarkBad   Mark = "bad"
	MarkUnset Mark = "unset"
)

type Category string

const (
	CategorySmartphone Category = "Смартфон"
	CategoryLaptop     Category = "Ноутбук"
	CategoryAirPods    Category = "AirPods"
	CategoryWatch      Category = "Часы"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategorySmartphone, CategoryLaptop, CategoryAirPods, CategoryWatch:
		return true
	}
	return false
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHead, RoleManager, RoleIntern:
		return true
	}
	return false
}

type UserStats struct {
	CompletedChecks int    `json:"completedChecks"`
	PassedExams     int    `json:"passedExams"`
	XP              int    `json:"xp"`
	Level           int    `json:"level"`
	Rank            string `json:"rank"`
}

type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	BranchID string    `json:"branchId,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
	Stats    UserStats `json:"stats"`
}

// Credential pairs a directory user with their argon2id password hash.
// Plaintext passwords are never stored.
type Credential struct {
	PasswordHash string `json:"passwordHash"`
	User         User   `json:"user"`
}

type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
}

// InspectionRecord is immutable once appended. LoanAmount is captured at
// creation time and never recomputed.
type InspectionRecord struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	BranchID      string          `json:"branchId"`
	InspectorID   string          `json:"inspectorId"`
	InspectorName string          `json:"inspectorName"`
	Phone         string          `json:"phone,omitempty"`
	Category      Category        `json:"category"`
	Model         string          `json:"model"`
	MarketPrice   float64         `json:"marketPrice"`
	LoanAmount    int64           `json:"loanAmount"`
	Checklist     map[string]Mark `json:"checklist"`
	Comment       string          `json:"comment,omitempty"`
}
