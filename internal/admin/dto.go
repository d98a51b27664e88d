package admin

import (
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

type CreateUserRequest struct {
	Username string `json:"username"  validate:"required,min=3,max=64"`
	Password string `json:"password"  validate:"required,min=3,max=128"`
	Name     string `json:"name"      validate:"required,min=1,max=100"`
	Role     string `json:"role"      validate:"required,oneof=ADMIN HEAD MANAGER INTERN"`
	BranchID string `json:"branch_id" validate:"omitempty,max=64"`
}

type CreateBranchRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	City string `json:"city" validate:"required,min=1,max=100"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	BranchID   string    `json:"branch_id,omitempty"`
	BranchName string    `json:"branch_name,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
	XP         int       `json:"xp"`
	Level      int       `json:"level"`
	Rank       string    `json:"rank"`
}

type BranchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u store.User, branchName string) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		BranchID:   u.BranchID,
		BranchName: branchName,
		JoinedAt:   u.JoinedAt,
		XP:         u.Stats.XP,
		Level:      u.Stats.Level,
		Rank:       u.Stats.Rank,
	}
}

func toBranchResponse(b store.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		City:      b.City,
		CreatedAt: b.CreatedAt,
	}
}
