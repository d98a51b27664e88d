package auth

import (
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserStatsResponse struct {
	CompletedChecks int    `json:"completed_checks"`
	PassedExams     int    `json:"passed_exams"`
	XP              int    `json:"xp"`
	Level           int    `json:"level"`
	Rank            string `json:"rank"`
}

type UserResponse struct {
	ID         string            `json:"id"`
	Username   string            `json:"username"`
	Name       string            `json:"name"`
	Role       string            `json:"role"`
	BranchID   string            `json:"branch_id,omitempty"`
	BranchName string            `json:"branch_name,omitempty"`
	JoinedAt   time.Time         `json:"joined_at"`
	Stats      UserStatsResponse `json:"stats"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

func ToUserResponse(u store.User, branchName string) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		BranchID:   u.BranchID,
		BranchName: branchName,
		JoinedAt:   u.JoinedAt,
		Stats: UserStatsResponse{
			CompletedChecks: u.Stats.CompletedChecks,
			PassedExams:     u.Stats.PassedExams,
			XP:              u.Stats.XP,
			Level:           u.Stats.Level,
			Rank:            u.Stats.Rank,
		},
	}
}
