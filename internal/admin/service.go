package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

type Service struct {
	state *state.Manager
}

func NewService(st *state.Manager) *Service {
	return &Service{state: st}
}

func (s *Service) ListUsers(_ context.Context) []UserResponse {
	var out []UserResponse
	s.state.View(func(snap *store.Snapshot) {
		users := snap.Users()
		out = make([]UserResponse, 0, len(users))
		for _, u := range users {
			branchName := ""
			if branch, ok := snap.BranchByID(u.BranchID); ok {
				branchName = branch.Name
			}
			out = append(out, toUserResponse(u, branchName))
		}
	})
	return out
}

func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*UserResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return nil, core.ValidationError("username is required")
	}
	if !store.ValidRole(req.Role) {
		return nil, core.ValidationError(fmt.Sprintf("unknown role %q", req.Role))
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	rank := "Сотрудник"
	if req.Role == store.RoleIntern {
		rank = "Стажер"
	}

	user := store.User{
		ID:       uuid.NewString(),
		Username: username,
		Name:     req.Name,
		Role:     req.Role,
		BranchID: req.BranchID,
		JoinedAt: time.Now().UTC(),
		Stats:    store.UserStats{Level: 1, Rank: rank},
	}

	err = s.state.Update(ctx, func(snap *store.Snapshot) error {
		if snap.CredentialByUsername(username) != nil {
			return core.DuplicateError("username")
		}
		if user.BranchID != "" {
			if _, ok := snap.BranchByID(user.BranchID); !ok {
				return core.ValidationError(
					fmt.Sprintf("branch %q does not exist", user.BranchID),
				)
			}
		}
		snap.Credentials[username] = &store.Credential{
			PasswordHash: hash,
			User:         user,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var branchName string
	s.state.View(func(snap *store.Snapshot) {
		if branch, ok := snap.BranchByID(user.BranchID); ok {
			branchName = branch.Name
		}
	})

	resp := toUserResponse(user, branchName)
	return &resp, nil
}

// DeleteUser removes a directory account. The protected account survives
// every delete attempt; records the user created stay in the history.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	if username == store.ProtectedUsername {
		return core.NewAppError(
			core.ErrProtectedAccount,
			"this account cannot be deleted",
			http.StatusUnprocessableEntity,
			"PROTECTED_ACCOUNT",
		)
	}

	return s.state.Update(ctx, func(snap *store.Snapshot) error {
		if snap.CredentialByUsername(username) == nil {
			return core.NotFoundError("user")
		}
		delete(snap.Credentials, username)
		return nil
	})
}

func (s *Service) ListBranches(_ context.Context) []BranchResponse {
	var out []BranchResponse
	s.state.View(func(snap *store.Snapshot) {
		out = make([]BranchResponse, 0, len(snap.Branches))
		for _, b := range snap.Branches {
			out = append(out, toBranchResponse(b))
		}
	})
	return out
}

func (s *Service) CreateBranch(
	ctx context.Context,
	req CreateBranchRequest,
) (*BranchResponse, error) {
	branch := store.Branch{
		ID:        "b" + uuid.NewString()[:8],
		Name:      strings.TrimSpace(req.Name),
		City:      strings.TrimSpace(req.City),
		CreatedAt: time.Now().UTC(),
	}
	if branch.Name == "" || branch.City == "" {
		return nil, core.ValidationError("branch name and city are required")
	}

	err := s.state.Update(ctx, func(snap *store.Snapshot) error {
		snap.Branches = append(snap.Branches, branch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toBranchResponse(branch)
	return &resp, nil
}

// DeleteBranch removes the branch only. Users assigned to it and history
// records stamped with it keep the dangling id; readers resolve it to a
// "no branch" display state.
func (s *Service) DeleteBranch(ctx context.Context, branchID string) error {
	return s.state.Update(ctx, func(snap *store.Snapshot) error {
		for i, b := range snap.Branches {
			if b.ID == branchID {
				snap.Branches = append(snap.Branches[:i], snap.Branches[i+1:]...)
				return nil
			}
		}
		return core.NotFoundError("branch")
	})
}
