package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

const denylistPrefix = "auth:denylist:"

type Service struct {
	state  *state.Manager
	jwt    *JWTManager
	redis  *redis.Client
	logger *slog.Logger
}

func NewService(
	st *state.Manager,
	jwtManager *JWTManager,
	rdb *redis.Client,
	logger *slog.Logger,
) *Service {
	svc := &Service{
		state:  st,
		jwt:    jwtManager,
		redis:  rdb,
		logger: logger,
	}
	jwtManager.SetDenylist(svc)
	return svc
}

// Login authenticates by username and password. Unknown usernames and
// wrong passwords are indistinguishable to the caller: both cost a full
// hash verification and both return core.ErrInvalidCredentials.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	var (
		matched    bool
		newHash    string
		user       store.User
		branchName string
	)
	s.state.View(func(snap *store.Snapshot) {
		cred := snap.CredentialByUsername(username)
		var storedHash *string
		if cred != nil {
			storedHash = &cred.PasswordHash
		}

		ok, upgraded, err := core.VerifyPasswordTimingSafe(req.Password, storedHash)
		if err != nil || !ok || cred == nil {
			return
		}
		matched = true
		newHash = upgraded
		user = cred.User
		if branch, found := snap.BranchByID(user.BranchID); found {
			branchName = branch.Name
		}
	})

	if !matched {
		return nil, core.ErrInvalidCredentials
	}

	if newHash != "" {
		s.upgradeHash(ctx, username, newHash)
	}

	if err := s.state.Update(ctx, func(snap *store.Snapshot) error {
		snap.SessionUserID = user.ID
		return nil
	}); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	token, _, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:   user.ID,
		Role:     user.Role,
		BranchID: user.BranchID,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	expiresIn := s.jwt.config.AccessTokenExpire
	return &AuthResponse{
		User: ToUserResponse(user, branchName),
		Tokens: TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(expiresIn.Seconds()),
			ExpiresAt:   time.Now().Add(expiresIn),
		},
	}, nil
}

// upgradeHash stores a hash recomputed with current parameters. Best
// effort: login has already succeeded, a failure here only delays the
// upgrade.
func (s *Service) upgradeHash(ctx context.Context, username, newHash string) {
	err := s.state.Update(ctx, func(snap *store.Snapshot) error {
		cred := snap.CredentialByUsername(username)
		if cred == nil {
			return nil
		}
		cred.PasswordHash = newHash
		return nil
	})
	if err != nil {
		s.logger.Warn("password rehash persist failed", "error", err)
	}
}

// Logout revokes the presented token until its natural expiry and clears
// the persisted session if it belongs to this user. Idempotent: logging
// out twice is not an error.
func (s *Service) Logout(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti != "" && ttl > 0 {
		if err := s.redis.Set(ctx, denylistPrefix+jti, "1", ttl).Err(); err != nil {
			return fmt.Errorf("revoking token: %w", err)
		}
	}

	return s.state.Update(ctx, func(snap *store.Snapshot) error {
		if snap.SessionUserID == userID {
			snap.SessionUserID = ""
		}
		return nil
	})
}

func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		// Fail open: an unreachable denylist should not lock everyone out.
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("denylist check failed", "error", err)
		}
		return false, nil
	}
	return n > 0, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*UserResponse, error) {
	var (
		found      bool
		user       store.User
		branchName string
	)
	s.state.View(func(snap *store.Snapshot) {
		u := snap.UserByID(userID)
		if u == nil {
			return
		}
		found = true
		user = *u
		if branch, ok := snap.BranchByID(u.BranchID); ok {
			branchName = branch.Name
		}
	})

	if !found {
		return nil, core.NotFoundError("user")
	}
	resp := ToUserResponse(user, branchName)
	return &resp, nil
}
