package admin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/store"
)

func newTestService(t *testing.T) (*Service, *state.Manager) {
	t.Helper()
	mgr, err := state.NewManager(
		context.Background(),
		store.NewMemoryStore(),
		"123",
		slog.New(slog.DiscardHandler),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewService(mgr), mgr
}

func TestCreateUserAssignsInternRank(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "New_Intern",
		Password: "secret1",
		Name:     "Айгерим Т.",
		Role:     store.RoleIntern,
		BranchID: "b2",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if resp.Username != "new_intern" {
		t.Errorf("username = %q, want lowercased", resp.Username)
	}
	if resp.Rank != "Стажер" {
		t.Errorf("rank = %q, want Стажер", resp.Rank)
	}
	if resp.Level != 1 {
		t.Errorf("level = %d, want 1", resp.Level)
	}
	if resp.BranchName != "MEGA Silk Way" {
		t.Errorf("branch_name = %q, want MEGA Silk Way", resp.BranchName)
	}
}

func TestCreateUserNonInternRank(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "new_manager",
		Password: "secret1",
		Name:     "Ерлан Б.",
		Role:     store.RoleManager,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if resp.Rank != "Сотрудник" {
		t.Errorf("rank = %q, want Сотрудник", resp.Rank)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "Manager_User", // seed account, different case
		Password: "secret1",
		Name:     "Дубль",
		Role:     store.RoleManager,
	})

	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "DUPLICATE" {
		t.Fatalf("err = %v, want DUPLICATE", err)
	}
}

func TestCreateUserRejectsUnknownBranch(t *testing.T) {
	svc, mgr := newTestService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "ghost",
		Password: "secret1",
		Name:     "Призрак",
		Role:     store.RoleManager,
		BranchID: "b999",
	})
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}

	mgr.View(func(snap *store.Snapshot) {
		if snap.CredentialByUsername("ghost") != nil {
			t.Error("rejected user was still inserted")
		}
	})
}

func TestDeleteUserProtectsMasterAccount(t *testing.T) {
	svc, mgr := newTestService(t)

	err := svc.DeleteUser(context.Background(), "Master")
	if !errors.Is(err, core.ErrProtectedAccount) {
		t.Fatalf("err = %v, want ErrProtectedAccount", err)
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("err is not an AppError: %v", err)
	}
	if appErr.Code != "PROTECTED_ACCOUNT" {
		t.Errorf("code = %q, want PROTECTED_ACCOUNT", appErr.Code)
	}

	mgr.View(func(snap *store.Snapshot) {
		if snap.CredentialByUsername("master") == nil {
			t.Error("protected account was removed")
		}
	})
}

func TestDeleteUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteUser(context.Background(), "nobody")
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteUserKeepsHistoryRecords(t *testing.T) {
	svc, mgr := newTestService(t)

	err := mgr.Update(context.Background(), func(snap *store.Snapshot) error {
		snap.History = append(snap.History, store.InspectionRecord{
			ID: "r1", InspectorID: "4", InspectorName: "Аружан С.",
			Category: store.CategorySmartphone, LoanAmount: 1000,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := svc.DeleteUser(context.Background(), "intern_user"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	mgr.View(func(snap *store.Snapshot) {
		if len(snap.History) != 1 {
			t.Error("deleting a user must not touch the history")
		}
	})
}

func TestCreateBranchGeneratesID(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateBranch(context.Background(), CreateBranchRequest{
		Name: "Forum Almaty",
		City: "Алматы",
	})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if len(resp.ID) != 9 || resp.ID[0] != 'b' {
		t.Errorf("id = %q, want b + 8 chars", resp.ID)
	}

	branches := svc.ListBranches(context.Background())
	if len(branches) != 4 {
		t.Errorf("branches = %d, want 4", len(branches))
	}
}

func TestCreateBranchRequiresNameAndCity(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBranch(context.Background(), CreateBranchRequest{
		Name: "  ",
		City: "Алматы",
	})
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestDeleteBranchLeavesDanglingAssignments(t *testing.T) {
	svc, mgr := newTestService(t)

	if err := svc.DeleteBranch(context.Background(), "b1"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}

	mgr.View(func(snap *store.Snapshot) {
		if _, ok := snap.BranchByID("b1"); ok {
			t.Error("branch b1 still present")
		}
		// assignments are left as-is, readers resolve them to "no branch"
		if got := snap.UserByID("2").BranchID; got != "b1" {
			t.Errorf("head_user branch = %q, want dangling b1", got)
		}
	})

	// and the user list resolves the dangling id to an empty branch name
	for _, u := range svc.ListUsers(context.Background()) {
		if u.ID == "2" && u.BranchName != "" {
			t.Errorf("branch_name = %q, want empty for dangling branch", u.BranchName)
		}
	}
}

func TestDeleteBranchNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteBranch(context.Background(), "b999")
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
