package stats

import (
	"testing"
	"time"

	"github.com/aport-academy/appraisal-api/internal/store"
)

var testBranches = []store.Branch{
	{ID: "b1", Name: "Центральный (Aport)", City: "Алматы"},
	{ID: "b2", Name: "MEGA Silk Way", City: "Астана"},
	{ID: "b3", Name: "Dostyk Plaza", City: "Алматы"},
}

func user(id, branchID string, xp int) store.User {
	return store.User{
		ID:       id,
		Username: "u" + id,
		BranchID: branchID,
		Stats:    store.UserStats{XP: xp},
	}
}

func TestTopInCityScopesToSubjectCity(t *testing.T) {
	users := []store.User{
		user("1", "b1", 100),
		user("2", "b3", 500),
		user("3", "b2", 9000),
		user("4", "b1", 300),
	}

	top := TopInCity(users, testBranches, "1")

	if len(top) != 3 {
		t.Fatalf("got %d entries, want 3", len(top))
	}
	// user 3 works in Астана and must not appear on an Алматы board
	for _, u := range top {
		if u.ID == "3" {
			t.Fatal("leaderboard includes a user from another city")
		}
	}
	if top[0].ID != "2" || top[1].ID != "4" || top[2].ID != "1" {
		t.Errorf("order = %s,%s,%s, want 2,4,1", top[0].ID, top[1].ID, top[2].ID)
	}
}

func TestTopInCityTieBreaksByUserID(t *testing.T) {
	users := []store.User{
		user("9", "b1", 100),
		user("2", "b3", 100),
		user("5", "b1", 100),
	}

	top := TopInCity(users, testBranches, "9")

	if len(top) != 3 {
		t.Fatalf("got %d entries, want 3", len(top))
	}
	if top[0].ID != "2" || top[1].ID != "5" || top[2].ID != "9" {
		t.Errorf("order = %s,%s,%s, want 2,5,9", top[0].ID, top[1].ID, top[2].ID)
	}
}

func TestTopInCityCapsAtThree(t *testing.T) {
	users := []store.User{
		user("1", "b1", 10),
		user("2", "b1", 20),
		user("3", "b1", 30),
		user("4", "b3", 40),
		user("5", "b3", 50),
	}

	top := TopInCity(users, testBranches, "1")

	if len(top) != 3 {
		t.Fatalf("got %d entries, want 3", len(top))
	}
}

func TestTopInCityNoBranchMeansEmptyBoard(t *testing.T) {
	users := []store.User{
		user("1", "", 1000),
		user("2", "b1", 10),
	}

	if top := TopInCity(users, testBranches, "1"); len(top) != 0 {
		t.Errorf("user without branch got a leaderboard of %d entries", len(top))
	}
}

func TestTopInCityDanglingBranchMeansEmptyBoard(t *testing.T) {
	users := []store.User{
		user("1", "deleted-branch", 1000),
		user("2", "b1", 10),
	}

	if top := TopInCity(users, testBranches, "1"); len(top) != 0 {
		t.Errorf("user with dangling branch got a leaderboard of %d entries", len(top))
	}
}

func TestPerformanceByBranch(t *testing.T) {
	now := time.Now()
	history := []store.InspectionRecord{
		record("1", "b1", store.CategorySmartphone, 100, now),
		record("2", "b2", store.CategorySmartphone, 900, now),
		record("3", "b1", store.CategoryLaptop, 50, now),
		record("4", "deleted-branch", store.CategoryLaptop, 9999, now),
	}

	users := []store.User{
		user("1", "b1", 10),
		user("2", "b1", 20),
		user("3", "b2", 30),
		user("4", "deleted-branch", 40),
	}

	perf := PerformanceByBranch(history, testBranches, users)

	if len(perf) != 3 {
		t.Fatalf("got %d branches, want 3", len(perf))
	}
	if perf[0].Branch.ID != "b2" || perf[0].TotalLoanVolume != 900 {
		t.Errorf("top branch = %s vol %d, want b2 vol 900", perf[0].Branch.ID, perf[0].TotalLoanVolume)
	}
	if perf[0].UserCount != 1 {
		t.Errorf("b2 user count = %d, want 1", perf[0].UserCount)
	}
	if perf[1].Branch.ID != "b1" || perf[1].TotalCount != 2 {
		t.Errorf("second branch = %s count %d, want b1 count 2", perf[1].Branch.ID, perf[1].TotalCount)
	}
	if perf[1].UserCount != 2 {
		t.Errorf("b1 user count = %d, want 2", perf[1].UserCount)
	}
	// average ticket floors: 150 over 2 checks
	if perf[1].AverageTicket != 75 {
		t.Errorf("b1 average ticket = %d, want 75", perf[1].AverageTicket)
	}
	// idle branch still listed with zero totals
	if perf[2].Branch.ID != "b3" || perf[2].TotalCount != 0 {
		t.Errorf("idle branch = %s count %d, want b3 count 0", perf[2].Branch.ID, perf[2].TotalCount)
	}
	if perf[2].AverageTicket != 0 {
		t.Errorf("idle branch average ticket = %d, want 0", perf[2].AverageTicket)
	}
}

func TestPerformanceByBranchAverageTicketFloors(t *testing.T) {
	now := time.Now()
	history := []store.InspectionRecord{
		record("1", "b1", store.CategorySmartphone, 100, now),
		record("2", "b1", store.CategorySmartphone, 101, now),
		record("3", "b1", store.CategoryLaptop, 101, now),
	}

	perf := PerformanceByBranch(history, testBranches, nil)

	if perf[0].Branch.ID != "b1" {
		t.Fatalf("top branch = %s, want b1", perf[0].Branch.ID)
	}
	if perf[0].AverageTicket != 100 { // 302 / 3 floors
		t.Errorf("average ticket = %d, want 100", perf[0].AverageTicket)
	}
}
