package stats

import (
	"sort"

	"github.com/aport-academy/appraisal-api/internal/store"
)

const leaderboardSize = 3

// TopInCity ranks colleagues working in the same city as the subject, XP
// descending with user ID breaking ties. A subject without a resolvable
// branch has no city and gets an empty board.
func TopInCity(users []store.User, branches []store.Branch, subjectID string) []store.User {
	cityByBranch := make(map[string]string, len(branches))
	for _, b := range branches {
		cityByBranch[b.ID] = b.City
	}

	var city string
	for _, u := range users {
		if u.ID == subjectID {
			city = cityByBranch[u.BranchID]
			break
		}
	}
	if city == "" {
		return nil
	}

	var ranked []store.User
	for _, u := range users {
		if cityByBranch[u.BranchID] == city {
			ranked = append(ranked, u)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Stats.XP != ranked[j].Stats.XP {
			return ranked[i].Stats.XP > ranked[j].Stats.XP
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > leaderboardSize {
		ranked = ranked[:leaderboardSize]
	}
	return ranked
}

type BranchPerformance struct {
	Branch          store.Branch
	UserCount       int
	TotalCount      int
	TotalLoanVolume int64
	AverageTicket   int64
}

// PerformanceByBranch aggregates the full history per branch, busiest
// branch first. Branches without activity still appear with zero totals;
// records and users pointing at deleted branches are ignored.
func PerformanceByBranch(
	history []store.InspectionRecord,
	branches []store.Branch,
	users []store.User,
) []BranchPerformance {
	index := make(map[string]int, len(branches))
	out := make([]BranchPerformance, len(branches))
	for i, b := range branches {
		index[b.ID] = i
		out[i] = BranchPerformance{Branch: b}
	}

	for _, u := range users {
		if i, ok := index[u.BranchID]; ok {
			out[i].UserCount++
		}
	}

	for _, rec := range history {
		i, ok := index[rec.BranchID]
		if !ok {
			continue
		}
		out[i].TotalCount++
		if rec.LoanAmount > 0 {
			out[i].TotalLoanVolume += rec.LoanAmount
		}
	}

	for i := range out {
		if out[i].TotalCount > 0 {
			out[i].AverageTicket = out[i].TotalLoanVolume / int64(out[i].TotalCount)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalLoanVolume > out[j].TotalLoanVolume
	})
	return out
}
