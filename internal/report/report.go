package report

import "time"

type EmployeeStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Left   int64 `json:"left"`
}

type AssetStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByType      map[string]int64 `json:"by_type"`
	ByOwnership map[string]int64 `json:"by_ownership"`
}

type AssignmentStats struct {
	Total int64 `json:"total"`
	Open  int64 `json:"open"`
}

// Dashboard is the landing page summary. It is cached under the dashboard key
// and dropped by every mutation.
type Dashboard struct {
	Employees   EmployeeStats   `json:"employees"`
	Assets      AssetStats      `json:"assets"`
	Assignments AssignmentStats `json:"assignments"`
	GeneratedAt time.Time       `json:"generated_at"`
}
