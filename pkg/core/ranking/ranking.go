package ranking

import (
	"sort"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// Candidate is a worker eligible to cover a vacated shift
type Candidate struct {
	WorkerID        string `json:"worker_id"`
	Name            string `json:"name,omitempty"`
	Grade           int    `json:"grade"`
	DeploymentCount int    `json:"deployment_count"`
}

// Rank returns every contributor who is qualified and free, ordered so the
// least senior sufficient, least recently deployed worker comes first.
//
// busy holds workers with any assignment on the day and onLeave holds workers
// with approved leave on the day. The result is never truncated; an empty
// result means nobody is available.
func Rank(workers []model.Worker, busy, onLeave map[string]bool, minGrade int) []Candidate {
	candidates := make([]Candidate, 0)
	for _, w := range workers {
		if w.Role != model.RoleContributor {
			continue
		}
		if w.Grade < minGrade {
			continue
		}
		if busy[w.ID] || onLeave[w.ID] {
			continue
		}
		candidates = append(candidates, Candidate{
			WorkerID:        w.ID,
			Name:            w.Name,
			Grade:           w.Grade,
			DeploymentCount: w.DeploymentCount,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.DeploymentCount != b.DeploymentCount {
			return a.DeploymentCount < b.DeploymentCount
		}
		// ID keeps the order total so repeated queries agree
		return a.WorkerID < b.WorkerID
	})

	return candidates
}
