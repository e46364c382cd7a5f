package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

func contributor(id string, grade, deployments int) model.Worker {
	return model.Worker{ID: id, Grade: grade, DeploymentCount: deployments, Role: model.RoleContributor}
}

func TestRank_OrdersByGradeThenDeployments(t *testing.T) {
	workers := []model.Worker{
		contributor("w1", 3, 5),
		contributor("w2", 3, 2),
		contributor("w3", 5, 0),
	}

	got := Rank(workers, nil, nil, 3)

	require.Len(t, got, 3)
	assert.Equal(t, Candidate{WorkerID: "w2", Grade: 3, DeploymentCount: 2}, got[0])
	assert.Equal(t, Candidate{WorkerID: "w1", Grade: 3, DeploymentCount: 5}, got[1])
	assert.Equal(t, Candidate{WorkerID: "w3", Grade: 5, DeploymentCount: 0}, got[2])
}

func TestRank_ExcludesIneligible(t *testing.T) {
	workers := []model.Worker{
		contributor("junior", 2, 0),
		contributor("busy", 4, 0),
		contributor("leave", 4, 0),
		{ID: "planner", Grade: 9, Role: model.RolePlanner},
		contributor("free", 4, 1),
	}
	busy := map[string]bool{"busy": true}
	onLeave := map[string]bool{"leave": true}

	got := Rank(workers, busy, onLeave, 3)

	require.Len(t, got, 1)
	assert.Equal(t, "free", got[0].WorkerID)
}

func TestRank_TieBreakIsStable(t *testing.T) {
	workers := []model.Worker{
		contributor("c", 4, 1),
		contributor("a", 4, 1),
		contributor("b", 4, 1),
	}

	got := Rank(workers, nil, nil, 1)

	ids := []string{got[0].WorkerID, got[1].WorkerID, got[2].WorkerID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRank_NobodyAvailable(t *testing.T) {
	got := Rank([]model.Worker{contributor("w1", 1, 0)}, nil, nil, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
