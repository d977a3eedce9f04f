package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/consortium-engine/engine"
)

// Helpers live in engine_test.go.

// =============================================================================
// SCORING
// =============================================================================

func TestScoreRoles_CloserShare(t *testing.T) {
	// GIVEN: ana's value splits 3:1 between CONTRACT_SIGNED and MRR
	// WHEN:  Scoring roles
	// THEN:  closer = 0.75, builder = 0.25

	contract := attRow("c-1", "ana", 3000, 10, 1)
	contract.EventType = engine.EventContractSigned
	mrr := attRow("m-1", "ana", 1000, 10, 1)
	mrr.EventType = engine.EventMRR

	scores := engine.ScoreRoles([]engine.AttributionRecord{contract, mrr}, nil)
	require.Len(t, scores, 1)
	assertDecimal(t, d(0.75), scores[0].Closer, "closer share")
	assertDecimal(t, d(0.25), scores[0].Builder, "builder share")
	assertDecimal(t, decimal.Zero, scores[0].Operator, "operator share")
}

func TestScoreRoles_RainmakerBoundary(t *testing.T) {
	// GIVEN: ana owns two events with totals 100 and 200; the inclusive
	//        0.70 quantile of distinct totals interpolates to 170
	// WHEN:  Scoring roles
	// THEN:  Only the 200 event qualifies: rainmaker = 200/300

	small := attRow("small", "ana", 100, 10, 1)
	big := attRow("big", "ana", 200, 10, 1)

	scores := engine.ScoreRoles([]engine.AttributionRecord{small, big}, nil)
	require.Len(t, scores, 1)
	expected := d(200).Div(d(300))
	approxDecimal(t, expected, scores[0].Rainmaker, "rainmaker share")
}

func TestScoreRoles_ConnectorCountsIndirectAndMixed(t *testing.T) {
	direct := attRow("e-1", "ana", 1000, 10, 1)
	indirect := attRow("e-2", "ana", 2000, 10, 1)
	indirect.Recommendation = engine.RecommendationIndirect
	mixed := attRow("e-3", "ana", 1000, 10, 1)
	mixed.Recommendation = engine.RecommendationMixed

	scores := engine.ScoreRoles([]engine.AttributionRecord{direct, indirect, mixed}, nil)
	require.Len(t, scores, 1)
	assertDecimal(t, d(0.75), scores[0].Connector, "connector share")
}

func TestScoreRoles_ControllerSharesSumToOne(t *testing.T) {
	// GIVEN: bo prevented 30 minutes of loss, dee fixed 10
	// WHEN:  Scoring roles
	// THEN:  Controller shares are 0.75 and 0.25 - a global distribution

	burns := []engine.BurnRecord{
		{BurnID: "b-1", Date: march(3), Subject: "ana", Type: engine.BurnPrevented, PreventedBy: "bo", PreventedMinutes: d(30)},
		{BurnID: "b-2", Date: march(4), Subject: "cam", Type: engine.BurnFixed, PreventedBy: "dee", PreventedMinutes: d(10)},
		// Loss records never feed the controller score.
		{BurnID: "b-3", Date: march(5), Subject: "bo", Type: engine.BurnRework, LossMinutes: d(100)},
	}

	scores := engine.ScoreRoles(nil, burns)
	require.Len(t, scores, 2)
	assert.Equal(t, engine.PersonID("bo"), scores[0].PersonID)
	assertDecimal(t, d(0.75), scores[0].Controller, "bo controller share")
	assert.Equal(t, engine.PersonID("dee"), scores[1].PersonID)
	assertDecimal(t, d(0.25), scores[1].Controller, "dee controller share")
}

func TestScoreRoles_NoPreventionMeansAllZeroControllers(t *testing.T) {
	records := soloPair("ana", "ana", 1000, 10)

	scores := engine.ScoreRoles(records, nil)
	require.Len(t, scores, 1)
	assertDecimal(t, decimal.Zero, scores[0].Controller, "controller with no prevention")
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

func roleScore(person string, set map[engine.Role]float64) engine.RoleScore {
	s := engine.RoleScore{PersonID: engine.PersonID(person)}
	for role, v := range set {
		switch role {
		case engine.RoleRainmaker:
			s.Rainmaker = d(v)
		case engine.RoleCloser:
			s.Closer = d(v)
		case engine.RoleOperator:
			s.Operator = d(v)
		case engine.RoleBuilder:
			s.Builder = d(v)
		case engine.RoleConnector:
			s.Connector = d(v)
		case engine.RoleController:
			s.Controller = d(v)
		}
	}
	return s
}

func TestAssignRoles_TwoRoleCapLeavesRoleUnassigned(t *testing.T) {
	// GIVEN: ana wins rainmaker, closer, AND operator; bo also qualifies
	//        for operator with a lower score
	// WHEN:  Assigning roles
	// THEN:  ana keeps the top two; operator goes unassigned for the
	//        period rather than falling through to bo

	scores := []engine.RoleScore{
		roleScore("ana", map[engine.Role]float64{
			engine.RoleRainmaker: 0.9, engine.RoleCloser: 0.8, engine.RoleOperator: 0.7,
		}),
		roleScore("bo", map[engine.Role]float64{engine.RoleOperator: 0.5}),
	}

	assignments := engine.AssignRoles(scores, nil)
	require.Len(t, assignments, 1)
	a := assignments[0]
	assert.Equal(t, engine.PersonID("ana"), a.PersonID)
	assert.Equal(t, engine.RoleRainmaker, a.Primary)
	require.NotNil(t, a.Secondary)
	assert.Equal(t, engine.RoleCloser, *a.Secondary)
}

func TestAssignRoles_EachRoleAtMostOnce(t *testing.T) {
	// GIVEN: Three people all above every threshold
	// WHEN:  Assigning roles
	// THEN:  No role name repeats across assignments

	scores := []engine.RoleScore{
		roleScore("ana", map[engine.Role]float64{engine.RoleRainmaker: 0.9, engine.RoleCloser: 0.6}),
		roleScore("bo", map[engine.Role]float64{engine.RoleCloser: 0.8, engine.RoleBuilder: 0.5}),
		roleScore("cam", map[engine.Role]float64{engine.RoleOperator: 0.7, engine.RoleConnector: 0.4}),
	}

	assignments := engine.AssignRoles(scores, nil)
	seen := make(map[engine.Role]int)
	for _, a := range assignments {
		seen[a.Primary]++
		if a.Secondary != nil {
			seen[*a.Secondary]++
		}
	}
	for role, n := range seen {
		assert.Equal(t, 1, n, "role %s assigned %d times", role, n)
	}
}

func TestAssignRoles_TieGoesToSmallerPersonID(t *testing.T) {
	scores := []engine.RoleScore{
		roleScore("zed", map[engine.Role]float64{engine.RoleCloser: 0.5}),
		roleScore("ana", map[engine.Role]float64{engine.RoleCloser: 0.5}),
	}

	assignments := engine.AssignRoles(scores, nil)
	require.Len(t, assignments, 1)
	assert.Equal(t, engine.PersonID("ana"), assignments[0].PersonID)
}

func TestAssignRoles_BelowThresholdGetsNothing(t *testing.T) {
	scores := []engine.RoleScore{
		roleScore("ana", map[engine.Role]float64{engine.RoleCloser: 0.29}),
	}

	assignments := engine.AssignRoles(scores, nil)
	assert.Empty(t, assignments)
}
