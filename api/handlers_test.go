package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/consortium-engine/api"
	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	params := engine.DefaultParams()
	params.Consortium.TeamSize = 2
	params.Consortium.TopK = 3

	eng, err := engine.New(params, nil)
	require.NoError(t, err)

	handler := api.NewHandler(eng, store.NewMemory(), nil)
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func attributionDTO(event, person, amount, minutes string, tagCount int) map[string]interface{} {
	return map[string]interface{}{
		"event_id":            event,
		"date":                "2026-03-02",
		"customer_id":         "acme",
		"project_id":          "alpha",
		"event_type":          "CASH_IN",
		"recommendation_type": "DIRECT",
		"person_id":           person,
		"amount_krw_person":   amount,
		"minutes_person":      minutes,
		"tag_count":           tagCount,
	}
}

// sampleRunRequest mirrors the near-tie scenario the engine tests use:
// ana+bo land a joint event at twice their combined baseline rate.
func sampleRunRequest() map[string]interface{} {
	attributions := []map[string]interface{}{
		attributionDTO("ana-1", "ana", "1000", "10", 1),
		attributionDTO("ana-2", "ana", "1000", "10", 1),
		attributionDTO("bo-1", "bo", "1000", "10", 1),
		attributionDTO("bo-2", "bo", "1000", "10", 1),
		attributionDTO("cam-1", "cam", "3000.1", "10", 1),
		attributionDTO("cam-2", "cam", "3000.1", "10", 1),
		attributionDTO("joint-1", "ana", "4000", "10", 2),
		attributionDTO("joint-1", "bo", "4000", "10", 2),
	}
	return map[string]interface{}{
		"attributions": attributions,
		"burns": []map[string]interface{}{
			{"burn_id": "b-1", "date": "2026-03-03", "person_or_edge": "cam",
				"burn_type": "PREVENTED", "prevented_by": "ana", "prevented_minutes": "30"},
		},
	}
}

func postRun(t *testing.T, srv *httptest.Server, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/runs", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// =============================================================================
// RUN EXECUTION
// =============================================================================

func TestCreateRun(t *testing.T) {
	// GIVEN: A valid run request
	// WHEN:  POSTing it
	// THEN:  201 with the full run document; the synergy tie-break picks
	//        ana+bo over the higher-earning cam

	srv := newTestServer(t)

	resp := postRun(t, srv, sampleRunRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run api.RunDTO
	decode(t, resp, &run)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, []string{"ana", "bo"}, run.Team.Members)
	assert.Equal(t, "12000.5", run.Team.Score)
	assert.Len(t, run.Baselines, 3)
	assert.Equal(t, "18000.2", run.Summary.Mint)
}

func TestCreateRun_BadJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/runs", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRun_MalformedCell(t *testing.T) {
	srv := newTestServer(t)

	req := sampleRunRequest()
	req["attributions"].([]map[string]interface{})[0]["amount_krw_person"] = "a-lot"

	resp := postRun(t, srv, req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRun_DataErrorIs422(t *testing.T) {
	// GIVEN: A structurally valid request with an invalid enum value
	// WHEN:  POSTing it
	// THEN:  422, signalling "fix the input and recompute"

	srv := newTestServer(t)

	req := sampleRunRequest()
	req["attributions"].([]map[string]interface{})[0]["event_type"] = "LOTTERY_WIN"

	resp := postRun(t, srv, req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "event_type")
}

// =============================================================================
// RUN RETRIEVAL
// =============================================================================

func TestGetRun_ByIDAndLatest(t *testing.T) {
	srv := newTestServer(t)

	var created api.RunDTO
	decode(t, postRun(t, srv, sampleRunRequest()), &created)

	for _, path := range []string{"/api/runs/" + created.ID, "/api/runs/latest"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var run api.RunDTO
		decode(t, resp, &run)
		assert.Equal(t, created.ID, run.ID, path)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/runs/no-such-run", "/api/runs/latest"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestListRuns(t *testing.T) {
	srv := newTestServer(t)

	decode(t, postRun(t, srv, sampleRunRequest()), new(api.RunDTO))
	decode(t, postRun(t, srv, sampleRunRequest()), new(api.RunDTO))

	resp, err := http.Get(srv.URL + "/api/runs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var metas []api.RunMetaDTO
	decode(t, resp, &metas)
	require.Len(t, metas, 2)
	assert.Equal(t, "ana+bo", metas[0].TeamMembers)
	assert.Equal(t, "2026-03-02", metas[0].PeriodStart)
}

func TestRunSubresources(t *testing.T) {
	srv := newTestServer(t)
	decode(t, postRun(t, srv, sampleRunRequest()), new(api.RunDTO))

	t.Run("baselines", func(t *testing.T) {
		var baselines []api.BaselineDTO
		getJSON(t, srv, "/api/runs/latest/baselines", &baselines)
		require.Len(t, baselines, 3)
		assert.Equal(t, "ana", baselines[0].PersonID)
		assert.Equal(t, "SOLO", baselines[0].Source)
		assert.Equal(t, "100", baselines[0].BaseRatePerMin)
	})

	t.Run("synergy pairs", func(t *testing.T) {
		var pairs []api.SynergyDTO
		getJSON(t, srv, "/api/runs/latest/synergy/pairs", &pairs)
		require.Len(t, pairs, 1)
		assert.Equal(t, []string{"ana", "bo"}, pairs[0].Members)
		assert.Equal(t, "1", pairs[0].UpliftPerMin)
	})

	t.Run("synergy groups", func(t *testing.T) {
		var groups []api.SynergyDTO
		getJSON(t, srv, "/api/runs/latest/synergy/groups", &groups)
		assert.Empty(t, groups)
	})

	t.Run("roles", func(t *testing.T) {
		var roles struct {
			Scores      []api.RoleScoreDTO      `json:"scores"`
			Assignments []api.RoleAssignmentDTO `json:"assignments"`
		}
		getJSON(t, srv, "/api/runs/latest/roles", &roles)
		require.Len(t, roles.Scores, 3)
		// ana is the only preventer, so the controller share is 1.
		assert.Equal(t, "1", roles.Scores[0].Controller)
	})

	t.Run("team", func(t *testing.T) {
		var team api.TeamDTO
		getJSON(t, srv, "/api/runs/latest/team", &team)
		assert.Equal(t, []string{"ana", "bo"}, team.Members)
		assert.Empty(t, team.Swaps)
	})

	t.Run("summary", func(t *testing.T) {
		var summary api.SummaryDTO
		getJSON(t, srv, "/api/runs/latest/summary", &summary)
		assert.Equal(t, "18000.2", summary.Mint)
		assert.Equal(t, "0", summary.Burn)
	})
}

func getJSON(t *testing.T, srv *httptest.Server, path string, v interface{}) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, path)
	decode(t, resp, v)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_UnknownPathIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(fmt.Sprintf("%s/api/nope", srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
