package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/store"
	"github.com/warp/consortium-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func fullRun(id string, createdAt time.Time) *store.Run {
	d := decimal.NewFromFloat
	secondary := engine.RoleCloser
	return &store.Run{
		ID:        id,
		CreatedAt: createdAt,
		Result: &engine.Result{
			Summary: engine.PeriodSummary{
				Period: engine.Period{
					Start: engine.NewTimePoint(2026, time.March, 2),
					End:   engine.NewTimePoint(2026, time.March, 8),
				},
				Mint: d(15000),
				Burn: d(1300),
				Net:  d(13700),
			},
			Baselines: []engine.PersonBaseline{
				{PersonID: "ana", RatePerMin: d(100), Source: engine.BaselineSource{Tier: engine.TierSolo}, SoloEvents: 2, TotalEvents: 3},
				{PersonID: "bo", RatePerMin: d(80), Source: engine.BaselineSource{Tier: engine.TierRoleBucket, Bucket: engine.BucketCloser}, BucketEvents: 2, TotalEvents: 2},
			},
			Synergy: engine.SynergyTables{
				Pairs: []engine.SynergyRecord{{
					Members:    engine.NewMemberSet("ana", "bo"),
					Uplift:     d(0.8),
					Partitions: []engine.PartitionKey{{Customer: "acme", Project: "alpha"}},
				}},
				Groups: []engine.SynergyRecord{{
					Members: engine.NewMemberSet("ana", "bo", "cam"),
					Uplift:  d(0.4),
				}},
			},
			RoleScores: []engine.RoleScore{
				{PersonID: "ana", Rainmaker: d(0.9), Closer: d(0.4)},
			},
			Assignments: []engine.RoleAssignment{
				{PersonID: "ana", Primary: engine.RoleRainmaker, Secondary: &secondary},
			},
			Team: engine.Team{Members: engine.NewMemberSet("ana", "bo"), Score: d(12000.5)},
		},
	}
}

func TestSQLite_SaveAndGetRoundTrip(t *testing.T) {
	// GIVEN: A fully populated run
	// WHEN:  Saving and reloading it
	// THEN:  The result document survives intact

	st := newTestStore(t)
	ctx := context.Background()

	run := fullRun("run-1", time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC))
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.Result.Summary.Mint.Equal(decimal.NewFromInt(15000)))
	require.Len(t, got.Result.Baselines, 2)
	assert.Equal(t, engine.TierRoleBucket, got.Result.Baselines[1].Source.Tier)
	require.Len(t, got.Result.Synergy.Pairs, 1)
	assert.True(t, got.Result.Synergy.Pairs[0].Uplift.Equal(decimal.NewFromFloat(0.8)))
	assert.Equal(t, "ana+bo", got.Result.Team.Members.Key())
	require.Len(t, got.Result.Assignments, 1)
	require.NotNil(t, got.Result.Assignments[0].Secondary)
	assert.Equal(t, engine.RoleCloser, *got.Result.Assignments[0].Secondary)
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRun(context.Background(), "run-404")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestSQLite_RunsAreAppendOnly(t *testing.T) {
	// GIVEN: A run already saved
	// WHEN:  Saving another run with the same id
	// THEN:  The insert fails; recomputations get new ids instead

	st := newTestStore(t)
	ctx := context.Background()

	run := fullRun("run-1", time.Now().UTC())
	require.NoError(t, st.SaveRun(ctx, run))
	assert.Error(t, st.SaveRun(ctx, run))
}

func TestSQLite_LatestRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.LatestRun(ctx)
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	base := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRun(ctx, fullRun("run-1", base)))
	require.NoError(t, st.SaveRun(ctx, fullRun("run-2", base.Add(time.Hour))))

	latest, err := st.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)
}

func TestSQLite_ListRunsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRun(ctx, fullRun("run-1", base)))
	require.NoError(t, st.SaveRun(ctx, fullRun("run-2", base.Add(time.Hour))))

	metas, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "run-2", metas[0].ID)
	assert.Equal(t, "2026-03-02", metas[0].PeriodStart)
	assert.Equal(t, "2026-03-08", metas[0].PeriodEnd)
	assert.Equal(t, "ana+bo", metas[0].TeamMembers)
	assert.Equal(t, "12000.5", metas[0].TeamScore)
}

func TestSQLite_SaveIsAtomic(t *testing.T) {
	// GIVEN: A run whose structured rows would violate a constraint
	//        (duplicate baseline person)
	// WHEN:  Saving fails partway
	// THEN:  Nothing of the run is visible afterwards

	st := newTestStore(t)
	ctx := context.Background()

	run := fullRun("run-1", time.Now().UTC())
	run.Result.Baselines = append(run.Result.Baselines, run.Result.Baselines[0])
	require.Error(t, st.SaveRun(ctx, run))

	_, err := st.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}
