package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/consortium-engine/engine"
)

// Helpers (d, attRow, soloPair, jointEvent, assertDecimal) live in
// engine_test.go.

// =============================================================================
// TIER BACKOFF
// =============================================================================

func TestEstimateBaselines_SoloTierPreferred(t *testing.T) {
	// GIVEN: ana has two solo events at 100/min and one joint event at a
	//        wildly different rate
	// WHEN:  Estimating baselines with min_events = 2
	// THEN:  The solo tier wins and the joint event never contaminates it

	records := soloPair("ana", "ana", 1000, 10)
	records = append(records, jointEvent("j-1", []string{"ana", "bo"}, 100000, 20)...)

	baselines := engine.EstimateBaselines(records, 2)
	require.Len(t, baselines, 2)

	ana := baselines[0]
	assert.Equal(t, engine.PersonID("ana"), ana.PersonID)
	assert.Equal(t, engine.TierSolo, ana.Source.Tier)
	assertDecimal(t, d(100), ana.RatePerMin, "solo rate")
	assert.Equal(t, 2, ana.SoloEvents)
	assert.Equal(t, 3, ana.TotalEvents)
}

func TestEstimateBaselines_BucketTierWhenSoloThin(t *testing.T) {
	// GIVEN: bo has one solo event (below min_events) but two
	//        CONTRACT_SIGNED events, both joint
	// WHEN:  Estimating baselines with min_events = 2
	// THEN:  The closer bucket provides the rate

	solo := attRow("s-1", "bo", 500, 10, 1)
	solo.EventType = engine.EventDeliveryComplete
	records := []engine.AttributionRecord{solo}
	for _, ev := range []string{"c-1", "c-2"} {
		r := attRow(ev, "bo", 1000, 10, 2)
		r.EventType = engine.EventContractSigned
		records = append(records, r)
		other := attRow(ev, "ana", 1000, 10, 2)
		other.EventType = engine.EventContractSigned
		records = append(records, other)
	}

	baselines := engine.EstimateBaselines(records, 2)
	bo := baselines[1]
	require.Equal(t, engine.PersonID("bo"), bo.PersonID)
	assert.Equal(t, engine.TierRoleBucket, bo.Source.Tier)
	assert.Equal(t, engine.BucketCloser, bo.Source.Bucket)
	assert.Equal(t, 2, bo.BucketEvents)
	// Bucket rate covers only bo's closer slices: 2000 over 20 minutes.
	assertDecimal(t, d(100), bo.RatePerMin, "bucket rate")
}

func TestEstimateBaselines_BucketTieBreaksToHigherRate(t *testing.T) {
	// GIVEN: cam has two CASH_IN events at 50/min and two MRR events at
	//        200/min, no solo events
	// WHEN:  Estimating baselines with min_events = 2
	// THEN:  Equal support ties to the higher-rate bucket (builder)

	var records []engine.AttributionRecord
	add := func(ev string, etype engine.EventType, amount float64) {
		r := attRow(ev, "cam", amount, 10, 2)
		r.EventType = etype
		records = append(records, r)
		other := attRow(ev, "zed", amount, 10, 2)
		other.EventType = etype
		records = append(records, other)
	}
	add("cash-1", engine.EventCashIn, 500)
	add("cash-2", engine.EventCashIn, 500)
	add("mrr-1", engine.EventMRR, 2000)
	add("mrr-2", engine.EventMRR, 2000)

	baselines := engine.EstimateBaselines(records, 2)
	cam := baselines[0]
	require.Equal(t, engine.PersonID("cam"), cam.PersonID)
	assert.Equal(t, engine.TierRoleBucket, cam.Source.Tier)
	assert.Equal(t, engine.BucketBuilder, cam.Source.Bucket)
	assertDecimal(t, d(200), cam.RatePerMin, "builder bucket rate")
}

func TestEstimateBaselines_FallbackAllWhenEverythingThin(t *testing.T) {
	// GIVEN: dee touched one event only
	// WHEN:  Estimating baselines with min_events = 2
	// THEN:  FALLBACK_ALL uses everything dee touched

	records := []engine.AttributionRecord{attRow("only", "dee", 300, 10, 1)}

	baselines := engine.EstimateBaselines(records, 2)
	require.Len(t, baselines, 1)
	assert.Equal(t, engine.TierFallbackAll, baselines[0].Source.Tier)
	assertDecimal(t, d(30), baselines[0].RatePerMin, "fallback rate")
}

func TestEstimateBaselines_ZeroMinutesGetsZeroRate(t *testing.T) {
	// GIVEN: A person credited with amount but zero effective minutes
	// WHEN:  Estimating baselines
	// THEN:  Rate is exactly zero, not infinity

	records := []engine.AttributionRecord{attRow("free", "ana", 5000, 0, 1)}

	baselines := engine.EstimateBaselines(records, 2)
	require.Len(t, baselines, 1)
	assertDecimal(t, decimal.Zero, baselines[0].RatePerMin, "zero-minute rate")
	assert.Equal(t, engine.TierFallbackAll, baselines[0].Source.Tier)
}

func TestEstimateBaselines_OutputSortedByPerson(t *testing.T) {
	records := []engine.AttributionRecord{
		attRow("e-1", "zed", 100, 10, 1),
		attRow("e-2", "ana", 100, 10, 1),
		attRow("e-3", "mia", 100, 10, 1),
	}

	baselines := engine.EstimateBaselines(records, 1)
	require.Len(t, baselines, 3)
	assert.Equal(t, engine.PersonID("ana"), baselines[0].PersonID)
	assert.Equal(t, engine.PersonID("mia"), baselines[1].PersonID)
	assert.Equal(t, engine.PersonID("zed"), baselines[2].PersonID)
}

func TestBaselineSource_StringRoundTrip(t *testing.T) {
	sources := []engine.BaselineSource{
		{Tier: engine.TierSolo},
		{Tier: engine.TierRoleBucket, Bucket: engine.BucketOperator},
		{Tier: engine.TierFallbackAll},
	}
	for _, src := range sources {
		parsed, err := engine.ParseBaselineSource(src.String())
		require.NoError(t, err)
		assert.Equal(t, src, parsed)
	}

	_, err := engine.ParseBaselineSource("VIBES")
	assert.Error(t, err)
}
