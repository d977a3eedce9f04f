package ingest_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/ingest"
)

func rawEvent(people []engine.PersonID, amount, minutes string) ingest.RawEvent {
	a, _ := decimal.NewFromString(amount)
	m, _ := decimal.NewFromString(minutes)
	return ingest.RawEvent{
		EventID:        "ev-1",
		Date:           engine.NewTimePoint(2026, time.March, 2),
		CustomerID:     "acme",
		ProjectID:      "alpha",
		EventType:      engine.EventCashIn,
		Recommendation: engine.RecommendationDirect,
		TotalAmount:    a,
		TotalMinutes:   m,
		Participants:   people,
	}
}

func TestExplodeEvent_EvenSplit(t *testing.T) {
	// GIVEN: A 3000/30 event with two participants
	// WHEN:  Exploding
	// THEN:  Each slice carries exactly half

	slices, err := ingest.ExplodeEvent(rawEvent([]engine.PersonID{"ana", "bo"}, "3000", "30"))
	require.NoError(t, err)
	require.Len(t, slices, 2)
	assert.True(t, slices[0].Amount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, slices[1].Amount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, slices[0].Minutes.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 2, slices[0].TagCount)
}

func TestExplodeEvent_LastSliceAbsorbsRounding(t *testing.T) {
	// GIVEN: An amount that does not divide evenly by three
	// WHEN:  Exploding
	// THEN:  The slices still sum back to the totals exactly

	ev := rawEvent([]engine.PersonID{"ana", "bo", "cam"}, "100", "10")
	slices, err := ingest.ExplodeEvent(ev)
	require.NoError(t, err)
	require.Len(t, slices, 3)

	assert.NoError(t, engine.CheckConservation(ev.EventID, ev.TotalAmount, ev.TotalMinutes, slices))
	// 100/3 rounds to 33.3333; the last slice picks up the 0.0001 * 2.
	assert.True(t, slices[0].Amount.Equal(decimal.RequireFromString("33.3333")))
	assert.True(t, slices[2].Amount.Equal(decimal.RequireFromString("33.3334")))
}

func TestExplodeEvent_RejectsBadParticipantCount(t *testing.T) {
	_, err := ingest.ExplodeEvent(rawEvent(nil, "100", "10"))
	assert.Error(t, err)

	four := []engine.PersonID{"ana", "bo", "cam", "dee"}
	_, err = ingest.ExplodeEvent(rawEvent(four, "100", "10"))
	assert.Error(t, err)
}

func TestExplodeEvent_OutputPassesValidation(t *testing.T) {
	slices, err := ingest.ExplodeEvent(rawEvent([]engine.PersonID{"ana", "bo", "cam"}, "9999.99", "77"))
	require.NoError(t, err)
	assert.NoError(t, engine.ValidateDataset(&engine.Dataset{Attributions: slices}))
}
