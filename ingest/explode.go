/*
explode.go - Splitting a raw event across its tagged participants

PURPOSE:
  Raw event logs carry one row per event with up to three tagged
  participants. The engine wants one AttributionRecord per (event,
  person). ExplodeEvent performs that split and preserves the
  conservation law exactly: the last participant absorbs the rounding
  remainder so slices always sum back to the event totals.
*/
package ingest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/consortium-engine/engine"
)

// RawEvent is one monetizable event before attribution.
type RawEvent struct {
	EventID        engine.EventID
	Date           engine.TimePoint
	CustomerID     engine.CustomerID
	ProjectID      engine.ProjectID
	EventType      engine.EventType
	Recommendation engine.RecommendationType
	TotalAmount    decimal.Decimal
	TotalMinutes   decimal.Decimal
	Participants   []engine.PersonID // 1-3 tagged people
}

// ExplodeEvent splits a raw event evenly across its participants. The
// result satisfies engine.CheckConservation by construction.
func ExplodeEvent(ev RawEvent) ([]engine.AttributionRecord, error) {
	n := len(ev.Participants)
	if n < 1 || n > 3 {
		return nil, fmt.Errorf("event %s: %d participants, want 1-3", ev.EventID, n)
	}

	count := decimal.NewFromInt(int64(n))
	amountShare := ev.TotalAmount.Div(count).Round(4)
	minuteShare := ev.TotalMinutes.Div(count).Round(4)

	out := make([]engine.AttributionRecord, 0, n)
	for i, p := range ev.Participants {
		rec := engine.AttributionRecord{
			EventID:        ev.EventID,
			Date:           ev.Date,
			CustomerID:     ev.CustomerID,
			ProjectID:      ev.ProjectID,
			EventType:      ev.EventType,
			Recommendation: ev.Recommendation,
			PersonID:       p,
			Amount:         amountShare,
			Minutes:        minuteShare,
			TagCount:       n,
		}
		if i == n-1 {
			// Last slice absorbs rounding so totals reproduce exactly.
			used := amountShare.Mul(decimal.NewFromInt(int64(n - 1)))
			rec.Amount = ev.TotalAmount.Sub(used)
			usedMin := minuteShare.Mul(decimal.NewFromInt(int64(n - 1)))
			rec.Minutes = ev.TotalMinutes.Sub(usedMin)
		}
		out = append(out, rec)
	}

	if err := engine.CheckConservation(ev.EventID, ev.TotalAmount, ev.TotalMinutes, out); err != nil {
		return nil, err
	}
	return out, nil
}
