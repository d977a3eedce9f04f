/*
validate.go - Fail-loud input invariant checks

PURPOSE:
  The engine assumes clean input. ValidateDataset runs before any
  computation and rejects the whole run on the first violated invariant:
  enum values outside their closed sets, negative minutes or amounts,
  tag counts outside 1..3 or disagreeing with the event's row count, and
  inconsistent per-event metadata.

  Degenerate inputs are NOT errors: an empty dataset, a person with zero
  minutes, an event nobody co-tagged - each downstream component defines
  an explicit empty/zero result for those.

SEE ALSO:
  - errors.go: The error types produced here
  - ../ingest: Produces the tables this validates
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ValidateDataset checks every input invariant the pipeline relies on.
// It returns the first violation found, scanning tables in a fixed order
// so the reported error is deterministic.
func ValidateDataset(d *Dataset) error {
	if err := validateAttributions(d.Attributions); err != nil {
		return err
	}
	if err := validateBurns(d.Burns); err != nil {
		return err
	}
	return validateRelationships(d.Relationships)
}

func validateAttributions(records []AttributionRecord) error {
	type eventShape struct {
		row      int // first row seen for the event
		tagCount int
		key      PartitionKey
		etype    EventType
		rows     int
	}
	events := make(map[EventID]*eventShape)

	for i, r := range records {
		if !r.EventType.Valid() {
			return &DataError{Table: "attributions", Row: i, Field: "event_type",
				Reason: ErrUnknownEventType, Detail: string(r.EventType)}
		}
		if !r.Recommendation.Valid() {
			return &DataError{Table: "attributions", Row: i, Field: "recommendation_type",
				Reason: ErrUnknownRecommendation, Detail: string(r.Recommendation)}
		}
		if r.Minutes.IsNegative() {
			return &DataError{Table: "attributions", Row: i, Field: "minutes_person",
				Reason: ErrNegativeMinutes, Detail: r.Minutes.String()}
		}
		if r.Amount.IsNegative() {
			return &DataError{Table: "attributions", Row: i, Field: "amount_krw_person",
				Reason: ErrNegativeAmount, Detail: r.Amount.String()}
		}
		if r.TagCount < 1 || r.TagCount > 3 {
			return &DataError{Table: "attributions", Row: i, Field: "tag_count",
				Reason: ErrBadTagCount, Detail: "must be 1-3"}
		}
		shape, ok := events[r.EventID]
		if !ok {
			events[r.EventID] = &eventShape{
				row: i, tagCount: r.TagCount, key: r.Partition(), etype: r.EventType, rows: 1,
			}
			continue
		}
		shape.rows++
		if shape.tagCount != r.TagCount || shape.key != r.Partition() || shape.etype != r.EventType {
			return &DataError{Table: "attributions", Row: i, Field: "event_id",
				Reason: ErrBadTagCount, Detail: "rows for event " + string(r.EventID) + " disagree"}
		}
	}

	// Every event must have exactly tag_count participant rows.
	ids := make([]EventID, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if s := events[id]; s.rows != s.tagCount {
			return &DataError{Table: "attributions", Row: s.row, Field: "tag_count",
				Reason: ErrBadTagCount, Detail: "event " + string(id) + " has wrong participant count"}
		}
	}
	return nil
}

func validateBurns(records []BurnRecord) error {
	for i, b := range records {
		if !b.Type.Valid() {
			return &DataError{Table: "burns", Row: i, Field: "burn_type",
				Reason: ErrUnknownBurnType, Detail: string(b.Type)}
		}
		if b.LossMinutes.IsNegative() {
			return &DataError{Table: "burns", Row: i, Field: "loss_minutes",
				Reason: ErrNegativeMinutes, Detail: b.LossMinutes.String()}
		}
		if b.PreventedMinutes.IsNegative() {
			return &DataError{Table: "burns", Row: i, Field: "prevented_minutes",
				Reason: ErrNegativeMinutes, Detail: b.PreventedMinutes.String()}
		}
	}
	return nil
}

func validateRelationships(links []RelationshipLink) error {
	one := decimal.NewFromInt(1)
	for i, l := range links {
		if l.Strength.IsNegative() || l.Strength.GreaterThan(one) {
			return &DataError{Table: "relationships", Row: i, Field: "link_strength",
				Reason: ErrLinkStrength, Detail: l.Strength.String()}
		}
	}
	return nil
}

// CheckConservation verifies the round-trip law for one exploded event:
// participant amounts and minutes must sum back to the event totals.
// Used by ingestion after splitting an event across its tagged
// participants, and by tests as the conservation property.
func CheckConservation(eventID EventID, totalAmount, totalMinutes decimal.Decimal, slices []AttributionRecord) error {
	var amount, minutes decimal.Decimal
	for _, s := range slices {
		amount = amount.Add(s.Amount)
		minutes = minutes.Add(s.Minutes)
	}
	if !amount.Equal(totalAmount) {
		return &ConservationError{EventID: eventID, Field: "amount", Expected: totalAmount, Actual: amount}
	}
	if !minutes.Equal(totalMinutes) {
		return &ConservationError{EventID: eventID, Field: "minutes", Expected: totalMinutes, Actual: minutes}
	}
	return nil
}
