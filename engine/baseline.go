/*
baseline.go - Tiered per-person earning-rate estimation

PURPOSE:
  Estimates each person's "fair" value-per-minute rate, the synergy-free
  reference point every uplift is measured against.

BACKOFF POLICY (evaluated per person, in priority order):
  1. SOLO         Events the person carried alone (tag_count == 1).
                  Preferred: no collaboration effect can contaminate it.
  2. ROLE_BUCKET  Too few solo events? Fall back to the person's rate
                  inside one coarse event-type bucket - the bucket with
                  the most supporting events wins, ties to the higher
                  rate, then fixed bucket order.
  3. FALLBACK_ALL Still too thin? Use everything the person touched.

DETERMINISM:
  Every tie-break is a total order (event count, then rate, then the
  fixed bucket declaration order; output sorted by person id) so re-runs
  on identical input are byte-identical.

EDGE CASES:
  A person with zero total minutes gets rate 0 with source FALLBACK_ALL.
  All divisions are epsilon-guarded; rates are never negative because
  validated inputs have non-negative amounts and minutes.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// rateAccum accumulates an amount/minutes ratio with its event support.
type rateAccum struct {
	amount  decimal.Decimal
	minutes decimal.Decimal
	events  int
}

func (a *rateAccum) add(r AttributionRecord) {
	a.amount = a.amount.Add(r.Amount)
	a.minutes = a.minutes.Add(r.Minutes)
	a.events++
}

func (a *rateAccum) rate() decimal.Decimal {
	return safeDiv(a.amount, a.minutes)
}

// personAccum collects one person's records across the three tiers.
type personAccum struct {
	all     rateAccum
	solo    rateAccum
	buckets map[RoleBucket]*rateAccum
}

// EstimateBaselines computes one baseline row for every person that
// appears in any attribution record. minEvents is the support threshold
// a tier needs before it is trusted.
func EstimateBaselines(records []AttributionRecord, minEvents int) []PersonBaseline {
	if minEvents < 1 {
		minEvents = 1
	}

	people := make(map[PersonID]*personAccum)

	for _, r := range records {
		pa, ok := people[r.PersonID]
		if !ok {
			pa = &personAccum{buckets: make(map[RoleBucket]*rateAccum)}
			people[r.PersonID] = pa
		}
		pa.all.add(r)
		if r.TagCount == 1 {
			pa.solo.add(r)
		}
		if bucket, mapped := BucketFor(r.EventType); mapped {
			ba, ok := pa.buckets[bucket]
			if !ok {
				ba = &rateAccum{}
				pa.buckets[bucket] = ba
			}
			ba.add(r)
		}
	}

	ids := make([]PersonID, 0, len(people))
	for id := range people {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]PersonBaseline, 0, len(ids))
	for _, id := range ids {
		out = append(out, estimateOne(id, people[id], minEvents))
	}
	return out
}

func estimateOne(id PersonID, pa *personAccum, minEvents int) PersonBaseline {
	b := PersonBaseline{
		PersonID:    id,
		SoloEvents:  pa.solo.events,
		TotalEvents: pa.all.events,
	}

	// Zero total minutes: nothing to estimate from.
	if nearZero(pa.all.minutes) {
		b.RatePerMin = decimal.Zero
		b.Source = BaselineSource{Tier: TierFallbackAll}
		return b
	}

	// Tier 1: SOLO.
	if pa.solo.events >= minEvents {
		b.RatePerMin = pa.solo.rate()
		b.Source = BaselineSource{Tier: TierSolo}
		return b
	}

	// Tier 2: ROLE_BUCKET. Most supporting events wins; ties to the
	// higher rate, then to the fixed bucket declaration order.
	var best *rateAccum
	var bestBucket RoleBucket
	for _, bucket := range RoleBuckets() {
		ba := pa.buckets[bucket]
		if ba == nil || ba.events < minEvents {
			continue
		}
		if best == nil ||
			ba.events > best.events ||
			(ba.events == best.events && ba.rate().GreaterThan(best.rate())) {
			best = ba
			bestBucket = bucket
		}
	}
	if best != nil {
		b.RatePerMin = best.rate()
		b.Source = BaselineSource{Tier: TierRoleBucket, Bucket: bestBucket}
		b.BucketEvents = best.events
		return b
	}

	// Tier 3: FALLBACK_ALL.
	b.RatePerMin = pa.all.rate()
	b.Source = BaselineSource{Tier: TierFallbackAll}
	return b
}
