/*
synergy.go - Partitioned, revenue-reweighted synergy uplift

PURPOSE:
  Quantifies the extra value a combination of people creates beyond the
  sum of their baseline-predicted contributions.

WHY PARTITIONED:
  Comparing synergy across unrelated customers and projects conflates
  unrelated causal effects. Uplift is therefore computed inside each
  (customer, project) partition first - only collaborations that could
  plausibly interact - and a revenue-weighted rollup then restores one
  cross-project figure without letting a huge but unrepresentative
  project dominate.

ALGORITHM, per partition:
  1. For every exact member set that co-appears on at least one event
     (pairs, and separately groups of size k_min..k_max), sum amounts
     and minutes over events tagged with exactly that set and take the
     observed joint rate.
  2. Predicted rate = sum of member baseline rates.
  3. uplift = (observed - predicted) / predicted, epsilon-guarded; a
     partition whose predicted rate is ~0 is uplift-undefined and is
     excluded rather than producing infinite uplift.

REWEIGHTING:
  Each project's weight is its share of total Mint over the trailing
  4-week window (full history when the window is empty). The exposed
  uplift for a member set is the weight-weighted average across every
  partition where that exact set co-occurred.

OUTPUT:
  Pair and group tables with identical shape except membership arity,
  sorted by descending uplift with a lexicographic member-set tie-break.
  A set with no co-occurrence anywhere is absent, not zero.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SynergyParams bounds the group combinatorics and the reweighting
// window.
type SynergyParams struct {
	KMin       int // smallest group size, default 3
	KMax       int // largest group size, default 4
	WindowDays int // trailing Mint window for project weights, default 28
}

// DefaultSynergyParams returns the standard bounds.
func DefaultSynergyParams() SynergyParams {
	return SynergyParams{KMin: 3, KMax: 4, WindowDays: 28}
}

// SynergyTables is the engine's full synergy output for one period.
type SynergyTables struct {
	Pairs  []SynergyRecord
	Groups []SynergyRecord
}

// Lookup finds the record for an exact member set, if present.
func (t *SynergyTables) Lookup(members MemberSet) (SynergyRecord, bool) {
	var table []SynergyRecord
	if len(members) == 2 {
		table = t.Pairs
	} else {
		table = t.Groups
	}
	key := members.Key()
	for _, rec := range table {
		if rec.Members.Key() == key {
			return rec, true
		}
	}
	return SynergyRecord{}, false
}

// jointEvent is one event collapsed to its participant set and totals.
type jointEvent struct {
	partition PartitionKey
	members   MemberSet
	amount    decimal.Decimal
	minutes   decimal.Decimal
}

// ComputeSynergy builds the pair and group synergy tables from one
// period's attribution records and baselines.
func ComputeSynergy(records []AttributionRecord, baselines []PersonBaseline, params SynergyParams) SynergyTables {
	if params.KMin < 3 {
		params.KMin = 3
	}
	if params.KMax < params.KMin {
		params.KMax = params.KMin
	}
	if params.WindowDays <= 0 {
		params.WindowDays = 28
	}

	events := collapseEvents(records)
	weights := projectWeights(records, params.WindowDays)

	rates := make(map[PersonID]decimal.Decimal, len(baselines))
	for _, b := range baselines {
		rates[b.PersonID] = b.RatePerMin
	}

	// Partition-local accumulation keyed by (partition, exact member set).
	type cellKey struct {
		partition PartitionKey
		members   string
	}
	type cell struct {
		partition PartitionKey
		members   MemberSet
		amount    decimal.Decimal
		minutes   decimal.Decimal
	}
	cells := make(map[cellKey]*cell)

	for _, ev := range events {
		n := len(ev.members)
		isPair := n == 2
		isGroup := n >= params.KMin && n <= params.KMax
		if !isPair && !isGroup {
			continue
		}
		key := cellKey{partition: ev.partition, members: ev.members.Key()}
		c, ok := cells[key]
		if !ok {
			c = &cell{partition: ev.partition, members: ev.members}
			cells[key] = c
		}
		c.amount = c.amount.Add(ev.amount)
		c.minutes = c.minutes.Add(ev.minutes)
	}

	// Roll partition-local uplifts up into final records.
	type rollup struct {
		members     MemberSet
		weightedSum decimal.Decimal
		weightSum   decimal.Decimal
		uplifts     []decimal.Decimal // unweighted fallback
		partitions  []PartitionKey
	}
	rollups := make(map[string]*rollup)

	for _, c := range cells {
		predicted := decimal.Zero
		for _, p := range c.members {
			predicted = predicted.Add(rates[p])
		}
		// Uplift-undefined partitions are excluded from aggregation.
		if nearZero(predicted) {
			continue
		}
		observed := safeDiv(c.amount, c.minutes)
		uplift := observed.Sub(predicted).Div(predicted)

		w := weights[c.partition.Project]
		key := c.members.Key()
		r, ok := rollups[key]
		if !ok {
			r = &rollup{members: c.members}
			rollups[key] = r
		}
		r.weightedSum = r.weightedSum.Add(uplift.Mul(w))
		r.weightSum = r.weightSum.Add(w)
		r.uplifts = append(r.uplifts, uplift)
		r.partitions = append(r.partitions, c.partition)
	}

	var tables SynergyTables
	for _, r := range rollups {
		final := safeDiv(r.weightedSum, r.weightSum)
		if nearZero(r.weightSum) {
			// Every contributing project carried zero recent Mint;
			// degrade to the unweighted mean rather than dropping the set.
			sum := decimal.Zero
			for _, u := range r.uplifts {
				sum = sum.Add(u)
			}
			final = safeDiv(sum, decimal.NewFromInt(int64(len(r.uplifts))))
		}
		sort.Slice(r.partitions, func(i, j int) bool {
			a, b := r.partitions[i], r.partitions[j]
			if a.Customer != b.Customer {
				return a.Customer < b.Customer
			}
			return a.Project < b.Project
		})
		rec := SynergyRecord{Members: r.members, Uplift: final, Partitions: r.partitions}
		if len(r.members) == 2 {
			tables.Pairs = append(tables.Pairs, rec)
		} else {
			tables.Groups = append(tables.Groups, rec)
		}
	}

	sortSynergy(tables.Pairs)
	sortSynergy(tables.Groups)
	return tables
}

// sortSynergy orders a table by descending uplift, ties broken by the
// lexicographically smaller member set for stable output.
func sortSynergy(records []SynergyRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Uplift.Equal(records[j].Uplift) {
			return records[i].Uplift.GreaterThan(records[j].Uplift)
		}
		return records[i].Members.Less(records[j].Members)
	})
}

// TopSynergy returns the n highest-uplift records of a table.
func TopSynergy(records []SynergyRecord, n int) []SynergyRecord {
	if n > len(records) {
		n = len(records)
	}
	return records[:n]
}

// NegativeSynergy returns records with uplift below zero, worst first.
func NegativeSynergy(records []SynergyRecord) []SynergyRecord {
	var out []SynergyRecord
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Uplift.IsNegative() {
			out = append(out, records[i])
		}
	}
	return out
}

// collapseEvents rebuilds per-event participant sets and totals from
// the exploded attribution rows.
func collapseEvents(records []AttributionRecord) []jointEvent {
	byEvent := make(map[EventID]*jointEvent)
	members := make(map[EventID][]PersonID)
	order := make([]EventID, 0)

	for _, r := range records {
		ev, ok := byEvent[r.EventID]
		if !ok {
			ev = &jointEvent{partition: r.Partition()}
			byEvent[r.EventID] = ev
			order = append(order, r.EventID)
		}
		ev.amount = ev.amount.Add(r.Amount)
		ev.minutes = ev.minutes.Add(r.Minutes)
		members[r.EventID] = append(members[r.EventID], r.PersonID)
	}

	out := make([]jointEvent, 0, len(order))
	for _, id := range order {
		ev := byEvent[id]
		ev.members = NewMemberSet(members[id]...)
		out = append(out, *ev)
	}
	return out
}

// projectWeights computes each project's share of Mint over the
// trailing window ending at the newest record date. Falls back to full
// history when the window holds no Mint.
func projectWeights(records []AttributionRecord, windowDays int) map[ProjectID]decimal.Decimal {
	weights := make(map[ProjectID]decimal.Decimal)
	if len(records) == 0 {
		return weights
	}

	end := records[0].Date
	for _, r := range records {
		if r.Date.After(end) {
			end = r.Date
		}
	}
	start := end.AddDays(-(windowDays - 1))

	perProject := make(map[ProjectID]decimal.Decimal)
	total := decimal.Zero
	for _, r := range records {
		if r.Date.AfterOrEqual(start) && r.Date.BeforeOrEqual(end) {
			perProject[r.ProjectID] = perProject[r.ProjectID].Add(r.Amount)
			total = total.Add(r.Amount)
		}
	}

	if nearZero(total) {
		// Empty trailing window: weight on full history instead.
		perProject = make(map[ProjectID]decimal.Decimal)
		total = decimal.Zero
		for _, r := range records {
			perProject[r.ProjectID] = perProject[r.ProjectID].Add(r.Amount)
			total = total.Add(r.Amount)
		}
	}

	for project, mint := range perProject {
		weights[project] = safeDiv(mint, total)
	}
	return weights
}
