/*
roles.go - Six-way role scoring and conflict-resolved assignment

PURPOSE:
  Scores each person's affinity to six archetypal roles and awards at
  most two roles per person, with no role ever duplicated across people.

SCORES (each = category value / person's total value, except controller):
  rainmaker   Value from events in the top 30% of event amounts. The
              boundary is the inclusive 0.70 quantile of distinct event
              totals (amount >= threshold qualifies).
  closer      CONTRACT_SIGNED + CASH_IN value share.
  operator    DELIVERY_COMPLETE + INVOICE_ISSUED value share.
  builder     MRR + COST_SAVED value share.
  connector   Value share of INDIRECT_DRIVEN / MIXED sourced events.
  controller  Share of GLOBAL prevented/fixed minutes: PREVENTED and
              FIXED burns with prevented_minutes > 0 and a named
              prevented_by, grouped by preventer. Sums to 1 across
              people whenever any such record exists, else all zero.

ASSIGNMENT:
  Per role, the single highest-scoring qualifier above the role's
  threshold wins (ties to the smaller person id). Awards are then
  processed in descending score order; a person already holding two
  roles is skipped and that role goes unassigned for the period - it is
  NOT reassigned to the next candidate.

  Role scoring feeds reporting and team-composition analysis only; the
  optimizer's objective never sees it.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RainmakerQuantile is the amount-distribution cut that defines a
// "large" event: the top 30% boundary.
const RainmakerQuantile = 0.70

// DefaultRoleThresholds returns the qualification threshold per role.
// Controller sits lower because prevented minutes spread across more
// people than value does.
func DefaultRoleThresholds() map[Role]decimal.Decimal {
	t := decimal.NewFromFloat(0.30)
	return map[Role]decimal.Decimal{
		RoleRainmaker:  t,
		RoleCloser:     t,
		RoleOperator:   t,
		RoleBuilder:    t,
		RoleConnector:  t,
		RoleController: decimal.NewFromFloat(0.15),
	}
}

// ScoreRoles computes the six role-affinity ratios for every person in
// the attribution records, plus anyone credited with preventing burn.
func ScoreRoles(records []AttributionRecord, burns []BurnRecord) []RoleScore {
	// Distinct event totals for the rainmaker boundary.
	eventTotals := make(map[EventID]decimal.Decimal)
	for _, r := range records {
		eventTotals[r.EventID] = eventTotals[r.EventID].Add(r.Amount)
	}
	totals := make([]decimal.Decimal, 0, len(eventTotals))
	for _, t := range eventTotals {
		totals = append(totals, t)
	}
	threshold := Quantile(totals, RainmakerQuantile)

	type valueAccum struct {
		total     decimal.Decimal
		rainmaker decimal.Decimal
		closer    decimal.Decimal
		operator  decimal.Decimal
		builder   decimal.Decimal
		connector decimal.Decimal
	}
	values := make(map[PersonID]*valueAccum)
	accum := func(p PersonID) *valueAccum {
		va, ok := values[p]
		if !ok {
			va = &valueAccum{}
			values[p] = va
		}
		return va
	}

	for _, r := range records {
		va := accum(r.PersonID)
		va.total = va.total.Add(r.Amount)
		if len(eventTotals) > 0 && eventTotals[r.EventID].GreaterThanOrEqual(threshold) {
			va.rainmaker = va.rainmaker.Add(r.Amount)
		}
		switch r.EventType {
		case EventContractSigned, EventCashIn:
			va.closer = va.closer.Add(r.Amount)
		case EventDeliveryComplete, EventInvoiceIssued:
			va.operator = va.operator.Add(r.Amount)
		case EventMRR, EventCostSaved:
			va.builder = va.builder.Add(r.Amount)
		}
		if r.Recommendation == RecommendationIndirect || r.Recommendation == RecommendationMixed {
			va.connector = va.connector.Add(r.Amount)
		}
	}

	// Controller: global prevented-minutes share.
	prevented := make(map[PersonID]decimal.Decimal)
	globalPrevented := decimal.Zero
	for _, b := range burns {
		if b.Type.IsLoss() || b.PreventedBy == "" || !b.PreventedMinutes.IsPositive() {
			continue
		}
		prevented[b.PreventedBy] = prevented[b.PreventedBy].Add(b.PreventedMinutes)
		globalPrevented = globalPrevented.Add(b.PreventedMinutes)
	}

	people := make(map[PersonID]bool, len(values))
	for p := range values {
		people[p] = true
	}
	for p := range prevented {
		people[p] = true
	}
	ids := make([]PersonID, 0, len(people))
	for p := range people {
		ids = append(ids, p)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]RoleScore, 0, len(ids))
	for _, p := range ids {
		score := RoleScore{PersonID: p}
		if va := values[p]; va != nil {
			score.Rainmaker = safeDiv(va.rainmaker, va.total)
			score.Closer = safeDiv(va.closer, va.total)
			score.Operator = safeDiv(va.operator, va.total)
			score.Builder = safeDiv(va.builder, va.total)
			score.Connector = safeDiv(va.connector, va.total)
		}
		score.Controller = safeDiv(prevented[p], globalPrevented)
		out = append(out, score)
	}
	return out
}

// roleAward is one role's winning (person, score) before conflict
// resolution.
type roleAward struct {
	role   Role
	person PersonID
	score  decimal.Decimal
}

// AssignRoles resolves the per-role winners into at most two roles per
// person. An unfilled or conflicted-away role stays unassigned for the
// period. Output is sorted by person id.
func AssignRoles(scores []RoleScore, thresholds map[Role]decimal.Decimal) []RoleAssignment {
	if thresholds == nil {
		thresholds = DefaultRoleThresholds()
	}

	var awards []roleAward
	for _, role := range Roles() {
		min := thresholds[role]
		var winner *roleAward
		for _, s := range scores {
			v := s.Score(role)
			if v.LessThan(min) {
				continue
			}
			if winner == nil ||
				v.GreaterThan(winner.score) ||
				(v.Equal(winner.score) && s.PersonID < winner.person) {
				winner = &roleAward{role: role, person: s.PersonID, score: v}
			}
		}
		if winner != nil {
			awards = append(awards, *winner)
		}
	}

	// Highest score first; ties keep role declaration order (awards are
	// built in that order, and the sort is stable).
	sort.SliceStable(awards, func(i, j int) bool {
		return awards[i].score.GreaterThan(awards[j].score)
	})

	held := make(map[PersonID][]Role)
	for _, a := range awards {
		if len(held[a.person]) >= 2 {
			continue // role goes unassigned this period
		}
		held[a.person] = append(held[a.person], a.role)
	}

	ids := make([]PersonID, 0, len(held))
	for p := range held {
		ids = append(ids, p)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]RoleAssignment, 0, len(ids))
	for _, p := range ids {
		roles := held[p]
		a := RoleAssignment{PersonID: p, Primary: roles[0]}
		if len(roles) > 1 {
			secondary := roles[1]
			a.Secondary = &secondary
		}
		out = append(out, a)
	}
	return out
}
