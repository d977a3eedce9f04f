/*
graph.go - Indirect-contribution adjustment over the relationship graph

PURPOSE:
  People create value through others: an introduction or an internal
  referral shows up as someone else's event. The optional relationship
  graph (directed links with a strength in [0, 1]) lets the optimizer
  credit a slice of a neighbor's direct value back to the connector.

PROPAGATION RULE:
  For person p, a node q reached over d hops through links with
  strengths s1..sd contributes

      lambda_decay^d * s1*...*sd * direct(q)

  to p's indirect score. Each node is credited once, at the shallowest
  depth it is reached; among equal-depth paths the strongest product
  wins. The walk is capped at maxIndirectDepth hops.

  The adjusted total (direct + indirect) feeds ONLY the optimizer's
  candidate ranking. Baselines, synergy, and role scores never see it.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// maxIndirectDepth caps the relationship walk.
const maxIndirectDepth = 3

// ComputePersonScores builds the optimizer's per-person scores: direct
// period value plus the decayed indirect contribution. With no links or
// a zero lambda the indirect term is zero and ranking degrades to pure
// direct value. Output is sorted by descending total, ties to the
// smaller person id.
func ComputePersonScores(records []AttributionRecord, links []RelationshipLink, lambda decimal.Decimal) []PersonScore {
	direct := make(map[PersonID]decimal.Decimal)
	for _, r := range records {
		direct[r.PersonID] = direct[r.PersonID].Add(r.Amount)
	}

	outgoing := make(map[PersonID][]RelationshipLink)
	for _, l := range links {
		outgoing[l.From] = append(outgoing[l.From], l)
	}

	ids := make([]PersonID, 0, len(direct))
	for p := range direct {
		ids = append(ids, p)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]PersonScore, 0, len(ids))
	for _, p := range ids {
		indirect := indirectValue(p, direct, outgoing, lambda)
		score := PersonScore{
			PersonID: p,
			Direct:   direct[p],
			Indirect: indirect,
		}
		score.Total = score.Direct.Add(score.Indirect)
		out = append(out, score)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].PersonID < out[j].PersonID
	})
	return out
}

// indirectValue runs the bounded decayed walk from p.
func indirectValue(p PersonID, direct map[PersonID]decimal.Decimal, outgoing map[PersonID][]RelationshipLink, lambda decimal.Decimal) decimal.Decimal {
	if nearZero(lambda) || len(outgoing) == 0 {
		return decimal.Zero
	}

	visited := map[PersonID]bool{p: true}
	frontier := map[PersonID]decimal.Decimal{p: decimal.NewFromInt(1)}
	decay := lambda
	total := decimal.Zero

	for depth := 1; depth <= maxIndirectDepth && len(frontier) > 0; depth++ {
		next := make(map[PersonID]decimal.Decimal)
		for node, weight := range frontier {
			for _, link := range outgoing[node] {
				if visited[link.To] {
					continue
				}
				candidate := weight.Mul(link.Strength)
				if prev, ok := next[link.To]; !ok || candidate.GreaterThan(prev) {
					next[link.To] = candidate
				}
			}
		}
		for node, weight := range next {
			visited[node] = true
			total = total.Add(decay.Mul(weight).Mul(direct[node]))
		}
		frontier = next
		decay = decay.Mul(lambda)
	}
	return total
}
