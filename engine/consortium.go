/*
consortium.go - Bounded search for the best-scoring team

PURPOSE:
  Picks the fixed-size team ("consortium") maximizing a combined score
  of individual value, pairwise synergy, and group synergy, net of the
  period's total Burn.

SCORING, per candidate team:

  score = sum(member individual totals)
        + group_weight       * sum(maximal contained group uplifts)
        + (1 - group_weight) * sum(all in-team pair uplifts)
        - burn_penalty

  Burn is identical for every candidate, so it shifts the reported score
  without changing the winner; keeping it in makes scores comparable to
  the period's Net. When a size-4 group and its size-3 subsets all have
  synergy records inside a team, only the maximal member set counts -
  nested subsets would double-count the same collaboration.

SEARCH:
  Candidates are pre-ranked by individual score and truncated to top_k,
  then every size-team_size subset is enumerated with an explicit
  index-combination generator (C(12, 4) = 495 - brute force is fine at
  this scale, no pruning). Ties go to the lexicographically smallest
  member set.

DEGRADATION:
  Fewer than team_size candidates => empty team, score 0. No synergy
  data => ranking by pure individual score.

ANALYSIS (descriptive only):
  Role coverage across the six roles, and greedy 1-swap improvements
  over the remaining candidate pool. Neither feeds the objective.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ConsortiumParams bounds the team search.
type ConsortiumParams struct {
	TeamSize    int
	TopK        int             // candidate pool cap, e.g. 12
	GroupWeight decimal.Decimal // [0, 1] blend of group vs pair synergy
	KMin        int             // group arity bounds, mirror SynergyParams
	KMax        int
}

// DefaultConsortiumParams returns the standard search bounds.
func DefaultConsortiumParams() ConsortiumParams {
	return ConsortiumParams{
		TeamSize:    4,
		TopK:        12,
		GroupWeight: decimal.NewFromFloat(0.5),
		KMin:        3,
		KMax:        4,
	}
}

// teamScorer caches synergy lookups for repeated team evaluations.
type teamScorer struct {
	totals      map[PersonID]decimal.Decimal
	pairs       map[string]decimal.Decimal
	groups      map[string]decimal.Decimal
	groupWeight decimal.Decimal
	pairWeight  decimal.Decimal
	burn        decimal.Decimal
	kMin, kMax  int
}

func newTeamScorer(scores []PersonScore, synergy SynergyTables, burnPenalty decimal.Decimal, params ConsortiumParams) *teamScorer {
	s := &teamScorer{
		totals:      make(map[PersonID]decimal.Decimal, len(scores)),
		pairs:       make(map[string]decimal.Decimal, len(synergy.Pairs)),
		groups:      make(map[string]decimal.Decimal, len(synergy.Groups)),
		groupWeight: params.GroupWeight,
		pairWeight:  decimal.NewFromInt(1).Sub(params.GroupWeight),
		burn:        burnPenalty,
		kMin:        params.KMin,
		kMax:        params.KMax,
	}
	for _, sc := range scores {
		s.totals[sc.PersonID] = sc.Total
	}
	for _, rec := range synergy.Pairs {
		s.pairs[rec.Members.Key()] = rec.Uplift
	}
	for _, rec := range synergy.Groups {
		s.groups[rec.Members.Key()] = rec.Uplift
	}
	return s
}

func (s *teamScorer) score(members MemberSet) decimal.Decimal {
	total := decimal.Zero
	for _, p := range members {
		total = total.Add(s.totals[p])
	}

	pairSum := decimal.Zero
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			pair := MemberSet{members[i], members[j]}
			if uplift, ok := s.pairs[pair.Key()]; ok {
				pairSum = pairSum.Add(uplift)
			}
		}
	}

	groupSum := decimal.Zero
	for _, g := range s.maximalGroups(members) {
		groupSum = groupSum.Add(s.groups[g.Key()])
	}

	return total.
		Add(s.groupWeight.Mul(groupSum)).
		Add(s.pairWeight.Mul(pairSum)).
		Sub(s.burn)
}

// maximalGroups returns the in-team member sets with a group synergy
// record, largest arity first, skipping any set fully contained in an
// already-kept one. This is what prevents a size-4 group and its size-3
// subsets from all counting at once.
func (s *teamScorer) maximalGroups(members MemberSet) []MemberSet {
	var kept []MemberSet
	for size := s.kMax; size >= s.kMin; size-- {
		if size > len(members) {
			continue
		}
		forEachCombination(len(members), size, func(idx []int) {
			subset := make(MemberSet, size)
			for i, j := range idx {
				subset[i] = members[j]
			}
			if _, ok := s.groups[subset.Key()]; !ok {
				return
			}
			for _, outer := range kept {
				if subset.SubsetOf(outer) {
					return
				}
			}
			kept = append(kept, subset)
		})
	}
	return kept
}

// OptimizeConsortium returns the best-scoring team of exactly
// params.TeamSize people from the top-params.TopK candidates, plus its
// score. Returns an empty team when the pool is too small.
func OptimizeConsortium(scores []PersonScore, synergy SynergyTables, burnPenalty decimal.Decimal, params ConsortiumParams) Team {
	pool := candidatePool(scores, params.TopK)
	if params.TeamSize <= 0 || len(pool) < params.TeamSize {
		return Team{Score: decimal.Zero}
	}

	scorer := newTeamScorer(scores, synergy, burnPenalty, params)

	var best Team
	found := false
	forEachCombination(len(pool), params.TeamSize, func(idx []int) {
		candidates := make([]PersonID, params.TeamSize)
		for i, j := range idx {
			candidates[i] = pool[j]
		}
		members := NewMemberSet(candidates...)
		score := scorer.score(members)
		if !found ||
			score.GreaterThan(best.Score) ||
			(score.Equal(best.Score) && members.Less(best.Members)) {
			best = Team{Members: members, Score: score}
			found = true
		}
	})
	return best
}

// AnalyzeTeam reports the winning team's role coverage and any single
// swaps with the remaining pool that would improve its score.
func AnalyzeTeam(team Team, scores []PersonScore, synergy SynergyTables, burnPenalty decimal.Decimal, assignments []RoleAssignment, params ConsortiumParams) TeamAnalysis {
	var analysis TeamAnalysis
	if team.IsEmpty() {
		return analysis
	}

	covered := make(map[Role]bool)
	for _, a := range assignments {
		if !team.Members.Contains(a.PersonID) {
			continue
		}
		covered[a.Primary] = true
		if a.Secondary != nil {
			covered[*a.Secondary] = true
		}
	}
	for _, r := range Roles() {
		if covered[r] {
			analysis.RolesCovered = append(analysis.RolesCovered, r)
		}
	}
	analysis.RoleCoverage = safeDiv(
		decimal.NewFromInt(int64(len(analysis.RolesCovered))),
		decimal.NewFromInt(int64(len(Roles()))),
	)

	scorer := newTeamScorer(scores, synergy, burnPenalty, params)
	pool := candidatePool(scores, params.TopK)
	for _, out := range team.Members {
		for _, in := range pool {
			if team.Members.Contains(in) {
				continue
			}
			swapped := make([]PersonID, 0, len(team.Members))
			for _, p := range team.Members {
				if p != out {
					swapped = append(swapped, p)
				}
			}
			swapped = append(swapped, in)
			score := scorer.score(NewMemberSet(swapped...))
			if score.GreaterThan(team.Score) {
				analysis.Swaps = append(analysis.Swaps, SwapSuggestion{
					Out: out, In: in, Score: score, Gain: score.Sub(team.Score),
				})
			}
		}
	}
	sort.SliceStable(analysis.Swaps, func(i, j int) bool {
		if !analysis.Swaps[i].Gain.Equal(analysis.Swaps[j].Gain) {
			return analysis.Swaps[i].Gain.GreaterThan(analysis.Swaps[j].Gain)
		}
		if analysis.Swaps[i].Out != analysis.Swaps[j].Out {
			return analysis.Swaps[i].Out < analysis.Swaps[j].Out
		}
		return analysis.Swaps[i].In < analysis.Swaps[j].In
	})
	return analysis
}

// candidatePool truncates the ranked scores to the top k person ids.
func candidatePool(scores []PersonScore, topK int) []PersonID {
	if topK <= 0 || topK > len(scores) {
		topK = len(scores)
	}
	pool := make([]PersonID, topK)
	for i := 0; i < topK; i++ {
		pool[i] = scores[i].PersonID
	}
	return pool
}

// forEachCombination calls fn with every size-k index combination of
// 0..n-1 in lexicographic order, reusing one index buffer. An explicit
// generator keeps the enumeration allocation-free for larger pools.
func forEachCombination(n, k int, fn func(idx []int)) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		// Advance to the next combination.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
