/*
Package report renders one run's results for humans and downstream
tools: a Markdown period report, CSV table exports, a JSON document,
and a JSONL audit trail.

All renderers are pure presentation over engine.Result; nothing here
recomputes or reinterprets engine output.
*/
package report

import (
	"fmt"
	"strings"

	"github.com/warp/consortium-engine/engine"
)

// topSynergyRows caps the synergy tables shown in the Markdown report.
const topSynergyRows = 10

// Markdown renders the period report.
func Markdown(res *engine.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Period Report %s\n\n", res.Summary.Period)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Mint | %s |\n", res.Summary.Mint)
	fmt.Fprintf(&b, "| Burn | %s |\n", res.Summary.Burn)
	fmt.Fprintf(&b, "| Net | %s |\n", res.Summary.Net)
	fmt.Fprintf(&b, "| Coin velocity | %s |\n", res.Summary.CoinVelocity.Round(4))
	fmt.Fprintf(&b, "| Entropy ratio | %s |\n", res.Summary.EntropyRatio.Round(4))
	fmt.Fprintf(&b, "| Effective minutes | %s |\n\n", res.Summary.TotalMinutes)

	b.WriteString("## Baselines\n\n")
	b.WriteString("| Person | Rate/min | Source | Solo | Total |\n|---|---|---|---|---|\n")
	for _, base := range res.Baselines {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
			base.PersonID, base.RatePerMin.Round(4), base.Source, base.SoloEvents, base.TotalEvents)
	}
	b.WriteString("\n")

	writeSynergy(&b, "Top Pair Synergy", engine.TopSynergy(res.Synergy.Pairs, topSynergyRows))
	writeSynergy(&b, "Top Group Synergy", engine.TopSynergy(res.Synergy.Groups, topSynergyRows))
	if negative := engine.NegativeSynergy(res.Synergy.Pairs); len(negative) > 0 {
		writeSynergy(&b, "Negative Pair Synergy", negative)
	}

	b.WriteString("## Role Assignments\n\n")
	if len(res.Assignments) == 0 {
		b.WriteString("No roles assigned this period.\n\n")
	} else {
		b.WriteString("| Person | Primary | Secondary |\n|---|---|---|\n")
		for _, a := range res.Assignments {
			secondary := "-"
			if a.Secondary != nil {
				secondary = string(*a.Secondary)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.PersonID, a.Primary, secondary)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Consortium\n\n")
	if res.Team.IsEmpty() {
		b.WriteString("No team could be formed (candidate pool too small).\n")
	} else {
		fmt.Fprintf(&b, "Members: %s\n\n", strings.ReplaceAll(res.Team.Members.Key(), "+", ", "))
		fmt.Fprintf(&b, "Score: %s\n\n", res.Team.Score.Round(4))
		fmt.Fprintf(&b, "Role coverage: %s (%d of %d roles)\n\n",
			res.Analysis.RoleCoverage.Round(2), len(res.Analysis.RolesCovered), len(engine.Roles()))
		if len(res.Analysis.Swaps) > 0 {
			b.WriteString("Suggested swaps:\n\n")
			for _, s := range res.Analysis.Swaps {
				fmt.Fprintf(&b, "- %s out, %s in: score %s (+%s)\n",
					s.Out, s.In, s.Score.Round(4), s.Gain.Round(4))
			}
		}
	}

	return b.String()
}

func writeSynergy(b *strings.Builder, title string, records []engine.SynergyRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Members | Uplift | Partitions |\n|---|---|---|\n")
	for _, rec := range records {
		parts := make([]string, len(rec.Partitions))
		for i, p := range rec.Partitions {
			parts[i] = p.String()
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n",
			strings.ReplaceAll(rec.Members.Key(), "+", ", "),
			rec.Uplift.Round(4),
			strings.Join(parts, "; "))
	}
	b.WriteString("\n")
}
