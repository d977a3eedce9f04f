/*
stats.go - Numeric guards, quantiles, and the period summary

PURPOSE:
  Shared numeric primitives for the pipeline, plus the glossary-level
  period metrics the reports lead with:

    Mint          Total value created by monetizable events
    Burn          Currency-equivalent of time lost (loss_minutes priced
                  at the losing person's baseline rate)
    Net           Mint - Burn
    Coin velocity Net / total effective minutes
    Entropy ratio Burn / Mint

NUMERICAL GUARDS:
  Division by a near-zero denominator returns exactly zero instead of
  raising. Callers must treat a resulting ratio of 0 as "no signal",
  never as "negative signal".
*/
package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// epsilon guards every division in the engine. Denominators smaller in
// magnitude than this are treated as zero.
var epsilon = decimal.New(1, -9) // 1e-9

// safeDiv returns num/den, or zero when den is within epsilon of zero.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.Abs().LessThan(epsilon) {
		return decimal.Zero
	}
	return num.Div(den)
}

// nearZero reports whether d is within epsilon of zero.
func nearZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(epsilon)
}

// Quantile computes the q-th quantile (0 <= q <= 1) of values with
// linear interpolation between order statistics. The caller treats the
// result as an inclusive (>=) boundary. Zero for an empty input.
func Quantile(values []decimal.Decimal, q float64) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	span := sorted[lo+1].Sub(sorted[lo])
	return sorted[lo].Add(span.Mul(decimal.NewFromFloat(frac)))
}

// =============================================================================
// PERIOD SUMMARY
// =============================================================================

// PeriodSummary holds the headline metrics for one reporting period.
type PeriodSummary struct {
	Period           Period
	Mint             decimal.Decimal
	Burn             decimal.Decimal
	Net              decimal.Decimal
	TotalMinutes     decimal.Decimal
	LossMinutes      decimal.Decimal
	PreventedMinutes decimal.Decimal
	CoinVelocity     decimal.Decimal // Net / TotalMinutes
	EntropyRatio     decimal.Decimal // Burn / Mint
}

// Summarize computes the period summary. Burn pricing needs baselines:
// each loss record is priced at the losing person's baseline rate, or
// the mean baseline rate when the subject is an edge label or a person
// without a baseline.
func Summarize(d *Dataset, baselines []PersonBaseline) PeriodSummary {
	s := PeriodSummary{Period: DatasetPeriod(d)}

	for _, r := range d.Attributions {
		s.Mint = s.Mint.Add(r.Amount)
		s.TotalMinutes = s.TotalMinutes.Add(r.Minutes)
	}

	rates := make(map[PersonID]decimal.Decimal, len(baselines))
	var rateSum decimal.Decimal
	for _, b := range baselines {
		rates[b.PersonID] = b.RatePerMin
		rateSum = rateSum.Add(b.RatePerMin)
	}
	meanRate := safeDiv(rateSum, decimal.NewFromInt(int64(len(baselines))))

	for _, b := range d.Burns {
		if b.Type.IsLoss() {
			rate, ok := rates[PersonID(b.Subject)]
			if !ok {
				rate = meanRate
			}
			s.LossMinutes = s.LossMinutes.Add(b.LossMinutes)
			s.Burn = s.Burn.Add(b.LossMinutes.Mul(rate))
		} else {
			s.PreventedMinutes = s.PreventedMinutes.Add(b.PreventedMinutes)
		}
	}

	s.Net = s.Mint.Sub(s.Burn)
	s.CoinVelocity = safeDiv(s.Net, s.TotalMinutes)
	s.EntropyRatio = safeDiv(s.Burn, s.Mint)
	return s
}
