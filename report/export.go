package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/warp/consortium-engine/engine"
)

// JSON writes the complete result document, indented.
func JSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// BaselinesCSV exports the baseline table.
func BaselinesCSV(w io.Writer, baselines []engine.PersonBaseline) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"person_id", "base_rate_per_min", "source", "solo_events", "bucket_events", "total_events"}); err != nil {
		return err
	}
	for _, b := range baselines {
		row := []string{
			string(b.PersonID),
			b.RatePerMin.String(),
			b.Source.String(),
			strconv.Itoa(b.SoloEvents),
			strconv.Itoa(b.BucketEvents),
			strconv.Itoa(b.TotalEvents),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SynergyCSV exports a synergy table (pairs or groups).
func SynergyCSV(w io.Writer, records []engine.SynergyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"members", "uplift_per_min", "partitions"}); err != nil {
		return err
	}
	for _, rec := range records {
		parts := ""
		for i, p := range rec.Partitions {
			if i > 0 {
				parts += ";"
			}
			parts += p.String()
		}
		if err := cw.Write([]string{rec.Members.Key(), rec.Uplift.String(), parts}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RoleScoresCSV exports the six-way role score table.
func RoleScoresCSV(w io.Writer, scores []engine.RoleScore) error {
	cw := csv.NewWriter(w)
	header := []string{"person_id"}
	for _, r := range engine.Roles() {
		header = append(header, string(r))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range scores {
		row := []string{string(s.PersonID)}
		for _, r := range engine.Roles() {
			row = append(row, s.Score(r).String())
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
