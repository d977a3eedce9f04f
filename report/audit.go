/*
audit.go - JSONL audit trail

PURPOSE:
  Writes one JSON line per produced record so a run's full output can
  be replayed or diffed later. The audit trail is the only cross-period
  artifact the engine's outputs leave behind besides the result store.
*/
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/warp/consortium-engine/engine"
)

// auditLine is the envelope every audit record shares.
type auditLine struct {
	At    time.Time   `json:"at"`
	RunID string      `json:"run_id"`
	Kind  string      `json:"kind"`
	Data  interface{} `json:"data"`
}

// Audit streams every result row as a JSON line.
func Audit(w io.Writer, runID string, res *engine.Result) error {
	now := time.Now().UTC()
	enc := json.NewEncoder(w)

	write := func(kind string, data interface{}) error {
		return enc.Encode(auditLine{At: now, RunID: runID, Kind: kind, Data: data})
	}

	if err := write("summary", res.Summary); err != nil {
		return err
	}
	for _, b := range res.Baselines {
		if err := write("baseline", b); err != nil {
			return err
		}
	}
	for _, rec := range res.Synergy.Pairs {
		if err := write("synergy_pair", rec); err != nil {
			return err
		}
	}
	for _, rec := range res.Synergy.Groups {
		if err := write("synergy_group", rec); err != nil {
			return err
		}
	}
	for _, s := range res.RoleScores {
		if err := write("role_score", s); err != nil {
			return err
		}
	}
	for _, a := range res.Assignments {
		if err := write("role_assignment", a); err != nil {
			return err
		}
	}
	if err := write("team", res.Team); err != nil {
		return err
	}
	return write("analysis", res.Analysis)
}
