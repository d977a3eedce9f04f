/*
Package ingest reads the engine's input tables from CSV files.

PURPOSE:
  Thin collaborator in front of the core: parses the attribution, burn,
  and relationship tables, normalizes enum values, and rejects files
  whose header or cell values do not match the schema. Amounts are
  expected in the single reporting currency already; there is no
  conversion here.

SCHEMA (headers are exact, order-sensitive):
  attributions.csv   event_id,date,customer_id,project_id,event_type,
                     recommendation_type,person_id,amount_krw_person,
                     minutes_person,tag_count
  burns.csv          burn_id,date,person_or_edge,burn_type,loss_minutes,
                     prevented_by,prevented_minutes
  relationships.csv  from_id,to_id,link_strength

FAILURE MODE:
  The first malformed row aborts the load with a row-numbered error.
  Domain validation proper (enum membership, conservation, ranges) is
  the engine's ValidateDataset; this package only guarantees shape.
*/
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/consortium-engine/engine"
)

var (
	attributionHeader = []string{
		"event_id", "date", "customer_id", "project_id", "event_type",
		"recommendation_type", "person_id", "amount_krw_person",
		"minutes_person", "tag_count",
	}
	burnHeader = []string{
		"burn_id", "date", "person_or_edge", "burn_type", "loss_minutes",
		"prevented_by", "prevented_minutes",
	}
	relationshipHeader = []string{"from_id", "to_id", "link_strength"}
)

// LoadDataset reads the three tables into one engine dataset. The
// relationship path may be empty (the graph is optional).
func LoadDataset(attributionPath, burnPath, relationshipPath string) (*engine.Dataset, error) {
	d := &engine.Dataset{}

	var err error
	if d.Attributions, err = loadFile(attributionPath, ReadAttributions); err != nil {
		return nil, err
	}
	if d.Burns, err = loadFile(burnPath, ReadBurns); err != nil {
		return nil, err
	}
	if relationshipPath != "" {
		if d.Relationships, err = loadFile(relationshipPath, ReadRelationships); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadAttributions parses the attribution table.
func ReadAttributions(r io.Reader) ([]engine.AttributionRecord, error) {
	rows, err := readTable(r, attributionHeader)
	if err != nil {
		return nil, err
	}
	out := make([]engine.AttributionRecord, 0, len(rows))
	for i, row := range rows {
		date, err := engine.ParseDate(row[1])
		if err != nil {
			return nil, rowErr(i, "date", err)
		}
		amount, err := decimal.NewFromString(row[7])
		if err != nil {
			return nil, rowErr(i, "amount_krw_person", err)
		}
		minutes, err := decimal.NewFromString(row[8])
		if err != nil {
			return nil, rowErr(i, "minutes_person", err)
		}
		tagCount, err := strconv.Atoi(row[9])
		if err != nil {
			return nil, rowErr(i, "tag_count", err)
		}
		out = append(out, engine.AttributionRecord{
			EventID:        engine.EventID(row[0]),
			Date:           date,
			CustomerID:     engine.CustomerID(row[2]),
			ProjectID:      engine.ProjectID(row[3]),
			EventType:      engine.EventType(strings.ToUpper(strings.TrimSpace(row[4]))),
			Recommendation: engine.RecommendationType(strings.ToUpper(strings.TrimSpace(row[5]))),
			PersonID:       engine.PersonID(row[6]),
			Amount:         amount,
			Minutes:        minutes,
			TagCount:       tagCount,
		})
	}
	return out, nil
}

// ReadBurns parses the burn table.
func ReadBurns(r io.Reader) ([]engine.BurnRecord, error) {
	rows, err := readTable(r, burnHeader)
	if err != nil {
		return nil, err
	}
	out := make([]engine.BurnRecord, 0, len(rows))
	for i, row := range rows {
		date, err := engine.ParseDate(row[1])
		if err != nil {
			return nil, rowErr(i, "date", err)
		}
		loss, err := decimalOrZero(row[4])
		if err != nil {
			return nil, rowErr(i, "loss_minutes", err)
		}
		prevented, err := decimalOrZero(row[6])
		if err != nil {
			return nil, rowErr(i, "prevented_minutes", err)
		}
		out = append(out, engine.BurnRecord{
			BurnID:           engine.BurnID(row[0]),
			Date:             date,
			Subject:          row[2],
			Type:             engine.BurnType(strings.ToUpper(strings.TrimSpace(row[3]))),
			LossMinutes:      loss,
			PreventedBy:      engine.PersonID(row[5]),
			PreventedMinutes: prevented,
		})
	}
	return out, nil
}

// ReadRelationships parses the optional relationship graph table.
func ReadRelationships(r io.Reader) ([]engine.RelationshipLink, error) {
	rows, err := readTable(r, relationshipHeader)
	if err != nil {
		return nil, err
	}
	out := make([]engine.RelationshipLink, 0, len(rows))
	for i, row := range rows {
		strength, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, rowErr(i, "link_strength", err)
		}
		out = append(out, engine.RelationshipLink{
			From:     engine.PersonID(row[0]),
			To:       engine.PersonID(row[1]),
			Strength: strength,
		})
	}
	return out, nil
}

// readTable reads all rows and checks the exact header.
func readTable(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	got, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file, want header %s", strings.Join(header, ","))
	}
	if err != nil {
		return nil, err
	}
	if len(got) != len(header) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(got), len(header))
	}
	for i, name := range header {
		if strings.TrimSpace(got[i]) != name {
			return nil, fmt.Errorf("header column %d is %q, want %q", i, got[i], name)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func rowErr(row int, field string, err error) error {
	return fmt.Errorf("row %d, %s: %w", row+1, field, err)
}
