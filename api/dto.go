/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  engine's internal model from the external contract. Field names match
  the interchange schema the ingestion CSVs use (event_id, person_id,
  amount_krw_person, ...); decimals travel as strings to avoid float
  precision loss in clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Shape validation happens while converting a request to engine records;
  domain validation is the engine's ValidateDataset.

SEE ALSO:
  - handlers.go: Uses these types
  - ../ingest: The CSV twin of this schema
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/store"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// RunRequest carries one period's full input tables.
type RunRequest struct {
	Attributions  []AttributionRecordDTO `json:"attributions"`
	Burns         []BurnRecordDTO        `json:"burns"`
	Relationships []RelationshipDTO      `json:"relationships,omitempty"`
}

type AttributionRecordDTO struct {
	EventID            string `json:"event_id"`
	Date               string `json:"date"`
	CustomerID         string `json:"customer_id"`
	ProjectID          string `json:"project_id"`
	EventType          string `json:"event_type"`
	RecommendationType string `json:"recommendation_type"`
	PersonID           string `json:"person_id"`
	AmountKRWPerson    string `json:"amount_krw_person"`
	MinutesPerson      string `json:"minutes_person"`
	TagCount           int    `json:"tag_count"`
}

type BurnRecordDTO struct {
	BurnID           string `json:"burn_id"`
	Date             string `json:"date"`
	PersonOrEdge     string `json:"person_or_edge"`
	BurnType         string `json:"burn_type"`
	LossMinutes      string `json:"loss_minutes"`
	PreventedBy      string `json:"prevented_by,omitempty"`
	PreventedMinutes string `json:"prevented_minutes,omitempty"`
}

type RelationshipDTO struct {
	FromID       string `json:"from_id"`
	ToID         string `json:"to_id"`
	LinkStrength string `json:"link_strength"`
}

// Dataset converts the request to engine records, failing on the first
// malformed cell.
func (r *RunRequest) Dataset() (*engine.Dataset, error) {
	d := &engine.Dataset{}
	for i, a := range r.Attributions {
		date, err := engine.ParseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("attributions[%d].date: %w", i, err)
		}
		amount, err := decimal.NewFromString(a.AmountKRWPerson)
		if err != nil {
			return nil, fmt.Errorf("attributions[%d].amount_krw_person: %w", i, err)
		}
		minutes, err := decimal.NewFromString(a.MinutesPerson)
		if err != nil {
			return nil, fmt.Errorf("attributions[%d].minutes_person: %w", i, err)
		}
		d.Attributions = append(d.Attributions, engine.AttributionRecord{
			EventID:        engine.EventID(a.EventID),
			Date:           date,
			CustomerID:     engine.CustomerID(a.CustomerID),
			ProjectID:      engine.ProjectID(a.ProjectID),
			EventType:      engine.EventType(a.EventType),
			Recommendation: engine.RecommendationType(a.RecommendationType),
			PersonID:       engine.PersonID(a.PersonID),
			Amount:         amount,
			Minutes:        minutes,
			TagCount:       a.TagCount,
		})
	}
	for i, b := range r.Burns {
		date, err := engine.ParseDate(b.Date)
		if err != nil {
			return nil, fmt.Errorf("burns[%d].date: %w", i, err)
		}
		loss, err := optionalDecimal(b.LossMinutes)
		if err != nil {
			return nil, fmt.Errorf("burns[%d].loss_minutes: %w", i, err)
		}
		prevented, err := optionalDecimal(b.PreventedMinutes)
		if err != nil {
			return nil, fmt.Errorf("burns[%d].prevented_minutes: %w", i, err)
		}
		d.Burns = append(d.Burns, engine.BurnRecord{
			BurnID:           engine.BurnID(b.BurnID),
			Date:             date,
			Subject:          b.PersonOrEdge,
			Type:             engine.BurnType(b.BurnType),
			LossMinutes:      loss,
			PreventedBy:      engine.PersonID(b.PreventedBy),
			PreventedMinutes: prevented,
		})
	}
	for i, l := range r.Relationships {
		strength, err := decimal.NewFromString(l.LinkStrength)
		if err != nil {
			return nil, fmt.Errorf("relationships[%d].link_strength: %w", i, err)
		}
		d.Relationships = append(d.Relationships, engine.RelationshipLink{
			From:     engine.PersonID(l.FromID),
			To:       engine.PersonID(l.ToID),
			Strength: strength,
		})
	}
	return d, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type RunMetaDTO struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	TeamMembers string    `json:"team_members"`
	TeamScore   string    `json:"team_score"`
}

type SummaryDTO struct {
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`
	Mint         string `json:"mint"`
	Burn         string `json:"burn"`
	Net          string `json:"net"`
	TotalMinutes string `json:"total_minutes"`
	CoinVelocity string `json:"coin_velocity"`
	EntropyRatio string `json:"entropy_ratio"`
}

type BaselineDTO struct {
	PersonID       string `json:"person_id"`
	BaseRatePerMin string `json:"base_rate_per_min"`
	Source         string `json:"source"`
	SoloEvents     int    `json:"solo_events"`
	BucketEvents   int    `json:"bucket_events"`
	TotalEvents    int    `json:"total_events"`
}

type SynergyDTO struct {
	Members      []string `json:"members"`
	UpliftPerMin string   `json:"uplift_per_min"`
	Partitions   []string `json:"partitions"`
}

type RoleScoreDTO struct {
	PersonID   string `json:"person_id"`
	Rainmaker  string `json:"rainmaker"`
	Closer     string `json:"closer"`
	Operator   string `json:"operator"`
	Builder    string `json:"builder"`
	Connector  string `json:"connector"`
	Controller string `json:"controller"`
}

type RoleAssignmentDTO struct {
	PersonID      string  `json:"person_id"`
	PrimaryRole   string  `json:"primary_role"`
	SecondaryRole *string `json:"secondary_role"`
}

type SwapDTO struct {
	Out   string `json:"out"`
	In    string `json:"in"`
	Score string `json:"score"`
	Gain  string `json:"gain"`
}

type TeamDTO struct {
	Members      []string  `json:"members"`
	Score        string    `json:"score"`
	RoleCoverage string    `json:"role_coverage"`
	RolesCovered []string  `json:"roles_covered"`
	Swaps        []SwapDTO `json:"suggested_swaps,omitempty"`
}

type RunDTO struct {
	ID              string              `json:"id"`
	CreatedAt       time.Time           `json:"created_at"`
	Summary         SummaryDTO          `json:"summary"`
	Baselines       []BaselineDTO       `json:"baselines"`
	SynergyPairs    []SynergyDTO        `json:"synergy_pairs"`
	SynergyGroups   []SynergyDTO        `json:"synergy_groups"`
	RoleScores      []RoleScoreDTO      `json:"role_scores"`
	RoleAssignments []RoleAssignmentDTO `json:"role_assignments"`
	Team            TeamDTO             `json:"team"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toRunMetaDTO(m store.RunMeta) RunMetaDTO {
	return RunMetaDTO{
		ID:          m.ID,
		CreatedAt:   m.CreatedAt,
		PeriodStart: m.PeriodStart,
		PeriodEnd:   m.PeriodEnd,
		TeamMembers: m.TeamMembers,
		TeamScore:   m.TeamScore,
	}
}

func toSummaryDTO(s engine.PeriodSummary) SummaryDTO {
	return SummaryDTO{
		PeriodStart:  s.Period.Start.String(),
		PeriodEnd:    s.Period.End.String(),
		Mint:         s.Mint.String(),
		Burn:         s.Burn.String(),
		Net:          s.Net.String(),
		TotalMinutes: s.TotalMinutes.String(),
		CoinVelocity: s.CoinVelocity.String(),
		EntropyRatio: s.EntropyRatio.String(),
	}
}

func toBaselineDTOs(baselines []engine.PersonBaseline) []BaselineDTO {
	out := make([]BaselineDTO, 0, len(baselines))
	for _, b := range baselines {
		out = append(out, BaselineDTO{
			PersonID:       string(b.PersonID),
			BaseRatePerMin: b.RatePerMin.String(),
			Source:         b.Source.String(),
			SoloEvents:     b.SoloEvents,
			BucketEvents:   b.BucketEvents,
			TotalEvents:    b.TotalEvents,
		})
	}
	return out
}

func toSynergyDTOs(records []engine.SynergyRecord) []SynergyDTO {
	out := make([]SynergyDTO, 0, len(records))
	for _, rec := range records {
		members := make([]string, len(rec.Members))
		for i, p := range rec.Members {
			members[i] = string(p)
		}
		partitions := make([]string, len(rec.Partitions))
		for i, p := range rec.Partitions {
			partitions[i] = p.String()
		}
		out = append(out, SynergyDTO{
			Members:      members,
			UpliftPerMin: rec.Uplift.String(),
			Partitions:   partitions,
		})
	}
	return out
}

func toRoleScoreDTOs(scores []engine.RoleScore) []RoleScoreDTO {
	out := make([]RoleScoreDTO, 0, len(scores))
	for _, s := range scores {
		out = append(out, RoleScoreDTO{
			PersonID:   string(s.PersonID),
			Rainmaker:  s.Rainmaker.String(),
			Closer:     s.Closer.String(),
			Operator:   s.Operator.String(),
			Builder:    s.Builder.String(),
			Connector:  s.Connector.String(),
			Controller: s.Controller.String(),
		})
	}
	return out
}

func toRoleAssignmentDTOs(assignments []engine.RoleAssignment) []RoleAssignmentDTO {
	out := make([]RoleAssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		dto := RoleAssignmentDTO{
			PersonID:    string(a.PersonID),
			PrimaryRole: string(a.Primary),
		}
		if a.Secondary != nil {
			secondary := string(*a.Secondary)
			dto.SecondaryRole = &secondary
		}
		out = append(out, dto)
	}
	return out
}

func toTeamDTO(team engine.Team, analysis engine.TeamAnalysis) TeamDTO {
	members := make([]string, len(team.Members))
	for i, p := range team.Members {
		members[i] = string(p)
	}
	covered := make([]string, len(analysis.RolesCovered))
	for i, r := range analysis.RolesCovered {
		covered[i] = string(r)
	}
	dto := TeamDTO{
		Members:      members,
		Score:        team.Score.String(),
		RoleCoverage: analysis.RoleCoverage.String(),
		RolesCovered: covered,
	}
	for _, s := range analysis.Swaps {
		dto.Swaps = append(dto.Swaps, SwapDTO{
			Out:   string(s.Out),
			In:    string(s.In),
			Score: s.Score.String(),
			Gain:  s.Gain.String(),
		})
	}
	return dto
}

func toRunDTO(run *store.Run) RunDTO {
	res := run.Result
	return RunDTO{
		ID:              run.ID,
		CreatedAt:       run.CreatedAt,
		Summary:         toSummaryDTO(res.Summary),
		Baselines:       toBaselineDTOs(res.Baselines),
		SynergyPairs:    toSynergyDTOs(res.Synergy.Pairs),
		SynergyGroups:   toSynergyDTOs(res.Synergy.Groups),
		RoleScores:      toRoleScoreDTOs(res.RoleScores),
		RoleAssignments: toRoleAssignmentDTOs(res.Assignments),
		Team:            toTeamDTO(res.Team, res.Analysis),
	}
}
