/*
engine.go - Pipeline orchestration

PURPOSE:
  Runs one reporting period's dataset through the fixed pipeline:

    validate -> baselines -> synergy -> roles -> person scores -> team

  The pipeline is single-threaded, synchronous, and batch-oriented: the
  whole period is in memory, each stage is a pure function of the
  dataset and the parameters, and nothing survives the run except the
  returned Result. Role scoring feeds reporting only; the optimizer
  never consumes it.

DEPENDENCY INJECTION:
  Engine is an explicitly constructed context object owned by the
  process entry point. It holds parameters and a logger; there is no
  package-level state anywhere in the core.
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/consortium-engine/logger"
)

// Params collects every engine parameter. Zero values are replaced by
// the documented defaults in Normalize.
type Params struct {
	MinEvents      int
	Synergy        SynergyParams
	RoleThresholds map[Role]decimal.Decimal
	Consortium     ConsortiumParams
	LambdaDecay    decimal.Decimal
}

// DefaultParams returns the standard engine parameters.
func DefaultParams() Params {
	return Params{
		MinEvents:      2,
		Synergy:        DefaultSynergyParams(),
		RoleThresholds: DefaultRoleThresholds(),
		Consortium:     DefaultConsortiumParams(),
		LambdaDecay:    decimal.NewFromFloat(0.5),
	}
}

// Normalize fills unset fields with defaults and rejects out-of-domain
// values.
func (p *Params) Normalize() error {
	def := DefaultParams()
	if p.MinEvents <= 0 {
		p.MinEvents = def.MinEvents
	}
	if p.Synergy.KMin == 0 {
		p.Synergy = def.Synergy
	}
	if p.RoleThresholds == nil {
		p.RoleThresholds = def.RoleThresholds
	}
	if p.Consortium.TeamSize == 0 {
		p.Consortium = def.Consortium
	}
	if p.Synergy.KMin > p.Synergy.KMax {
		return &ConfigError{Param: "k_min", Detail: "k_min exceeds k_max"}
	}
	one := decimal.NewFromInt(1)
	if p.Consortium.GroupWeight.IsNegative() || p.Consortium.GroupWeight.GreaterThan(one) {
		return &ConfigError{Param: "group_weight", Detail: "must be in [0, 1]"}
	}
	if p.LambdaDecay.IsNegative() || p.LambdaDecay.GreaterThan(one) {
		return &ConfigError{Param: "lambda_decay", Detail: "must be in [0, 1]"}
	}
	// The optimizer counts the same group arities the synergy tables hold.
	p.Consortium.KMin = p.Synergy.KMin
	p.Consortium.KMax = p.Synergy.KMax
	return nil
}

// Result is everything one run produces for downstream collaborators.
type Result struct {
	Summary      PeriodSummary
	Baselines    []PersonBaseline
	Synergy      SynergyTables
	RoleScores   []RoleScore
	Assignments  []RoleAssignment
	PersonScores []PersonScore
	Team         Team
	Analysis     TeamAnalysis
}

// Engine runs the attribution pipeline. Construct with New and inject
// wherever a run is triggered.
type Engine struct {
	params Params
	log    logger.Logger
}

// New builds an Engine. A nil log disables logging.
func New(params Params, log logger.Logger) (*Engine, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{params: params, log: log.Named("engine")}, nil
}

// Params returns the normalized parameters the engine runs with.
func (e *Engine) Params() Params { return e.params }

// Run executes the full pipeline over one period's dataset. The context
// is accepted for interface symmetry with the rest of the codebase; the
// pipeline itself never blocks on I/O.
func (e *Engine) Run(ctx context.Context, d *Dataset) (*Result, error) {
	if err := ValidateDataset(d); err != nil {
		e.log.Error(ctx, "input validation failed", logger.Error(err))
		return nil, err
	}

	res := &Result{}

	res.Baselines = EstimateBaselines(d.Attributions, e.params.MinEvents)
	e.log.Info(ctx, "baselines estimated",
		logger.Int("people", len(res.Baselines)))

	res.Summary = Summarize(d, res.Baselines)

	res.Synergy = ComputeSynergy(d.Attributions, res.Baselines, e.params.Synergy)
	e.log.Info(ctx, "synergy computed",
		logger.Int("pairs", len(res.Synergy.Pairs)),
		logger.Int("groups", len(res.Synergy.Groups)))

	res.RoleScores = ScoreRoles(d.Attributions, d.Burns)
	res.Assignments = AssignRoles(res.RoleScores, e.params.RoleThresholds)
	e.log.Info(ctx, "roles assigned",
		logger.Int("assignments", len(res.Assignments)))

	res.PersonScores = ComputePersonScores(d.Attributions, d.Relationships, e.params.LambdaDecay)

	res.Team = OptimizeConsortium(res.PersonScores, res.Synergy, res.Summary.Burn, e.params.Consortium)
	res.Analysis = AnalyzeTeam(res.Team, res.PersonScores, res.Synergy, res.Summary.Burn, res.Assignments, e.params.Consortium)
	if res.Team.IsEmpty() {
		e.log.Warn(ctx, "no team formed: candidate pool smaller than team size")
	} else {
		e.log.Info(ctx, "consortium selected",
			logger.String("members", res.Team.Members.Key()),
			logger.String("score", res.Team.Score.String()))
	}

	return res, nil
}
