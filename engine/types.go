/*
Package engine provides the attribution and team-optimization core.

PURPOSE:
  This package contains the batch computation pipeline that turns one
  reporting period's event logs into per-person baselines, pairwise and
  group synergy tables, role assignments, and a recommended consortium
  (best-scoring fixed-size team).

KEY CONCEPTS IN THIS FILE (types.go):
  - AttributionRecord: One person's share of one monetizable event
  - BurnRecord: A time-loss (or loss-prevention) event
  - PersonBaseline: A person's estimated value-per-minute rate
  - SynergyRecord: Uplift of a member set over its baseline prediction
  - RoleScore / RoleAssignment: Six-way role affinity and awards
  - Team: The optimizer's output

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all currency and ratio math
  2. Type Safety: Closed enums for event types, burn types, roles, and
     baseline sources; typed identifiers prevent mixing person/project IDs
  3. Determinism: Every tie-break is a total order so identical input
     reproduces identical output
  4. Batch purity: All results are pure functions of one period's tables
     plus configuration; nothing persists across periods

SEE ALSO:
  - baseline.go: Tiered rate estimation
  - synergy.go: Partitioned uplift computation
  - roles.go: Role scoring and conflict-resolved assignment
  - consortium.go: Bounded team search
*/
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type EventID string
type CustomerID string
type ProjectID string
type BurnID string

// PartitionKey groups collaborations that could plausibly interact.
// Synergy is computed inside a partition first, then reweighted across
// partitions by recent revenue share.
type PartitionKey struct {
	Customer CustomerID
	Project  ProjectID
}

func (k PartitionKey) String() string {
	return string(k.Customer) + "/" + string(k.Project)
}

// =============================================================================
// EVENT TAXONOMY
// =============================================================================

// EventType classifies a monetizable event.
type EventType string

const (
	EventContractSigned   EventType = "CONTRACT_SIGNED"
	EventCashIn           EventType = "CASH_IN"
	EventMRR              EventType = "MRR"
	EventCostSaved        EventType = "COST_SAVED"
	EventDeliveryComplete EventType = "DELIVERY_COMPLETE"
	EventInvoiceIssued    EventType = "INVOICE_ISSUED"
	EventUpsell           EventType = "UPSELL"
	EventPilotWon         EventType = "PILOT_WON"
	EventReferralFee      EventType = "REFERRAL_FEE"
)

// EventTypes lists every valid event type, in declaration order.
func EventTypes() []EventType {
	return []EventType{
		EventContractSigned, EventCashIn, EventMRR, EventCostSaved,
		EventDeliveryComplete, EventInvoiceIssued, EventUpsell,
		EventPilotWon, EventReferralFee,
	}
}

// Valid reports whether t is a member of the closed enum.
func (t EventType) Valid() bool {
	for _, e := range EventTypes() {
		if t == e {
			return true
		}
	}
	return false
}

// RecommendationType classifies how an event was sourced.
type RecommendationType string

const (
	RecommendationDirect   RecommendationType = "DIRECT"
	RecommendationIndirect RecommendationType = "INDIRECT_DRIVEN"
	RecommendationMixed    RecommendationType = "MIXED"
)

func (t RecommendationType) Valid() bool {
	switch t {
	case RecommendationDirect, RecommendationIndirect, RecommendationMixed:
		return true
	}
	return false
}

// BurnType classifies a time-loss record. Loss-causing types carry
// loss_minutes; PREVENTED and FIXED carry prevented_minutes instead.
type BurnType string

const (
	BurnRework           BurnType = "REWORK"
	BurnBlocking         BurnType = "BLOCKING"
	BurnContextSwitch    BurnType = "CONTEXT_SWITCH"
	BurnMiscommunication BurnType = "MISCOMMUNICATION"
	BurnPrevented        BurnType = "PREVENTED"
	BurnFixed            BurnType = "FIXED"
)

func (t BurnType) Valid() bool {
	switch t {
	case BurnRework, BurnBlocking, BurnContextSwitch,
		BurnMiscommunication, BurnPrevented, BurnFixed:
		return true
	}
	return false
}

// IsLoss reports whether this burn type destroys time (as opposed to
// recording saved time).
func (t BurnType) IsLoss() bool {
	return t != BurnPrevented && t != BurnFixed
}

// =============================================================================
// ROLE TAXONOMY
// =============================================================================

// Role is one of the six archetypal roles the scorer assigns.
type Role string

const (
	RoleRainmaker  Role = "rainmaker"
	RoleCloser     Role = "closer"
	RoleOperator   Role = "operator"
	RoleBuilder    Role = "builder"
	RoleConnector  Role = "connector"
	RoleController Role = "controller"
)

// Roles lists all six roles in scoring order.
func Roles() []Role {
	return []Role{
		RoleRainmaker, RoleCloser, RoleOperator,
		RoleBuilder, RoleConnector, RoleController,
	}
}

// RoleBucket is a coarse event-type category used as the middle tier of
// baseline estimation when solo data is too thin.
type RoleBucket string

const (
	BucketRainmaker RoleBucket = "RAINMAKER_BUCKET"
	BucketCloser    RoleBucket = "CLOSER_BUCKET"
	BucketOperator  RoleBucket = "OPERATOR_BUCKET"
	BucketBuilder   RoleBucket = "BUILDER_BUCKET"
	BucketConnector RoleBucket = "CONNECTOR_BUCKET"
)

// RoleBuckets lists the five non-ALL buckets in a fixed order, used for
// deterministic iteration during baseline estimation.
func RoleBuckets() []RoleBucket {
	return []RoleBucket{
		BucketRainmaker, BucketCloser, BucketOperator,
		BucketBuilder, BucketConnector,
	}
}

// BucketFor maps an event type to its role bucket. Types without a
// mapping fall into the implicit ALL bucket (ok == false).
func BucketFor(t EventType) (RoleBucket, bool) {
	switch t {
	case EventUpsell, EventPilotWon:
		return BucketRainmaker, true
	case EventContractSigned, EventCashIn:
		return BucketCloser, true
	case EventDeliveryComplete, EventInvoiceIssued:
		return BucketOperator, true
	case EventMRR, EventCostSaved:
		return BucketBuilder, true
	case EventReferralFee:
		return BucketConnector, true
	}
	return "", false
}

// =============================================================================
// INPUT RECORDS
// =============================================================================

// AttributionRecord is one person's share of one monetizable event,
// produced by ingestion exploding a multi-person event across its 1-3
// tagged participants. Amounts are in the single reporting currency.
//
// Invariant: summing Amount (and Minutes) across an event's participants
// reproduces the event's total amount (and total effective minutes).
type AttributionRecord struct {
	EventID        EventID
	Date           TimePoint
	CustomerID     CustomerID
	ProjectID      ProjectID
	EventType      EventType
	Recommendation RecommendationType
	PersonID       PersonID
	Amount         decimal.Decimal // this person's slice, KRW
	Minutes        decimal.Decimal // this person's effective minutes
	TagCount       int             // participants on the event, 1-3
}

// Partition returns the synergy partition this record belongs to.
func (r AttributionRecord) Partition() PartitionKey {
	return PartitionKey{Customer: r.CustomerID, Project: r.ProjectID}
}

// BurnRecord is one time-loss event, or a record of loss avoided
// (PREVENTED) or repaired (FIXED).
type BurnRecord struct {
	BurnID           BurnID
	Date             TimePoint
	Subject          string // person id or "a--b" edge label
	Type             BurnType
	LossMinutes      decimal.Decimal
	PreventedBy      PersonID        // optional; who avoided the loss
	PreventedMinutes decimal.Decimal // only meaningful for PREVENTED/FIXED
}

// RelationshipLink is one directed edge of the optional relationship
// graph used by the indirect-contribution adjustment.
type RelationshipLink struct {
	From     PersonID
	To       PersonID
	Strength decimal.Decimal // [0, 1]
}

// Dataset is one reporting period's full input. The engine never mutates
// it and never retains it past a run.
type Dataset struct {
	Attributions  []AttributionRecord
	Burns         []BurnRecord
	Relationships []RelationshipLink
}

// People returns every person appearing in any attribution record,
// sorted for deterministic iteration.
func (d *Dataset) People() []PersonID {
	seen := make(map[PersonID]bool)
	for _, r := range d.Attributions {
		seen[r.PersonID] = true
	}
	people := make([]PersonID, 0, len(seen))
	for p := range seen {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool { return people[i] < people[j] })
	return people
}

// =============================================================================
// BASELINE OUTPUT
// =============================================================================

// BaselineTier identifies which backoff tier produced a baseline.
type BaselineTier string

const (
	TierSolo        BaselineTier = "SOLO"
	TierRoleBucket  BaselineTier = "ROLE_BUCKET"
	TierFallbackAll BaselineTier = "FALLBACK_ALL"
)

// BaselineSource records the provenance of a baseline rate: the tier,
// plus the winning bucket when the tier is ROLE_BUCKET.
type BaselineSource struct {
	Tier   BaselineTier
	Bucket RoleBucket // set only for TierRoleBucket
}

func (s BaselineSource) String() string {
	if s.Tier == TierRoleBucket {
		return string(TierRoleBucket) + ":" + string(s.Bucket)
	}
	return string(s.Tier)
}

// ParseBaselineSource is the inverse of BaselineSource.String, used when
// reloading persisted results.
func ParseBaselineSource(s string) (BaselineSource, error) {
	switch {
	case s == string(TierSolo):
		return BaselineSource{Tier: TierSolo}, nil
	case s == string(TierFallbackAll):
		return BaselineSource{Tier: TierFallbackAll}, nil
	case strings.HasPrefix(s, string(TierRoleBucket)+":"):
		b := RoleBucket(strings.TrimPrefix(s, string(TierRoleBucket)+":"))
		return BaselineSource{Tier: TierRoleBucket, Bucket: b}, nil
	}
	return BaselineSource{}, fmt.Errorf("unknown baseline source %q", s)
}

// PersonBaseline is a person's synergy-free reference rate for the
// period, recomputed from scratch every run.
type PersonBaseline struct {
	PersonID   PersonID
	RatePerMin decimal.Decimal
	Source     BaselineSource

	// Supporting counts used to choose the source.
	SoloEvents   int
	BucketEvents int // events behind the winning bucket, if any
	TotalEvents  int
}

// =============================================================================
// SYNERGY OUTPUT
// =============================================================================

// MemberSet is a sorted, duplicate-free set of people. Pair records have
// arity 2; group records have arity k_min..k_max.
type MemberSet []PersonID

// NewMemberSet copies, sorts, and dedupes the given people.
func NewMemberSet(people ...PersonID) MemberSet {
	seen := make(map[PersonID]bool, len(people))
	out := make(MemberSet, 0, len(people))
	for _, p := range people {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Key returns a canonical string form usable as a map key.
func (m MemberSet) Key() string {
	parts := make([]string, len(m))
	for i, p := range m {
		parts[i] = string(p)
	}
	return strings.Join(parts, "+")
}

// Contains reports whether p is a member.
func (m MemberSet) Contains(p PersonID) bool {
	for _, q := range m {
		if q == p {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of m is in other.
func (m MemberSet) SubsetOf(other MemberSet) bool {
	for _, p := range m {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Less orders member sets lexicographically (shorter first on prefix
// equality). Used for deterministic output ordering.
func (m MemberSet) Less(other MemberSet) bool {
	for i := 0; i < len(m) && i < len(other); i++ {
		if m[i] != other[i] {
			return m[i] < other[i]
		}
	}
	return len(m) < len(other)
}

// SynergyRecord is the final (reweighted) uplift for one member set,
// with the partitions that contributed.
type SynergyRecord struct {
	Members    MemberSet
	Uplift     decimal.Decimal // signed ratio over predicted rate
	Partitions []PartitionKey  // provenance, sorted
}

// =============================================================================
// ROLE OUTPUT
// =============================================================================

// RoleScore holds a person's six role-affinity ratios, each in [0, 1].
type RoleScore struct {
	PersonID   PersonID
	Rainmaker  decimal.Decimal
	Closer     decimal.Decimal
	Operator   decimal.Decimal
	Builder    decimal.Decimal
	Connector  decimal.Decimal
	Controller decimal.Decimal
}

// Score returns the ratio for the named role.
func (s RoleScore) Score(r Role) decimal.Decimal {
	switch r {
	case RoleRainmaker:
		return s.Rainmaker
	case RoleCloser:
		return s.Closer
	case RoleOperator:
		return s.Operator
	case RoleBuilder:
		return s.Builder
	case RoleConnector:
		return s.Connector
	case RoleController:
		return s.Controller
	}
	return decimal.Zero
}

// RoleAssignment awards a person at most two roles. Across all
// assignments each role name appears at most once.
type RoleAssignment struct {
	PersonID  PersonID
	Primary   Role
	Secondary *Role
}

// =============================================================================
// CONSORTIUM OUTPUT
// =============================================================================

// PersonScore is a candidate's individual score entering the optimizer:
// direct period value plus the indirect-contribution adjustment.
type PersonScore struct {
	PersonID PersonID
	Direct   decimal.Decimal
	Indirect decimal.Decimal
	Total    decimal.Decimal
}

// Team is the optimizer's winning consortium. Ephemeral: it exists only
// as the output of one optimization call.
type Team struct {
	Members MemberSet
	Score   decimal.Decimal
}

// IsEmpty reports whether no team could be formed.
func (t Team) IsEmpty() bool { return len(t.Members) == 0 }

// SwapSuggestion describes a single-member exchange that would improve
// the winning team's score. Descriptive output only.
type SwapSuggestion struct {
	Out   PersonID
	In    PersonID
	Score decimal.Decimal // team score after the swap
	Gain  decimal.Decimal
}

// TeamAnalysis is the descriptive companion to the winning team.
type TeamAnalysis struct {
	RoleCoverage decimal.Decimal // fraction of the 6 roles covered
	RolesCovered []Role
	Swaps        []SwapSuggestion
}
