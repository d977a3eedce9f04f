/*
errors.go - Centralized error types for the attribution engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine fails loudly, before any computation, on malformed input;
  degenerate-but-valid inputs (zero records, zero minutes, empty pools)
  are never errors and produce explicit empty results instead.

ERROR CATEGORIES:
  1. Data errors - Violated input invariants (conservation, negatives,
     unknown enum values). Fatal for the run; fix the input, recompute.
  2. Configuration errors - Out-of-range engine parameters.

SEE ALSO:
  - validate.go: Produces data errors before the pipeline runs
  - ../config/config.go: Produces configuration errors on load
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownEventType is returned when an attribution record carries
	// an event type outside the closed enum.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrUnknownRecommendation is returned for a recommendation type
	// outside the closed enum.
	ErrUnknownRecommendation = errors.New("unknown recommendation type")

	// ErrUnknownBurnType is returned when a burn record carries a burn
	// type outside the closed enum.
	ErrUnknownBurnType = errors.New("unknown burn type")

	// ErrNegativeMinutes is returned for a record with minutes below zero.
	ErrNegativeMinutes = errors.New("negative minutes")

	// ErrNegativeAmount is returned for a record with a negative amount.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrBadTagCount is returned when tag_count is outside 1..3 or does
	// not match the number of participant rows for the event.
	ErrBadTagCount = errors.New("tag count out of range")

	// ErrConservation is returned when an event's participant amounts or
	// minutes do not sum back to the event total implied by tag_count rows.
	ErrConservation = errors.New("attribution conservation violated")

	// ErrLinkStrength is returned for a relationship link outside [0, 1].
	ErrLinkStrength = errors.New("link strength out of range")

	// ErrConfig is returned for engine parameters outside their domain.
	ErrConfig = errors.New("invalid engine configuration")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DataError pinpoints the record that violated an input invariant.
type DataError struct {
	Table  string // "attributions", "burns", "relationships"
	Row    int    // zero-based index into the input table
	Field  string
	Reason error // sentinel
	Detail string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s[%d].%s: %v (%s)", e.Table, e.Row, e.Field, e.Reason, e.Detail)
}

func (e *DataError) Unwrap() error { return e.Reason }

// ConservationError carries the per-event totals that failed to balance.
type ConservationError struct {
	EventID  EventID
	Field    string // "amount" or "minutes"
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("event %s: participant %s sums to %s, expected %s",
		e.EventID, e.Field, e.Actual, e.Expected)
}

func (e *ConservationError) Unwrap() error { return ErrConservation }

// ConfigError names the parameter that is out of range.
type ConfigError struct {
	Param  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Param, e.Detail)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDataError returns true if the error indicates malformed input rather
// than an engine defect. Callers should fix the input and recompute.
func IsDataError(err error) bool {
	return errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrUnknownRecommendation) ||
		errors.Is(err, ErrUnknownBurnType) ||
		errors.Is(err, ErrNegativeMinutes) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrBadTagCount) ||
		errors.Is(err, ErrConservation) ||
		errors.Is(err, ErrLinkStrength)
}
