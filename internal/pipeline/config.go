package pipeline

import (
	"fmt"
	"time"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultWorkerCount    = 8
	DefaultValidatorCount = 3

	// Thresholds are exact thirds so a 2-of-3 quorum accepts and a
	// 1-of-3 quorum rejects without floating-point surprises.
	DefaultAcceptThreshold = 2.0 / 3.0
	DefaultRejectThreshold = 1.0 / 3.0

	DefaultMaxRetries     = 1
	DefaultPerCallTimeout = 5 * time.Second
	DefaultOutlierZScore  = 2.0
)

// Config holds runtime configuration for a single run. The pipeline never
// reads ambient state; every stage receives this value explicitly.
type Config struct {
	// WorkerCount bounds the processing pool and the number of items
	// validated concurrently. 1 gives deterministic sequential execution.
	WorkerCount int

	// ValidatorCount caps how many of the registered validators vote on
	// each result. Fewer registered validators than the cap means all of
	// them vote.
	ValidatorCount int

	// AcceptThreshold and RejectThreshold bound the consensus dead zone:
	// ratios >= accept resolve Accepted, ratios <= reject resolve
	// Rejected, anything between escalates to human review.
	AcceptThreshold float64
	RejectThreshold float64

	// MaxRetries bounds how many times a rejected item re-enters the
	// processing pool before it is finalized as Rejected.
	MaxRetries int

	// PerCallTimeout applies to each strategy invocation and each
	// validator vote individually.
	PerCallTimeout time.Duration

	// OutlierZScore is the pattern analyzer's outlier threshold.
	OutlierZScore float64
}

// DefaultConfig returns a Config with every field at its documented default.
func DefaultConfig() Config {
	return Config{
		WorkerCount:     DefaultWorkerCount,
		ValidatorCount:  DefaultValidatorCount,
		AcceptThreshold: DefaultAcceptThreshold,
		RejectThreshold: DefaultRejectThreshold,
		MaxRetries:      DefaultMaxRetries,
		PerCallTimeout:  DefaultPerCallTimeout,
		OutlierZScore:   DefaultOutlierZScore,
	}
}

// withDefaults fills zero-valued fields. MaxRetries keeps an explicit zero
// (retries disabled) and only negative values fall back to the default.
func (c Config) withDefaults() Config {
	if c.WorkerCount == 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.ValidatorCount == 0 {
		c.ValidatorCount = DefaultValidatorCount
	}
	if c.AcceptThreshold == 0 {
		c.AcceptThreshold = DefaultAcceptThreshold
	}
	if c.RejectThreshold == 0 {
		c.RejectThreshold = DefaultRejectThreshold
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.PerCallTimeout == 0 {
		c.PerCallTimeout = DefaultPerCallTimeout
	}
	if c.OutlierZScore == 0 {
		c.OutlierZScore = DefaultOutlierZScore
	}
	return c
}

// validate reports the first misconfiguration. Called after withDefaults,
// so only explicitly invalid values remain.
func (c Config) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker count %d, want >= 1", ErrInvalidConfig, c.WorkerCount)
	}
	if c.ValidatorCount < 1 {
		return fmt.Errorf("%w: validator count %d, want >= 1", ErrInvalidConfig, c.ValidatorCount)
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold > 1 {
		return fmt.Errorf("%w: accept threshold %v, want [0,1]", ErrInvalidConfig, c.AcceptThreshold)
	}
	if c.RejectThreshold < 0 || c.RejectThreshold > 1 {
		return fmt.Errorf("%w: reject threshold %v, want [0,1]", ErrInvalidConfig, c.RejectThreshold)
	}
	if c.RejectThreshold > c.AcceptThreshold {
		return fmt.Errorf("%w: reject threshold %v exceeds accept threshold %v",
			ErrInvalidConfig, c.RejectThreshold, c.AcceptThreshold)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries %d, want >= 0", ErrInvalidConfig, c.MaxRetries)
	}
	if c.PerCallTimeout <= 0 {
		return fmt.Errorf("%w: per-call timeout %v, want > 0", ErrInvalidConfig, c.PerCallTimeout)
	}
	return nil
}
