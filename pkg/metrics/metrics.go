// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for go-biokey
// operations: operation counters, latency histograms, error counters, and
// biometric challenge outcomes.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all biokey metrics
	Namespace = "biokey"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorKind = "error_kind"
	LabelOutcome   = "outcome"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpGenerate        = "generate"
	OpSign            = "sign"
	OpVerify          = "verify"
	OpHasKey          = "has_key"
	OpHardwareBacked  = "hardware_backed"
	OpCancel          = "cancel"

	// Challenge outcomes
	OutcomeAuthenticated = "authenticated"
	OutcomeCanceled      = "canceled"
	OutcomeLockout       = "lockout"
	OutcomeError         = "error"
)

var (
	// OperationsTotal tracks the total number of key operations by type and
	// status. Use RecordOperation to increment with the appropriate labels.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of key operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of key operations in seconds.
	// Buckets cover fast local crypto through user-paced biometric prompts.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of key operations in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks errors by operation and taxonomy kind.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error kind",
		},
		[]string{LabelOperation, LabelErrorKind},
	)

	// ChallengesTotal tracks biometric challenge outcomes.
	ChallengesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_total",
			Help:      "Total number of biometric challenges by outcome",
		},
		[]string{LabelOutcome},
	)

	// KeysTotal tracks the number of managed signing keys.
	KeysTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "keys_total",
			Help:      "Number of managed signing keys",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a key operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	signature, err := svc.SignSync(req)
//	duration := time.Since(start).Seconds()
//	if err != nil {
//	    RecordOperation(OpSign, StatusError, duration)
//	} else {
//	    RecordOperation(OpSign, StatusSuccess, duration)
//	}
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error event by operation and taxonomy kind
// (e.g., "canceled", "lockout_temporarily").
func RecordError(operation, errorKind string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorKind).Inc()
}

// RecordChallenge records one biometric challenge outcome (use Outcome*
// constants).
func RecordChallenge(outcome string) {
	if !enabled.Load() {
		return
	}
	ChallengesTotal.WithLabelValues(outcome).Inc()
}

// SetKeysTotal sets the managed key count gauge.
func SetKeysTotal(count float64) {
	if !enabled.Load() {
		return
	}
	KeysTotal.Set(count)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
