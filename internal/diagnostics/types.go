// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package diagnostics aggregates subsystem health (live pipeline window
// state, key rotation, redundant-stream failover) into a single report and
// serves it over a small HTTP surface.
package diagnostics

import "time"

// HealthStatus is the health state of a subsystem.
type HealthStatus int

const (
	Unknown HealthStatus = iota
	OK
	Degraded
	Unavailable
)

func (h HealthStatus) String() string {
	switch h {
	case OK:
		return "ok"
	case Degraded:
		return "degraded"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

func (h HealthStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// Subsystem identifies which toolkit component a SubsystemHealth describes.
type Subsystem string

const (
	SubsystemLivePipeline Subsystem = "live_pipeline"
	SubsystemKeystore     Subsystem = "keystore"
	SubsystemFailover     Subsystem = "failover"
	SubsystemKeyServer    Subsystem = "key_server"
)

// SubsystemHealth is one subsystem's point-in-time health.
type SubsystemHealth struct {
	Subsystem  Subsystem    `json:"subsystem"`
	Status     HealthStatus `json:"status"`
	MeasuredAt time.Time    `json:"measured_at"`
	Detail     interface{}  `json:"detail,omitempty"`
}

// Report is the aggregate health document served at /healthz.
type Report struct {
	Version       string                        `json:"version"`
	Commit        string                        `json:"commit"`
	MeasuredAt    time.Time                     `json:"measured_at"`
	OverallStatus HealthStatus                  `json:"overall_status"`
	Subsystems    map[Subsystem]SubsystemHealth `json:"subsystems"`
}

// LivePipelineDetail is the live-pipeline-specific health payload.
type LivePipelineDetail struct {
	SegmentsInWindow       int    `json:"segments_in_window"`
	MediaSequence          uint64 `json:"media_sequence"`
	DiscontinuitySequence  uint64 `json:"discontinuity_sequence"`
	CircuitBreakerState    string `json:"circuit_breaker_state"`
	ConsecutiveGapAlert    bool   `json:"consecutive_gap_alert"`
}

// KeystoreDetail is the keystore-specific health payload.
type KeystoreDetail struct {
	HasCurrentKey bool   `json:"has_current_key"`
	CurrentKeyID  string `json:"current_key_id,omitempty"`
}

// FailoverDetail is the failover-specific health payload.
type FailoverDetail struct {
	State     string `json:"state"`
	ActiveURI string `json:"active_uri"`
}

// KeyServerDetail is the FairPlay key server reachability payload.
type KeyServerDetail struct {
	URI          string `json:"uri"`
	ReachableErr string `json:"reachable_err,omitempty"`
}
