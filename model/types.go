// Package model holds the data types shared across the dispatch engine:
// the message envelope, the per-message data map, target pairs, jobs and
// the item handed to sink plugins.
package model

import (
	"time"

	"github.com/rskv-p/mqttwarn/logger"
)

// Envelope is the message as received from the broker.
type Envelope struct {
	Topic      string
	RawPayload []byte
	Retained   bool
}

// DataMap is the string-keyed mapping built per message and handed to
// hooks, format/title/image/priority evaluation, and target interpolation.
type DataMap map[string]any

// Clone returns a shallow copy so that workers never alias the
// dispatcher's data map (see spec §3 ownership invariant).
func (d DataMap) Clone() DataMap {
	out := make(DataMap, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// TargetPair is (service, target_key?); an empty TargetKey means
// "fan out to every valid target key of the service".
type TargetPair struct {
	Service   string
	TargetKey string
}

// Job is enqueued by the dispatcher and consumed by a worker.
type Job struct {
	Priority    int
	ServiceName string
	Section     string
	TargetKey   string
	Config      map[string]any
	Topic       string
	RawPayload  []byte
	Data        DataMap
	Title       string
	Image       string
	Message     string
	EnqueuedAt  time.Time
}

// Item is the value passed to a sink plugin's Deliver method. It is built
// from a Job by the worker immediately before invocation.
type Item struct {
	Service    string
	Section    string
	Target     string
	Config     map[string]any
	Addrs      any
	Topic      string
	Payload    string
	RawPayload []byte
	Data       DataMap
	Title      string
	Image      string
	Message    string
	Priority   int
}

// Outcome records what happened to a single job after a worker processed it.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Publisher republishes a payload to the broker; sinks and cron targets
// use it to talk back (e.g. acknowledge, chain a follow-up message).
type Publisher interface {
	Publish(topic string, qos int, retained bool, payload []byte) error
}

// ServiceCtx is handed to every sink Deliver call, factory constructor,
// and cron target invocation (SPEC_FULL.md §6).
type ServiceCtx struct {
	Log        logger.ILogger
	Publish    Publisher
	ScriptName string
}

// Event describes one completed job, surfaced to the admin/introspection
// feed (see SPEC_FULL.md §10.5); it carries no sink-internal state.
type Event struct {
	Service   string
	Target    string
	Section   string
	Topic     string
	Outcome   Outcome
	Err       string
	Elapsed   time.Duration
	Timestamp time.Time
}
