package metrics

import "time"

// PointResult labels the outcome of one scan point.
type PointResult string

const (
	PointAccepted PointResult = "accepted"
	PointSkipped  PointResult = "skipped"
	PointFailed   PointResult = "failed"
)

// Outcome labels the outcome of a whole run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Recorder defines the observability hooks of a scan run.
type Recorder interface {
	ObservePointDuration(d time.Duration)
	IncPointResult(result PointResult)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome Outcome)
	SetTableShape(histograms, bins, columns int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePointDuration(time.Duration) {}
func (NoopRecorder) IncPointResult(PointResult)         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)   {}
func (NoopRecorder) IncRunOutcome(Outcome)              {}
func (NoopRecorder) SetTableShape(int, int, int)        {}
