package hoverrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gekko3d/hoverrace"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics counts race events on the global meter provider. A nil *Metrics
// records nothing.
type Metrics struct {
	checkpointsAccepted metric.Int64Counter
	checkpointsRejected metric.Int64Counter
	resets              metric.Int64Counter
	phaseTransitions    metric.Int64Counter
	finished            metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	return newMetrics(meter())
}

func newMetrics(m metric.Meter) (*Metrics, error) {
	var (
		res Metrics
		err error
	)
	if res.checkpointsAccepted, err = m.Int64Counter("hoverrace.checkpoints.accepted",
		metric.WithDescription("Checkpoint crossings that advanced a racer")); err != nil {
		return nil, err
	}
	if res.checkpointsRejected, err = m.Int64Counter("hoverrace.checkpoints.rejected",
		metric.WithDescription("Checkpoint crossings outside the skip tolerance")); err != nil {
		return nil, err
	}
	if res.resets, err = m.Int64Counter("hoverrace.vehicle.resets",
		metric.WithDescription("Vehicles returned to their last checkpoint")); err != nil {
		return nil, err
	}
	if res.phaseTransitions, err = m.Int64Counter("hoverrace.race.phase_transitions",
		metric.WithDescription("Race phase changes")); err != nil {
		return nil, err
	}
	if res.finished, err = m.Int64Counter("hoverrace.race.finished",
		metric.WithDescription("Races that produced a winner")); err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *Metrics) CheckpointAccepted(racer string) {
	if m == nil {
		return
	}
	m.checkpointsAccepted.Add(context.Background(), 1, metric.WithAttributes(attribute.String("racer", racer)))
}

func (m *Metrics) CheckpointRejected(racer string) {
	if m == nil {
		return
	}
	m.checkpointsRejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("racer", racer)))
}

func (m *Metrics) VehicleReset(racer string) {
	if m == nil {
		return
	}
	m.resets.Add(context.Background(), 1, metric.WithAttributes(attribute.String("racer", racer)))
}

func (m *Metrics) PhaseTransition(phase RacePhase) {
	if m == nil {
		return
	}
	m.phaseTransitions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("phase", phase.String())))
}

func (m *Metrics) RaceFinished(winner string) {
	if m == nil {
		return
	}
	m.finished.Add(context.Background(), 1, metric.WithAttributes(attribute.String("racer", winner)))
}
