package saveslots

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/colonyops/saveslots/internal/core/saves"
)

func init() {
	prometheus.MustRegister(operationsMetric, skippedMetric, externalChangesMetric)
}

var (
	operationsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "saveslots",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Save store operations by operation and outcome",
	}, []string{"op", "outcome"})

	skippedMetric = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "saveslots",
		Subsystem: "store",
		Name:      "list_skipped",
		Help:      "Slot files skipped by the most recent listing because they could not be parsed",
	})

	externalChangesMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "saveslots",
		Subsystem: "store",
		Name:      "file_changes_total",
		Help:      "Slot file changes observed on disk",
	}, []string{"op"})
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeCorrupt  = "corrupt"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// outcome classifies err for the operations metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, saves.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, saves.ErrCorrupt):
		return OutcomeCorrupt
	case errors.Is(err, saves.ErrInvalidInput), errors.Is(err, saves.ErrInvalidSlot):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
