// Package saveslots contains the save service shared by the HTTP API and the
// command line.
package saveslots

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/colonyops/saveslots/internal/core/saves"
)

// Service wraps saves.Store with logging and metrics.
type Service struct {
	store saves.Store
	log   zerolog.Logger
}

// NewService creates a new Service.
func NewService(store saves.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("cmp", "saves").Logger(),
	}
}

// List returns the readable slots. Slots skipped because they could not be
// parsed are logged and reported in the skipped gauge.
func (s *Service) List(ctx context.Context) (saves.ListResult, error) {
	result, err := s.store.List(ctx)
	s.record(ctx, "list", 0, err)
	if err != nil {
		return saves.ListResult{}, err
	}

	skippedMetric.Set(float64(result.Skipped))
	if result.Skipped > 0 {
		s.log.Warn().Ctx(ctx).
			Int("skipped", result.Skipped).
			Int("listed", len(result.Saves)).
			Msg("skipped unreadable save files")
	}

	return result, nil
}

// Save fully replaces the document for id.
func (s *Service) Save(ctx context.Context, id int, doc json.RawMessage) error {
	err := s.store.Save(ctx, id, doc)
	s.record(ctx, "save", id, err)
	return err
}

// Get returns the document for id.
func (s *Service) Get(ctx context.Context, id int) (json.RawMessage, error) {
	doc, err := s.store.Get(ctx, id)
	s.record(ctx, "get", id, err)
	return doc, err
}

// Delete removes the slot if present.
func (s *Service) Delete(ctx context.Context, id int) error {
	err := s.store.Delete(ctx, id)
	s.record(ctx, "delete", id, err)
	return err
}

// Import validates raw and stores it. The slot is untouched on failure.
func (s *Service) Import(ctx context.Context, id int, raw string) error {
	err := s.store.Import(ctx, id, raw)
	s.record(ctx, "import", id, err)
	return err
}

// Export returns the document for id indented for download.
func (s *Service) Export(ctx context.Context, id int) (json.RawMessage, error) {
	doc, err := s.store.Get(ctx, id)
	if err == nil {
		doc, err = saves.Indent(doc)
	}
	s.record(ctx, "export", id, err)
	return doc, err
}

// TrackChanges logs slot file changes from events until the channel closes.
// Meant to run in its own goroutine.
func (s *Service) TrackChanges(events <-chan saves.SlotEvent) {
	for event := range events {
		externalChangesMetric.WithLabelValues(string(event.Op)).Inc()
		s.log.Info().
			Int("slot", event.ID).
			Str("op", string(event.Op)).
			Time("at", event.Timestamp).
			Msg("slot file changed")
	}
}

func (s *Service) record(ctx context.Context, op string, id int, err error) {
	res := outcome(err)
	operationsMetric.WithLabelValues(op, res).Inc()

	var evt *zerolog.Event
	switch res {
	case OutcomeOK, OutcomeNotFound:
		evt = s.log.Debug()
	case OutcomeError:
		evt = s.log.Error().Err(err)
	default:
		evt = s.log.Warn().Err(err)
	}

	if op != "list" {
		evt = evt.Int("slot", id)
	}
	evt.Ctx(ctx).Str("op", op).Str("outcome", res).Msg("save store operation")
}
