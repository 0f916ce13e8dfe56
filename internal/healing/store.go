package healing

import (
	"locator-healer/internal/entity"
	"locator-healer/internal/ports"
	"locator-healer/pkg/logg"
	"sort"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const storeName = "FingerprintStore"

// Store is the keyed fingerprint registry plus the append-only healing event
// log. Single-owner state: the host runner serializes all heal/register steps,
// so no locking is needed. Unbounded for the lifetime of the run.
type Store struct {
	logger       *zap.Logger
	sink         ports.EventSink
	fingerprints map[string]entity.ElementFingerprint
	events       []entity.HealingEvent
}

type StoreParams struct {
	fx.In

	Logger *zap.Logger
	Sink   ports.EventSink `optional:"true"`
}

func NewStore(params StoreParams) *Store {
	return &Store{
		logger:       params.Logger.With(zap.String(logg.Layer, storeName)),
		sink:         params.Sink,
		fingerprints: make(map[string]entity.ElementFingerprint),
	}
}

// Save stores the fingerprint under its name, last write wins.
func (s *Store) Save(fp entity.ElementFingerprint) {
	s.fingerprints[fp.Name] = fp
}

func (s *Store) Get(name string) (entity.ElementFingerprint, bool) {
	fp, ok := s.fingerprints[name]

	return fp, ok
}

func (s *Store) Has(name string) bool {
	_, ok := s.fingerprints[name]

	return ok
}

// RecordEvent appends the event, bumps the referenced fingerprint's heal
// count and last-seen timestamp, and offers the event to the sink.
func (s *Store) RecordEvent(event entity.HealingEvent) {
	s.events = append(s.events, event)

	if fp, ok := s.fingerprints[event.ElementName]; ok {
		fp.HealCount++
		fp.LastSeen = event.Timestamp
		s.fingerprints[event.ElementName] = fp
	}

	if s.sink != nil {
		s.sink.Offer(event)
	}
}

// Fingerprints returns all stored fingerprints sorted by name.
func (s *Store) Fingerprints() []entity.ElementFingerprint {
	fps := make([]entity.ElementFingerprint, 0, len(s.fingerprints))
	for _, fp := range s.fingerprints {
		fps = append(fps, fp)
	}

	sort.Slice(fps, func(i, j int) bool {
		return fps[i].Name < fps[j].Name
	})

	return fps
}

func (s *Store) Events() []entity.HealingEvent {
	events := make([]entity.HealingEvent, len(s.events))
	copy(events, s.events)

	return events
}

func (s *Store) ClearEvents() {
	s.events = nil
}

func (s *Store) ExportState() entity.StoreSnapshot {
	return entity.StoreSnapshot{
		Fingerprints:  s.Fingerprints(),
		HealingEvents: s.Events(),
	}
}

// ImportState replaces the store's contents with the snapshot.
func (s *Store) ImportState(snapshot entity.StoreSnapshot) {
	s.fingerprints = make(map[string]entity.ElementFingerprint, len(snapshot.Fingerprints))
	for _, fp := range snapshot.Fingerprints {
		s.fingerprints[fp.Name] = fp
	}

	s.events = make([]entity.HealingEvent, len(snapshot.HealingEvents))
	copy(s.events, snapshot.HealingEvents)

	s.logger.Info("store state imported",
		zap.Int("fingerprints", len(snapshot.Fingerprints)),
		zap.Int("events", len(snapshot.HealingEvents)))
}
