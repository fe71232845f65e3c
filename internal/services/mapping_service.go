// Package services – MappingService
//
// This file implements the MappingService, which hands out surrogates for
// original URLs and resolves them back. Creation is deduplicated: while a
// valid mapping exists for an original, the same record is returned. Resolution
// counts every successful lookup with an atomic backend increment.
//
// Concurrent Create calls for the same original may both miss and both insert.
// That race is accepted; neither backend enforces uniqueness on original.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-ridiculink/internal/domain"
	"github.com/tbourn/go-ridiculink/internal/observability"
	"github.com/tbourn/go-ridiculink/internal/repo"
)

// MappingBackend is the storage contract required by MappingService.
// Lookups report absence with repo.ErrNotFound.
type MappingBackend interface {
	// FindValidByOriginal returns a mapping for original with expires_at > now.
	FindValidByOriginal(ctx context.Context, original string, now time.Time) (*domain.Mapping, error)

	// Insert stores a new mapping.
	Insert(ctx context.Context, m *domain.Mapping) error

	// FindValidBySurrogate returns the mapping for surrogate with expires_at > now.
	FindValidBySurrogate(ctx context.Context, surrogate string, now time.Time) (*domain.Mapping, error)

	// IncrementAccessCount atomically adds one to access_count of mapping id.
	IncrementAccessCount(ctx context.Context, id string) error
}

// MappingPurger is implemented by backends that need explicit removal of
// expired records.
type MappingPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SurrogateGenerator produces a surrogate for an original at a point in time.
type SurrogateGenerator interface {
	Generate(original string, now time.Time) string
}

// MappingService creates and resolves URL mappings.
type MappingService struct {
	// Store is the persistence backend.
	Store MappingBackend
	// Generator builds surrogates for new mappings.
	Generator SurrogateGenerator

	// Now is the clock; results are converted to UTC.
	Now func() time.Time
	// NewID returns record identifiers.
	NewID func() string
}

// NewMappingService constructs a MappingService using the wall clock and
// random UUIDs for record ids.
func NewMappingService(store MappingBackend, gen SurrogateGenerator) *MappingService {
	return &MappingService{
		Store:     store,
		Generator: gen,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Create returns the valid mapping for original if one exists (isExisting is
// true and nothing is written). Otherwise it generates a surrogate, stores a
// fresh mapping expiring after domain.MappingTTL and returns it.
func (s *MappingService) Create(ctx context.Context, original string) (*domain.Mapping, bool, error) {
	tr := otel.Tracer("services/MappingService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("original.length", len(original))),
	)
	defer span.End()

	now := s.now()

	existing, err := s.Store.FindValidByOriginal(ctx, original, now)
	switch {
	case err == nil:
		observability.MappingsReused.Inc()
		span.SetAttributes(attribute.Bool("mapping.existing", true))
		return existing, true, nil
	case !repo.IsNotFound(err):
		return nil, false, s.storageErr(span, "find_by_original", err)
	}

	m := domain.NewMapping(s.newID(), original, s.Generator.Generate(original, now), now)
	if err := s.Store.Insert(ctx, m); err != nil {
		return nil, false, s.storageErr(span, "insert", err)
	}

	observability.MappingsCreated.Inc()
	span.SetAttributes(
		attribute.Bool("mapping.existing", false),
		attribute.String("mapping.id", m.ID),
	)
	return m, false, nil
}

// ResolveAndTouch returns the valid mapping for surrogate and increments its
// access counter. The returned record carries the count as read, before the
// increment. Unknown and expired surrogates yield ErrMappingNotFound.
func (s *MappingService) ResolveAndTouch(ctx context.Context, surrogate string) (*domain.Mapping, error) {
	tr := otel.Tracer("services/MappingService")
	ctx, span := tr.Start(ctx, "ResolveAndTouch")
	defer span.End()

	m, err := s.Store.FindValidBySurrogate(ctx, surrogate, s.now())
	if err != nil {
		if repo.IsNotFound(err) {
			observability.RecordResolution(false)
			return nil, ErrMappingNotFound
		}
		return nil, s.storageErr(span, "find_by_surrogate", err)
	}

	if err := s.Store.IncrementAccessCount(ctx, m.ID); err != nil {
		// The record expired or vanished between lookup and increment.
		if repo.IsNotFound(err) {
			observability.RecordResolution(false)
			return nil, ErrMappingNotFound
		}
		return nil, s.storageErr(span, "increment", err)
	}

	observability.RecordResolution(true)
	span.SetAttributes(attribute.String("mapping.id", m.ID))
	return m, nil
}

// PurgeExpired removes expired mappings when the backend supports it and
// reports how many were deleted. Backends that expire records on their own
// report zero.
func (s *MappingService) PurgeExpired(ctx context.Context) (int64, error) {
	p, ok := s.Store.(MappingPurger)
	if !ok {
		return 0, nil
	}

	tr := otel.Tracer("services/MappingService")
	ctx, span := tr.Start(ctx, "PurgeExpired")
	defer span.End()

	n, err := p.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, s.storageErr(span, "purge", err)
	}
	observability.MappingsPurged.Add(float64(n))
	span.SetAttributes(attribute.Int64("mappings.purged", n))
	return n, nil
}

func (s *MappingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *MappingService) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *MappingService) storageErr(span trace.Span, op string, cause error) error {
	observability.RecordStorageFailure(op)
	span.RecordError(cause)
	span.SetStatus(codes.Error, op)
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, cause)
}
