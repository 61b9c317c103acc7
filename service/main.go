package service

import (
	"context"
	"errors"
	"time"

	"github.com/tnqbao/gau-media-service/config"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/infra"
	"github.com/tnqbao/gau-media-service/infra/produce"
	"github.com/tnqbao/gau-media-service/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	instrumentationName = "github.com/tnqbao/gau-media-service/service"

	DefaultPresignTTL = 24 * time.Hour
	MaxPresignTTL     = 7 * 24 * time.Hour

	UnlinkPromotionNone = "none"
	UnlinkPromotionNext = "next"
)

// URLCache stores resolved presigned URLs by media id.
type URLCache interface {
	GetPresignedURL(ctx context.Context, mediaID string) (string, error)
	SetPresignedURL(ctx context.Context, mediaID, url string, ttl time.Duration) error
	DeletePresignedURL(ctx context.Context, mediaID string) error
}

// EventPublisher schedules asynchronous blob removal.
type EventPublisher interface {
	PublishBlobDelete(ctx context.Context, msg produce.DeleteBlobMessage) error
}

type Options struct {
	PresignTTL      time.Duration
	MaxBytes        int64
	Concurrency     int
	URLCacheTTL     time.Duration
	UnlinkPromotion string
}

func OptionsFromConfig(cfg *config.EnvConfig) Options {
	return Options{
		PresignTTL:      cfg.Media.PresignTTL,
		MaxBytes:        cfg.Media.MaxBytes,
		Concurrency:     cfg.Media.ResolverConcurrency,
		URLCacheTTL:     cfg.Media.URLCacheTTL,
		UnlinkPromotion: cfg.Media.UnlinkPromotion,
	}
}

type Service struct {
	repo   *repository.Repository
	store  infra.BlobStore
	cache  URLCache
	events EventPublisher
	logger *infra.LoggerClient
	opts   Options

	tracer          trace.Tracer
	uploads         metric.Int64Counter
	dedupHits       metric.Int64Counter
	presignFailures metric.Int64Counter
}

// NewService wires the media service. cache and events may be nil.
func NewService(repo *repository.Repository, store infra.BlobStore, cache URLCache, events EventPublisher, logger *infra.LoggerClient, opts Options) *Service {
	if repo == nil {
		panic("Failed to initialize Service: repository is nil")
	}
	if store == nil {
		panic("Failed to initialize Service: blob store is nil")
	}

	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}
	if opts.PresignTTL > MaxPresignTTL {
		opts.PresignTTL = MaxPresignTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}
	if opts.UnlinkPromotion != UnlinkPromotionNext {
		opts.UnlinkPromotion = UnlinkPromotionNone
	}

	meter := otel.Meter(instrumentationName)
	return &Service{
		repo:            repo,
		store:           store,
		cache:           cache,
		events:          events,
		logger:          logger,
		opts:            opts,
		tracer:          otel.Tracer(instrumentationName),
		uploads:         newCounter(meter, "media.uploads", "Media objects written to storage"),
		dedupHits:       newCounter(meter, "media.upload.dedup_hits", "Uploads served from an existing media row"),
		presignFailures: newCounter(meter, "media.presign.failures", "Presigned URL requests that failed"),
	}
}

// NewServiceFromInfra builds the service from the process-wide clients.
func NewServiceFromInfra(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Service {
	var cache URLCache
	if infra.Redis != nil {
		cache = infra.Redis
	}
	var events EventPublisher
	if infra.Produce != nil {
		events = infra.Produce.MediaService
	}
	return NewService(repo, infra.Storage, cache, events, infra.Logger, OptionsFromConfig(cfg.EnvConfig))
}

func newCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "media."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	span.End()
}

// MediaRecord is a media row as presented to callers, optionally merged with
// one of its associations.
type MediaRecord struct {
	entity.Media
	EntityID     *string            `json:"entity_id,omitempty"`
	EntityType   *entity.EntityType `json:"entity_type,omitempty"`
	IsPrimary    bool               `json:"is_primary"`
	DisplayOrder int                `json:"display_order"`
}

func newMediaRecord(media *entity.Media, link *entity.EntityMedia) *MediaRecord {
	record := &MediaRecord{Media: *media}
	if link != nil {
		entityID := link.EntityID
		entityType := link.EntityType
		record.EntityID = &entityID
		record.EntityType = &entityType
		record.IsPrimary = link.IsPrimary
		record.DisplayOrder = link.DisplayOrder
	}
	return record
}

func validateOwner(entityID string, entityType entity.EntityType) error {
	if entityID == "" {
		return invalidFormat("entity_id is required")
	}
	if !entityType.Valid() {
		return invalidFormat("unknown entity_type %q", entityType)
	}
	return nil
}

// wrapRepoError turns a repository failure into a service error, mapping
// missing rows to NotFound.
func wrapRepoError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(KindNotFound, err, format, args...)
	}
	return internalFailure(err, format, args...)
}

func (s *Service) logWarn(ctx context.Context, format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.WarningWithContextf(ctx, format, args...)
	}
}

func (s *Service) logError(ctx context.Context, err error, format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.ErrorWithContextf(ctx, err, format, args...)
	}
}

func (s *Service) logInfo(ctx context.Context, format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.InfoWithContextf(ctx, format, args...)
	}
}
