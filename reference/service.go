package reference

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/william251082/fileupload/database"
	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/keygen"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/storage"
	"github.com/william251082/fileupload/validation"
)

// ErrPresignUnsupported is returned by NewService when the redirect
// strategy is configured on a backend that cannot presign.
var ErrPresignUnsupported = errors.New("reference: storage backend cannot presign downloads")

// Service ties the reference lifecycle together.
type Service struct {
	pipeline  *Pipeline
	gateway   *Gateway
	reorderer *Reorderer
	registry  *Registry
	backend   storage.Backend
	log       *logger.Logger
	metrics   *metrics
}

// NewService wires the reference components. backend is the shared store;
// reference blobs are kept under StoragePrefix inside it.
func NewService(cfg Config, download DownloadConfig, db *database.DB, backend storage.Backend,
	articles Articles, log *logger.Logger, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	download.ApplyDefaults()
	if err := download.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keys == nil {
		o.keys = &keygen.Generator{}
	}
	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("reference metrics: %w", err)
	}

	log = log.WithComponent("reference")
	backend = storage.WithPrefix(backend, StoragePrefix)
	registry := NewRegistry(db)

	gateway := &Gateway{cfg: download, backend: backend, registry: registry}
	presigner, canPresign := backend.(storage.Presigner)
	switch download.Strategy {
	case StrategyRedirect:
		if !canPresign {
			return nil, ErrPresignUnsupported
		}
		gateway.presigner = presigner
	case StrategyAuto:
		if canPresign {
			gateway.presigner = presigner
		}
	}

	return &Service{
		pipeline: &Pipeline{
			maxSize:  cfg.MaxSizeBytes(),
			allowed:  cfg.AllowedMimeTypes,
			backend:  backend,
			registry: registry,
			articles: articles,
			keys:     o.keys,
			log:      log,
			metrics:  m,
		},
		gateway:   gateway,
		reorderer: &Reorderer{registry: registry},
		registry:  registry,
		backend:   backend,
		log:       log,
		metrics:   m,
	}, nil
}

func (s *Service) Pipeline() *Pipeline   { return s.pipeline }
func (s *Service) Gateway() *Gateway     { return s.gateway }
func (s *Service) Reorderer() *Reorderer { return s.reorderer }
func (s *Service) Registry() *Registry   { return s.registry }

func (s *Service) Upload(ctx context.Context, in UploadInput) (*Reference, error) {
	return s.pipeline.Upload(ctx, in)
}

func (s *Service) Get(ctx context.Context, id uint64) (*Reference, error) {
	return s.registry.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, articleID uint64) ([]Reference, error) {
	return s.registry.ListByArticle(ctx, articleID)
}

func (s *Service) Resolve(ctx context.Context, id uint64, check AccessCheck) (*Resolution, error) {
	return s.gateway.Resolve(ctx, id, check)
}

func (s *Service) Reorder(ctx context.Context, articleID uint64, orderedIDs []uint64) ([]Reference, error) {
	return s.reorderer.Reorder(ctx, articleID, orderedIDs)
}

// Update changes the filename and/or media type. The blob is not touched.
func (s *Service) Update(ctx context.Context, id uint64, patch MetadataPatch) (_ *Reference, err error) {
	ctx, span := observability.StartSpan(ctx, "reference.update", attribute.Int64("reference.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Validate(patch); err != nil {
		return nil, err
	}
	if patch.OriginalFilename != nil {
		name := CleanFilename(*patch.OriginalFilename, "")
		if name == "" {
			return nil, apperrors.InvalidInput("originalFilename", "must not be blank")
		}
		patch.OriginalFilename = &name
	}
	return s.registry.UpdateMetadata(ctx, id, patch)
}

// Remove deletes the metadata and then the blob. Once the row is gone the
// call succeeds: a missing blob is logged as a warning and any other
// storage error is logged and counted as a cleanup failure.
func (s *Service) Remove(ctx context.Context, id uint64) (err error) {
	ctx, span := observability.StartSpan(ctx, "reference.remove", attribute.Int64("reference.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	key, err := s.registry.Remove(ctx, id)
	if err != nil {
		return err
	}
	s.metrics.deleted.Add(ctx, 1)

	fields := logger.Fields(logger.FieldReferenceID, id, logger.FieldStorageKey, key)
	if err := s.backend.Delete(context.WithoutCancel(ctx), key); err != nil {
		if storage.IsNotFound(err) {
			s.log.Warn("blob already missing on delete", fields)
		} else {
			s.metrics.cleanupFailures.Add(ctx, 1)
			span.RecordError(err)
			s.log.WithError(err).Error("blob cleanup failed, orphan left in storage", fields)
		}
		return nil
	}
	s.log.Info("reference removed", fields)
	return nil
}
