package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/media/repository"
)

// ObjectStore is the storage capability the pipeline needs.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) error
}

// Pipeline turns one uploaded original into four derivatives plus a
// manifest. Invocations are idempotent: the pending->processing
// compare-and-set makes a re-delivery or a concurrent trigger a silent
// no-op. Once started, a run always reaches a terminal state; deadlines are
// the caller's concern.
type Pipeline struct {
	repo           repository.MediaRepository
	store          ObjectStore
	outputBucket   string
	manifestBucket string
	workers        int64
	logger         zerolog.Logger
}

type Config struct {
	Repo           repository.MediaRepository
	Store          ObjectStore
	OutputBucket   string
	ManifestBucket string
	// Workers bounds concurrent resize/encode jobs; defaults to the number
	// of CPU cores.
	Workers int
	Logger  zerolog.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if cfg.OutputBucket == "" {
		return nil, fmt.Errorf("output bucket is empty")
	}
	if cfg.ManifestBucket == "" {
		return nil, fmt.Errorf("manifest bucket is empty")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pipeline{
		repo:           cfg.Repo,
		store:          cfg.Store,
		outputBucket:   cfg.OutputBucket,
		manifestBucket: cfg.ManifestBucket,
		workers:        int64(workers),
		logger:         cfg.Logger.With().Str("component", "variant_pipeline").Logger(),
	}, nil
}

// Process runs the full pipeline for one media. It returns an error only for
// faults outside the state machine (repository failures); a media that ends
// up failed is a completed run.
func (p *Pipeline) Process(ctx context.Context, mediaID uuid.UUID) error {
	logger := p.logger.With().Str("media_id", mediaID.String()).Logger()

	// Single mutual-exclusion point: losing the CAS means another
	// invocation owns (or already finished) this media.
	won, err := p.repo.CASState(ctx, mediaID, models.PendingState, models.ProcessingState)
	if err != nil {
		return fmt.Errorf("claim media: %w", err)
	}
	if !won {
		logger.Debug().Msg("media not pending, skipping")
		return nil
	}

	m, err := p.repo.GetByID(ctx, mediaID)
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}

	data, err := p.store.Download(ctx, m.BucketName, m.ObjectKey)
	if err != nil {
		logger.Error().Err(err).Msg("original download failed")
		return p.fail(ctx, mediaID, fmt.Sprintf("download: %v", err))
	}

	img, err := decodeOriginal(data)
	if err != nil {
		logger.Warn().Err(err).Msg("original rejected")
		return p.fail(ctx, mediaID, fmt.Sprintf("decode: %v", err))
	}

	rendered, renderErrs := p.renderAndUpload(ctx, mediaID, img)
	if len(renderErrs) > 0 {
		for _, e := range renderErrs {
			logger.Error().Err(e).Msg("variant failed")
		}
		// Variants already in storage stay there; failed media is wholly
		// unusable for readers regardless of what objects exist.
		return p.fail(ctx, mediaID, joinErrors(renderErrs))
	}

	variants := make([]models.MediaVariant, 0, len(rendered))
	manifest := models.Manifest{MediaID: mediaID}
	for _, v := range rendered {
		key := models.VariantObjectKey(mediaID, v.class)
		variants = append(variants, models.MediaVariant{
			MediaID:       mediaID,
			Size:          v.class,
			BucketName:    p.outputBucket,
			ObjectKey:     key,
			MimeType:      variantMimeType,
			FileSizeBytes: int64(len(v.data)),
			Width:         v.width,
			Height:        v.height,
		})
		manifest.Variants = append(manifest.Variants, models.ManifestVariant{
			Size:   v.class,
			Bucket: p.outputBucket,
			Key:    key,
			Width:  v.width,
			Height: v.height,
			Bytes:  int64(len(v.data)),
			Mime:   variantMimeType,
		})
	}

	if err := p.uploadManifest(ctx, mediaID, manifest); err != nil {
		logger.Error().Err(err).Msg("manifest upload failed")
		return p.fail(ctx, mediaID, fmt.Sprintf("manifest: %v", err))
	}

	// Batch insert plus the ready flip in one transaction: readers never
	// observe ready with an incomplete variant set.
	if _, err := p.repo.RecordVariants(ctx, mediaID, variants); err != nil {
		return fmt.Errorf("record variants: %w", err)
	}

	logger.Info().Int("variants", len(variants)).Msg("media ready")
	return nil
}

// renderAndUpload runs the four per-size jobs concurrently, at most
// p.workers in flight. Jobs are independent: one failure never cancels
// siblings already running, and the aggregate outcome is decided only after
// all four resolve.
func (p *Pipeline) renderAndUpload(ctx context.Context, mediaID uuid.UUID, img image.Image) ([]renderedVariant, []error) {
	sem := semaphore.NewWeighted(p.workers)

	var wg sync.WaitGroup
	results := make([]renderedVariant, len(sizeTargets))
	errs := make([]error, len(sizeTargets))

	for i, target := range sizeTargets {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("%s: acquire worker: %w", target.class, err)
			continue
		}

		wg.Add(1)
		go func(i int, target sizeTarget) {
			defer wg.Done()
			defer sem.Release(1)

			v, err := renderVariant(img, target)
			if err != nil {
				errs[i] = err
				return
			}

			key := models.VariantObjectKey(mediaID, target.class)
			if err := p.store.Upload(ctx, p.outputBucket, key, variantMimeType, v.data); err != nil {
				errs[i] = fmt.Errorf("upload %s: %w", target.class, err)
				return
			}
			results[i] = v
		}(i, target)
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return nil, failed
	}
	return results, nil
}

func (p *Pipeline) fail(ctx context.Context, mediaID uuid.UUID, reason string) error {
	if _, err := p.repo.SetState(ctx, mediaID, models.FailedState, reason); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (p *Pipeline) uploadManifest(ctx context.Context, mediaID uuid.UUID, manifest models.Manifest) error {
	payload, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return p.store.Upload(ctx, p.manifestBucket, models.ManifestObjectKey(mediaID), manifestMimeType, payload)
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
