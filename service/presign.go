package service

import (
	"context"
	"time"

	"github.com/tnqbao/gau-media-service/entity"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// PresignedURL is one resolved item of a batch. URL is nil when the media is
// unknown or its URL could not be produced.
type PresignedURL struct {
	ID       string  `json:"id"`
	URL      *string `json:"url"`
	FileName string  `json:"file_name"`
}

type blobRef struct {
	ID       string
	FilePath string
}

// ResolveBatch presigns every id independently. The result keeps the input
// order with duplicates collapsed to their first occurrence. A ttl of zero
// selects the default lifetime.
func (s *Service) ResolveBatch(ctx context.Context, ids []string, ttl time.Duration) (results []PresignedURL, err error) {
	ctx, span := s.startSpan(ctx, "ResolveBatch")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("media.batch_size", len(ids)))

	results = make([]PresignedURL, 0, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.repo.MediaRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, internalFailure(err, "failed to load media")
	}

	byID := make(map[string]*entity.Media, len(found))
	refs := make([]blobRef, 0, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
		refs = append(refs, blobRef{ID: found[i].ID, FilePath: found[i].FilePath})
	}

	urls, err := s.presignAll(ctx, refs, s.clampTTL(ttl))
	if err != nil {
		return nil, err
	}

	for _, id := range unique {
		item := PresignedURL{ID: id}
		if media, ok := byID[id]; ok {
			item.FileName = media.FileName
			item.URL = urls[id]
		}
		results = append(results, item)
	}

	return results, nil
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.opts.PresignTTL
	}
	if ttl > MaxPresignTTL {
		return MaxPresignTTL
	}
	return ttl
}

// presignAll resolves refs with bounded concurrency. Item failures leave a
// nil entry; only cancellation of ctx fails the whole call.
func (s *Service) presignAll(ctx context.Context, refs []blobRef, ttl time.Duration) (map[string]*string, error) {
	resolved := make([]*string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			resolved[i] = s.resolveURL(gctx, ref, ttl)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, newError(KindInternalFailure, err, "url resolution cancelled")
	}

	urls := make(map[string]*string, len(refs))
	for i, ref := range refs {
		urls[ref.ID] = resolved[i]
	}
	return urls, nil
}

// resolveURL returns a presigned GET URL for ref or nil on failure. Only
// default-lifetime URLs go through the cache.
func (s *Service) resolveURL(ctx context.Context, ref blobRef, ttl time.Duration) *string {
	useCache := s.cache != nil && ttl == s.opts.PresignTTL &&
		s.opts.URLCacheTTL > 0 && s.opts.URLCacheTTL < ttl

	if useCache {
		if url, err := s.cache.GetPresignedURL(ctx, ref.ID); err == nil && url != "" {
			return &url
		}
	}

	url, err := s.store.PresignedGet(ctx, ref.FilePath, ttl)
	if err != nil {
		s.presignFailures.Add(ctx, 1)
		resolveErr := newError(KindURLResolutionFailure, err, "failed to presign %s", ref.FilePath)
		s.logWarn(ctx, "[Media] URL resolution failed for media %s: %v", ref.ID, resolveErr)
		return nil
	}

	if useCache {
		if err := s.cache.SetPresignedURL(ctx, ref.ID, url, s.opts.URLCacheTTL); err != nil {
			s.logWarn(ctx, "[Media] Failed to cache URL for media %s: %v", ref.ID, err)
		}
	}

	return &url
}

// refreshURL re-resolves media.FileURL and stores it when it changed.
func (s *Service) refreshURL(ctx context.Context, media *entity.Media) {
	url := s.resolveURL(ctx, blobRef{ID: media.ID, FilePath: media.FilePath}, s.opts.PresignTTL)
	if url == nil {
		return
	}

	changed := media.FileURL == nil || *media.FileURL != *url
	media.FileURL = url
	if !changed {
		return
	}

	if err := s.repo.MediaRepo.UpdateFileURL(ctx, media.ID, url); err != nil {
		s.logWarn(ctx, "[Media] Failed to store resolved URL for media %s: %v", media.ID, err)
	}
}
