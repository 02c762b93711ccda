package selector

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/coreflux/agentturn/pkg/models"
)

// indexConcurrency bounds how many embedding calls IndexCatalog issues at
// once (spec §4.1, "Embeddings & cache": first-load indexing fans out
// across the catalog rather than embedding tools one at a time).
const indexConcurrency = 4

// IndexCatalog computes and caches an embedding for every tool in catalog
// that the cache doesn't already have, applying schema optimization
// before storing the definition (spec §4.1, "Embeddings & cache"). Safe
// to call on every startup; already-cached tools are skipped. Embedding
// calls run concurrently, bounded by indexConcurrency and rate-limited by
// limiter (pass nil for no rate limiting).
func IndexCatalog(ctx context.Context, embedder Embedder, cache *EmbeddingCache, catalog []models.ToolDefinition, limiter *rate.Limiter) error {
	if embedder == nil || cache == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(indexConcurrency)
	var mu sync.Mutex

	for _, def := range catalog {
		if _, _, ok := cache.Get(def.Name); ok {
			continue
		}
		def := def
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return fmt.Errorf("rate limiter wait for tool %q: %w", def.Name, err)
				}
			}
			optimized := OptimizeDefinition(def)
			text := IndexableText(buildIndexInput(optimized))
			emb, err := embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embedding tool %q: %w", def.Name, err)
			}
			mu.Lock()
			cache.Put(def.Name, emb, optimized)
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}
