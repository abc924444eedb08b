package usecase

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/infrastructure/nutritionix"
)

// NutritionResolverConfig holds configuration for the nutrition resolver
type NutritionResolverConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NutritionResolver turns a food label and quantity into a nutrition record.
// Source failures of any kind degrade to the local fallback table.
type NutritionResolver struct {
	source   domain.NutritionSource
	cache    domain.NutritionCache
	cacheTTL time.Duration
	timeout  time.Duration
	group    singleflight.Group
}

// NewNutritionResolver creates a resolver. source and cache may be nil: without a
// source every lookup uses the fallback table, without a cache nothing is memoized.
func NewNutritionResolver(
	source domain.NutritionSource,
	cache domain.NutritionCache,
	config NutritionResolverConfig,
) *NutritionResolver {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &NutritionResolver{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// Resolve looks up nutrition for quantity grams of label. It always returns a record.
// Flow: check cache -> query source (bounded by timeout) -> map or fall back -> cache
func (r *NutritionResolver) Resolve(ctx context.Context, label domain.FoodLabel, rawQuantity string) domain.NutritionRecord {
	quantity := CoerceQuantity(rawQuantity)

	if r.cache == nil {
		return r.resolve(ctx, label, quantity)
	}

	key := resolutionCacheKey(label, quantity)
	if cached, err := r.cache.Get(ctx, key); err == nil && cached != nil {
		record := *cached
		record.Source = domain.SourceCache
		return record
	}

	// Concurrent misses for one key share a single outbound call. The shared call is
	// detached from any one caller's cancellation and bounded by the resolver timeout.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		record := r.resolve(context.WithoutCancel(ctx), label, quantity)
		if record.Source == domain.SourceNutritionix {
			if err := r.cache.Set(context.WithoutCancel(ctx), key, &record, r.cacheTTL); err != nil {
				log.Printf("[Resolver] Failed to cache %q: %v", key, err)
			}
		}
		return record, nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.NutritionRecord)
	case <-ctx.Done():
		log.Printf("[Resolver] Request cancelled while resolving %q: %v", key, ctx.Err())
		return FallbackNutrition(label, quantity.Grams, quantity.FallbackDisplay())
	}
}

// resolve queries the source once and takes the fallback branch on any failure
func (r *NutritionResolver) resolve(ctx context.Context, label domain.FoodLabel, quantity Quantity) domain.NutritionRecord {
	query := BuildNutritionQuery(quantity, label)

	food, err := r.lookup(ctx, query)
	if err != nil {
		log.Printf("[Resolver] Using fallback nutrition for %q: %v", query, err)
		return FallbackNutrition(label, quantity.Grams, quantity.FallbackDisplay())
	}

	return nutritionix.MapToNutritionRecord(food, label, quantity.Grams, quantity.Display)
}

// lookup performs the bounded external call
func (r *NutritionResolver) lookup(ctx context.Context, query string) (*domain.NutritionixFood, error) {
	if r.source == nil {
		return nil, domain.ErrNutritionSourceFailure
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	food, err := r.source.NaturalNutrients(ctx, query)
	if err != nil {
		return nil, err
	}
	if food == nil {
		return nil, domain.ErrFoodNotFound
	}
	return food, nil
}
