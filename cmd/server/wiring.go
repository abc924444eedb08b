package main

import (
	"context"
	"fmt"
	"log"
	"time"

	awsrekognition "github.com/aws/aws-sdk-go-v2/service/rekognition"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nutrisnap/backend/config"
	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/infrastructure/awsconfig"
	"github.com/nutrisnap/backend/internal/infrastructure/cache"
	"github.com/nutrisnap/backend/internal/infrastructure/nutritionix"
	"github.com/nutrisnap/backend/internal/infrastructure/rekognition"
	s3store "github.com/nutrisnap/backend/internal/infrastructure/s3"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/memory"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/mongo"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/postgres"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/sqlite"
	"github.com/nutrisnap/backend/internal/usecase"
)

const nutritionixBurst = 10

// newNutritionClient returns nil when no Nutritionix credentials are configured
func newNutritionClient(cfg *config.Config) *nutritionix.Client {
	if !cfg.Nutritionix.Configured() {
		log.Printf("WARNING: Nutritionix credentials not configured - using fallback nutrition table only")
		return nil
	}

	client := nutritionix.NewClient(cfg.Nutritionix.AppID, cfg.Nutritionix.AppKey, cfg.Nutritionix.BaseURL)
	client.SetTimezone(cfg.Nutritionix.Timezone)
	client.SetRateLimit(cfg.RateLimit.Nutritionix, nutritionixBurst)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		log.Printf("Nutritionix client debug mode enabled")
	}

	log.Printf("Nutritionix API configured: %s (app id: %s)", cfg.Nutritionix.BaseURL, cfg.Nutritionix.AppID)
	return client
}

// newResolver wires the resolver to client and the configured cache. The returned
// func stops the cache janitor.
func newResolver(cfg *config.Config, client *nutritionix.Client) (*usecase.NutritionResolver, func()) {
	var source domain.NutritionSource
	if client != nil {
		source = client
	}

	var nutritionCache domain.NutritionCache
	closeCache := func() {}
	if cfg.Cache.Type == "memory" {
		memoryCache := cache.NewMemoryCache(10 * time.Minute)
		nutritionCache = memoryCache
		closeCache = memoryCache.Close
		log.Printf("Cache: memory (TTL %s)", cfg.Cache.TTL)
	}

	resolver := usecase.NewNutritionResolver(source, nutritionCache, usecase.NutritionResolverConfig{
		CacheTTL: cfg.Cache.TTL,
		Timeout:  cfg.Nutritionix.Timeout,
	})
	return resolver, closeCache
}

// openTrackerRepository opens the configured tracker store
func openTrackerRepository(ctx context.Context, cfg *config.Config) (domain.TrackerRepository, func() error, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.NewStore(), func() error { return nil }, nil

	case "sqlite":
		store, err := sqlite.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		log.Printf("Tracker store: sqlite (%s)", store.Path())
		return store, store.Close, nil

	case "postgres":
		store, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, store.Close, nil

	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := mongo.Connect(connectCtx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, mongo.DefaultCollection)
		if err != nil {
			return nil, nil, fmt.Errorf("opening mongo store: %w", err)
		}
		closeStore := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return store.Close(ctx)
		}
		return store, closeStore, nil
	}

	return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// newAWSAdapters builds the Rekognition detector and S3 image store when enabled.
// Either result may be nil.
func newAWSAdapters(ctx context.Context, cfg *config.Config) (domain.LabelDetector, domain.ImageStore, error) {
	if !cfg.AWS.Rekognition && cfg.AWS.Bucket == "" {
		return nil, nil, nil
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey)
	if err != nil {
		return nil, nil, err
	}

	var detector domain.LabelDetector
	if cfg.AWS.Rekognition {
		detector = rekognition.NewDetector(awsrekognition.NewFromConfig(awsCfg), cfg.AWS.MaxLabels, cfg.AWS.MinConfidence)
		log.Printf("Classifier: AWS Rekognition (%s)", cfg.AWS.Region)
	}

	var images domain.ImageStore
	if cfg.AWS.Bucket != "" {
		images = s3store.NewImageStore(awss3.NewFromConfig(awsCfg), cfg.AWS.Bucket, cfg.AWS.Region, cfg.AWS.PublicURL)
		log.Printf("Image store: s3://%s", cfg.AWS.Bucket)
	}

	return detector, images, nil
}

// newClassifier wraps detector with the label matcher. Without a detector the service
// reports the model as unavailable.
func newClassifier(cfg *config.Config, detector domain.LabelDetector) *usecase.ClassificationService {
	if detector == nil {
		log.Printf("WARNING: no image classifier configured - classification returns 'Model not available'")
	}

	matcher := usecase.NewLabelMatcher(usecase.MatchConfig{
		MinConfidence:       cfg.Matching.MinConfidence,
		EnableFuzzyMatching: cfg.Matching.EnableFuzzyMatching,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	})
	return usecase.NewClassificationService(detector, matcher)
}
