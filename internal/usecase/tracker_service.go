package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutrisnap/backend/internal/domain"
)

// DefaultRecentLimit is the number of recent entries shown on the dashboard
const DefaultRecentLimit = 10

// TrackerServiceConfig holds configuration for the tracker service
type TrackerServiceConfig struct {
	Location    *time.Location
	RecentLimit int
	Now         func() time.Time
}

// TrackerService records diary entries and computes the owner's dashboard
type TrackerService struct {
	repo        domain.TrackerRepository
	images      domain.ImageStore
	location    *time.Location
	recentLimit int
	now         func() time.Time
}

// NewTrackerService creates a tracker service. images may be nil, in which case
// submitted images are kept inline on the entry.
func NewTrackerService(repo domain.TrackerRepository, images domain.ImageStore, config TrackerServiceConfig) *TrackerService {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	limit := config.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &TrackerService{
		repo:        repo,
		images:      images,
		location:    loc,
		recentLimit: limit,
		now:         now,
	}
}

// AddEntry records one consumed food for owner. Nutrient values are stored as given.
func (s *TrackerService) AddEntry(ctx context.Context, owner string, req domain.NewEntryRequest) (*domain.TrackerEntry, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(string(req.FoodItem)) == "" {
		return nil, fmt.Errorf("%w: food_item is required", domain.ErrInvalidRequest)
	}

	now := s.now().In(s.location)

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format(domain.DateLayout)
	} else if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidRequest)
	}

	mealType := strings.TrimSpace(req.MealType)
	if mealType == "" {
		mealType = domain.DefaultMealType
	}

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	nutrients := make(map[string]domain.NutrientValue, len(req.Nutrients))
	for name, value := range req.Nutrients {
		nutrients[name] = value
	}

	entry := &domain.TrackerEntry{
		ID:        uuid.NewString(),
		Owner:     owner,
		FoodItem:  req.FoodItem,
		Quantity:  req.Quantity,
		Calories:  req.Calories,
		Nutrients: nutrients,
		Date:      date,
		MealType:  mealType,
		ImageRef:  s.storeImage(ctx, owner, req.ImageData),
		Timestamp: timestamp.UTC(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save tracker entry: %w", err)
	}

	log.Printf("[Tracker] Added %s to tracker for %s", entry.FoodItem, owner)
	return entry, nil
}

// storeImage uploads the image when an image store is configured. Upload failures
// drop the image rather than the entry.
func (s *TrackerService) storeImage(ctx context.Context, owner, imageData string) string {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return ""
	}
	if s.images == nil {
		return imageData
	}

	ref, err := s.images.Upload(ctx, owner, imageData)
	if err != nil {
		log.Printf("[Tracker] Image upload failed for %s: %v", owner, err)
		return ""
	}
	return ref
}

// Dashboard returns today's and the trailing month's entries with their totals,
// plus the most recent entries
func (s *TrackerService) Dashboard(ctx context.Context, owner string) (*domain.Dashboard, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}

	now := s.now().In(s.location)

	windowEntries, err := s.repo.Find(ctx, owner, domain.EntryFilter{DateFrom: MonthlyWindowStart(now)})
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker entries: %w", err)
	}
	today, monthly := SelectWindows(windowEntries, now)

	recent, err := s.repo.Find(ctx, owner, domain.EntryFilter{Limit: s.recentLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}

	return &domain.Dashboard{
		Username:       owner,
		TodayEntries:   today,
		MonthlyEntries: monthly,
		TodayTotals:    Aggregate(today),
		MonthlyTotals:  Aggregate(monthly),
		RecentEntries:  recent,
	}, nil
}

// DeleteEntry removes one of owner's entries
func (s *TrackerService) DeleteEntry(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: entry id is required", domain.ErrInvalidRequest)
	}
	return s.repo.Delete(ctx, owner, id)
}
