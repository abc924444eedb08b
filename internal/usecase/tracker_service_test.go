package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/memory"
)

// MockImageStore is a mock implementation of domain.ImageStore
type MockImageStore struct {
	ref     string
	err     error
	uploads int
}

func (m *MockImageStore) Upload(ctx context.Context, owner, dataURI string) (string, error) {
	m.uploads++
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

// failingRepository rejects every write
type failingRepository struct {
	*memory.Store
}

func (failingRepository) Insert(ctx context.Context, entry *domain.TrackerEntry) error {
	return errors.New("disk full")
}

var fixedNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestTracker(repo domain.TrackerRepository, images domain.ImageStore) *TrackerService {
	return NewTrackerService(repo, images, TrackerServiceConfig{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
}

func TestNewTrackerService(t *testing.T) {
	svc := NewTrackerService(memory.NewStore(), nil, TrackerServiceConfig{})

	if svc.location != time.Local {
		t.Errorf("location = %v, want Local", svc.location)
	}
	if svc.recentLimit != DefaultRecentLimit {
		t.Errorf("recentLimit = %d, want %d", svc.recentLimit, DefaultRecentLimit)
	}
	if svc.now == nil {
		t.Error("now should default to time.Now")
	}
}

func TestAddEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults", func(t *testing.T) {
		store := memory.NewStore()
		svc := newTestTracker(store, nil)

		nutrients := map[string]domain.NutrientValue{"Protein": "50.0 g"}
		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{
			FoodItem:  domain.FoodSteak,
			Quantity:  "200",
			Calories:  "542",
			Nutrients: nutrients,
		})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}

		if entry.ID == "" {
			t.Error("expected an entry ID")
		}
		if entry.Owner != "alice" {
			t.Errorf("Owner = %s, want alice", entry.Owner)
		}
		if entry.Date != "2024-05-20" {
			t.Errorf("Date = %s, want 2024-05-20", entry.Date)
		}
		if entry.MealType != domain.DefaultMealType {
			t.Errorf("MealType = %s, want %s", entry.MealType, domain.DefaultMealType)
		}
		if !entry.Timestamp.Equal(fixedNow) {
			t.Errorf("Timestamp = %v, want %v", entry.Timestamp, fixedNow)
		}
		if entry.Quantity != "200" || entry.Calories != "542" {
			t.Errorf("Quantity/Calories = %s/%s, want 200/542", entry.Quantity, entry.Calories)
		}

		// Nutrients are stored verbatim and detached from the request map
		nutrients["Protein"] = "1.0 g"
		if entry.Nutrients["Protein"] != "50.0 g" {
			t.Errorf("Protein = %s, want 50.0 g", entry.Nutrients["Protein"])
		}

		stored, err := store.Find(ctx, "alice", domain.EntryFilter{})
		if err != nil || len(stored) != 1 {
			t.Fatalf("Find() = %d entries, %v; want 1, nil", len(stored), err)
		}
		if stored[0].ID != entry.ID {
			t.Errorf("stored ID = %s, want %s", stored[0].ID, entry.ID)
		}
	})

	t.Run("keeps explicit date, meal and timestamp", func(t *testing.T) {
		svc := newTestTracker(memory.NewStore(), nil)
		ts := time.Date(2024, 5, 1, 19, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{
			FoodItem:  domain.FoodPizza,
			Date:      "2024-05-01",
			MealType:  "dinner",
			Timestamp: ts,
		})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if entry.Date != "2024-05-01" || entry.MealType != "dinner" {
			t.Errorf("Date/MealType = %s/%s, want 2024-05-01/dinner", entry.Date, entry.MealType)
		}
		if !entry.Timestamp.Equal(ts) || entry.Timestamp.Location() != time.UTC {
			t.Errorf("Timestamp = %v, want %v in UTC", entry.Timestamp, ts)
		}
	})

	t.Run("dates follow the configured timezone", func(t *testing.T) {
		svc := NewTrackerService(memory.NewStore(), nil, TrackerServiceConfig{
			Location: time.FixedZone("UTC+13", 13*60*60),
			Now:      func() time.Time { return fixedNow },
		})

		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if entry.Date != "2024-05-21" {
			t.Errorf("Date = %s, want 2024-05-21", entry.Date)
		}
	})

	t.Run("validates request", func(t *testing.T) {
		svc := newTestTracker(memory.NewStore(), nil)

		testCases := []struct {
			name    string
			owner   string
			req     domain.NewEntryRequest
			wantErr error
		}{
			{name: "missing owner", owner: "", req: domain.NewEntryRequest{FoodItem: domain.FoodPizza}, wantErr: domain.ErrUnauthorized},
			{name: "missing food", owner: "alice", req: domain.NewEntryRequest{FoodItem: "  "}, wantErr: domain.ErrInvalidRequest},
			{name: "bad date", owner: "alice", req: domain.NewEntryRequest{FoodItem: domain.FoodPizza, Date: "05/20/2024"}, wantErr: domain.ErrInvalidRequest},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := svc.AddEntry(ctx, tc.owner, tc.req); !errors.Is(err, tc.wantErr) {
					t.Errorf("AddEntry() error = %v, want %v", err, tc.wantErr)
				}
			})
		}
	})

	t.Run("repository failure is returned", func(t *testing.T) {
		svc := newTestTracker(failingRepository{memory.NewStore()}, nil)

		if _, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza}); err == nil {
			t.Error("AddEntry() error = nil, want repository error")
		}
	})
}

func TestAddEntry_Images(t *testing.T) {
	ctx := context.Background()
	const dataURI = "data:image/png;base64,iVBORw0KGgo="

	t.Run("inline without image store", func(t *testing.T) {
		svc := newTestTracker(memory.NewStore(), nil)

		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza, ImageData: dataURI})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if entry.ImageRef != dataURI {
			t.Errorf("ImageRef = %q, want inline data URI", entry.ImageRef)
		}
	})

	t.Run("uploaded to image store", func(t *testing.T) {
		images := &MockImageStore{ref: "https://bucket.example/tracker-images/alice/1.png"}
		svc := newTestTracker(memory.NewStore(), images)

		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza, ImageData: dataURI})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if entry.ImageRef != images.ref {
			t.Errorf("ImageRef = %q, want %q", entry.ImageRef, images.ref)
		}
	})

	t.Run("upload failure drops the image only", func(t *testing.T) {
		images := &MockImageStore{err: errors.New("access denied")}
		svc := newTestTracker(memory.NewStore(), images)

		entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza, ImageData: dataURI})
		if err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if entry.ImageRef != "" {
			t.Errorf("ImageRef = %q, want empty", entry.ImageRef)
		}
	})

	t.Run("no image skips upload", func(t *testing.T) {
		images := &MockImageStore{ref: "unused"}
		svc := newTestTracker(memory.NewStore(), images)

		if _, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza}); err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
		if images.uploads != 0 {
			t.Errorf("uploads = %d, want 0", images.uploads)
		}
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("partitions windows and sums totals", func(t *testing.T) {
		store := memory.NewStore()
		svc := newTestTracker(store, nil)

		add := func(date, calories string, nutrients map[string]domain.NutrientValue) {
			t.Helper()
			_, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{
				FoodItem:  domain.FoodSteak,
				Calories:  calories,
				Nutrients: nutrients,
				Date:      date,
			})
			if err != nil {
				t.Fatalf("AddEntry() error = %v", err)
			}
		}

		add("2024-05-20", "542", map[string]domain.NutrientValue{"Protein": "50.0 g", "Saturated Fat": "16.0 g"})
		add("2024-05-20", "not a number", map[string]domain.NutrientValue{"Protein": "N/A"})
		add("2024-04-20", "100", map[string]domain.NutrientValue{"Protein": "5.0 g"})
		add("2024-04-19", "900", map[string]domain.NutrientValue{"Protein": "90.0 g"})

		dashboard, err := svc.Dashboard(ctx, "alice")
		if err != nil {
			t.Fatalf("Dashboard() error = %v", err)
		}

		if dashboard.Username != "alice" {
			t.Errorf("Username = %s, want alice", dashboard.Username)
		}
		if len(dashboard.TodayEntries) != 2 {
			t.Errorf("len(TodayEntries) = %d, want 2", len(dashboard.TodayEntries))
		}
		if len(dashboard.MonthlyEntries) != 3 {
			t.Errorf("len(MonthlyEntries) = %d, want 3", len(dashboard.MonthlyEntries))
		}
		if len(dashboard.RecentEntries) != 4 {
			t.Errorf("len(RecentEntries) = %d, want 4", len(dashboard.RecentEntries))
		}

		if got := dashboard.TodayTotals[domain.BucketCalories]; got != 542 {
			t.Errorf("today calories = %v, want 542", got)
		}
		if got := dashboard.TodayTotals[domain.BucketProtein]; got != 50 {
			t.Errorf("today protein = %v, want 50", got)
		}
		if got := dashboard.TodayTotals[domain.BucketFat]; got != 0 {
			t.Errorf("today fat = %v, want 0 (saturated fat excluded)", got)
		}
		if got := dashboard.MonthlyTotals[domain.BucketCalories]; got != 642 {
			t.Errorf("monthly calories = %v, want 642", got)
		}
		if got := dashboard.MonthlyTotals[domain.BucketProtein]; got != 55 {
			t.Errorf("monthly protein = %v, want 55", got)
		}
	})

	t.Run("empty diary", func(t *testing.T) {
		svc := newTestTracker(memory.NewStore(), nil)

		dashboard, err := svc.Dashboard(ctx, "nobody")
		if err != nil {
			t.Fatalf("Dashboard() error = %v", err)
		}
		if len(dashboard.TodayEntries) != 0 || len(dashboard.MonthlyEntries) != 0 {
			t.Error("expected no entries")
		}
		if len(dashboard.TodayTotals) != len(domain.AllBuckets) {
			t.Errorf("len(TodayTotals) = %d, want %d", len(dashboard.TodayTotals), len(domain.AllBuckets))
		}
	})

	t.Run("recent entries are limited and newest first", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewTrackerService(store, nil, TrackerServiceConfig{
			Location:    time.UTC,
			RecentLimit: 2,
			Now:         func() time.Time { return fixedNow },
		})

		for i := 0; i < 3; i++ {
			_, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{
				FoodItem:  domain.FoodPizza,
				Calories:  "100",
				Timestamp: fixedNow.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				t.Fatalf("AddEntry() error = %v", err)
			}
		}

		dashboard, err := svc.Dashboard(ctx, "alice")
		if err != nil {
			t.Fatalf("Dashboard() error = %v", err)
		}
		if len(dashboard.RecentEntries) != 2 {
			t.Fatalf("len(RecentEntries) = %d, want 2", len(dashboard.RecentEntries))
		}
		if !dashboard.RecentEntries[0].Timestamp.After(dashboard.RecentEntries[1].Timestamp) {
			t.Error("RecentEntries not ordered newest first")
		}
		if len(dashboard.TodayEntries) != 3 {
			t.Errorf("len(TodayEntries) = %d, want 3", len(dashboard.TodayEntries))
		}
	})

	t.Run("requires owner", func(t *testing.T) {
		svc := newTestTracker(memory.NewStore(), nil)
		if _, err := svc.Dashboard(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Dashboard() error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	svc := newTestTracker(memory.NewStore(), nil)

	entry, err := svc.AddEntry(ctx, "alice", domain.NewEntryRequest{FoodItem: domain.FoodPizza})
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	if err := svc.DeleteEntry(ctx, "bob", entry.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("DeleteEntry(bob) error = %v, want ErrEntryNotFound", err)
	}
	if err := svc.DeleteEntry(ctx, "alice", " "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("DeleteEntry(blank id) error = %v, want ErrInvalidRequest", err)
	}
	if err := svc.DeleteEntry(ctx, "", entry.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("DeleteEntry(no owner) error = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteEntry(ctx, "alice", entry.ID); err != nil {
		t.Errorf("DeleteEntry() error = %v", err)
	}
	if err := svc.DeleteEntry(ctx, "alice", entry.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("second DeleteEntry() error = %v, want ErrEntryNotFound", err)
	}
}
