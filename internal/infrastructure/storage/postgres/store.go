package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nutrisnap/backend/internal/domain"
)

// trackerEntryRow is the gorm model for tracker_entries
type trackerEntryRow struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)"`
	Owner     string            `gorm:"index:idx_tracker_owner_date,priority:1;not null"`
	FoodItem  string            `gorm:"not null"`
	Quantity  string            `gorm:"not null;default:''"`
	Calories  string            `gorm:"not null;default:''"`
	Nutrients map[string]string `gorm:"serializer:json;type:jsonb"`
	Date      string            `gorm:"index:idx_tracker_owner_date,priority:2;type:varchar(10);not null"`
	MealType  string            `gorm:"not null;default:'lunch'"`
	ImageRef  string            `gorm:"type:text"`
	Timestamp time.Time         `gorm:"index;not null"`
}

// TableName sets the table name for tracker entries
func (trackerEntryRow) TableName() string {
	return "tracker_entries"
}

// Store is a PostgreSQL-backed tracker repository
type Store struct {
	db *gorm.DB
}

var _ domain.TrackerRepository = (*Store)(nil)

// Open connects to PostgreSQL using dsn and migrates the schema
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewStore(db)
}

// NewStore wraps an existing gorm connection and migrates the schema
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&trackerEntryRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert stores a new entry. Reusing an existing id is an invalid request.
func (s *Store) Insert(ctx context.Context, entry *domain.TrackerEntry) error {
	if entry == nil || entry.ID == "" || entry.Owner == "" {
		return domain.ErrInvalidRequest
	}
	row := toRow(entry)
	return insertError(entry.ID, s.db.WithContext(ctx).Create(&row).Error)
}

// Find returns the owner's entries newest first
func (s *Store) Find(ctx context.Context, owner string, filter domain.EntryFilter) ([]domain.TrackerEntry, error) {
	query := s.db.WithContext(ctx).Where("owner = ?", owner)
	if filter.DateFrom != "" {
		query = query.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("date <= ?", filter.DateTo)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []trackerEntryRow
	if err := query.Order("timestamp desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying tracker entries: %w", err)
	}

	entries := make([]domain.TrackerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromRow(row))
	}
	return entries, nil
}

// Delete removes an entry only when it belongs to owner
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).Delete(&trackerEntryRow{})
	if result.Error != nil {
		return fmt.Errorf("deleting tracker entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// insertError maps gorm insert failures onto domain errors
func insertError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: entry %s already exists", domain.ErrInvalidRequest, id)
	default:
		return fmt.Errorf("inserting tracker entry: %w", err)
	}
}

func toRow(e *domain.TrackerEntry) trackerEntryRow {
	nutrients := make(map[string]string, len(e.Nutrients))
	for k, v := range e.Nutrients {
		nutrients[k] = string(v)
	}
	return trackerEntryRow{
		ID:        e.ID,
		Owner:     e.Owner,
		FoodItem:  string(e.FoodItem),
		Quantity:  e.Quantity,
		Calories:  e.Calories,
		Nutrients: nutrients,
		Date:      e.Date,
		MealType:  e.MealType,
		ImageRef:  e.ImageRef,
		Timestamp: e.Timestamp.UTC(),
	}
}

func fromRow(r trackerEntryRow) domain.TrackerEntry {
	nutrients := make(map[string]domain.NutrientValue, len(r.Nutrients))
	for k, v := range r.Nutrients {
		nutrients[k] = domain.NutrientValue(v)
	}
	return domain.TrackerEntry{
		ID:        r.ID,
		Owner:     r.Owner,
		FoodItem:  domain.FoodLabel(r.FoodItem),
		Quantity:  r.Quantity,
		Calories:  r.Calories,
		Nutrients: nutrients,
		Date:      r.Date,
		MealType:  r.MealType,
		ImageRef:  r.ImageRef,
		Timestamp: r.Timestamp.UTC(),
	}
}
