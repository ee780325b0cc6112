package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"waves-on-map-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	ListLocations(ctx context.Context, limit int) ([]model.Location, error)
	GetLocation(ctx context.Context, id int64) (model.Location, error)
	CreateLocation(ctx context.Context, loc *model.Location) error
	SeedLocations(ctx context.Context) error
	CurrentHighlights(ctx context.Context) (map[int64]model.WaveHighlight, error)
	UpdateHighlights(ctx context.Context, now time.Time, updates []HighlightUpdate, threshold func(model.Location) float64) ([]int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListLocations returns locations ordered by ID. limit <= 0 means all.
func (s *gormStore) ListLocations(ctx context.Context, limit int) ([]model.Location, error) {
	var locs []model.Location
	q := s.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&locs).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

func (s *gormStore) GetLocation(ctx context.Context, id int64) (model.Location, error) {
	var loc model.Location
	err := s.db.WithContext(ctx).First(&loc, id).Error
	return loc, err
}

func (s *gormStore) CreateLocation(ctx context.Context, loc *model.Location) error {
	return s.db.WithContext(ctx).Create(loc).Error
}

// SeedLocations inserts the default locations when the table is empty.
func (s *gormStore) SeedLocations(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Location{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count locations: %w", err)
	}
	if count > 0 {
		return nil
	}
	log.Printf("locations table empty, seeding %d default locations", len(defaultLocations))
	seeds := make([]model.Location, len(defaultLocations))
	copy(seeds, defaultLocations)
	return s.db.WithContext(ctx).Create(&seeds).Error
}

// CurrentHighlights returns the hot-table rows keyed by location ID.
func (s *gormStore) CurrentHighlights(ctx context.Context) (map[int64]model.WaveHighlight, error) {
	var rows []model.WaveHighlight
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[int64]model.WaveHighlight, len(rows))
	for _, r := range rows {
		m[r.LocationID] = r
	}
	return m, nil
}

// UpdateHighlights persists freshly computed highlights transactionally.
// A highlight that supersedes a different one archives the old row to the
// history table first. The returned IDs are the locations whose highlight
// newly reached its alert threshold, for notification fan-out.
func (s *gormStore) UpdateHighlights(ctx context.Context, now time.Time, updates []HighlightUpdate, threshold func(model.Location) float64) ([]int64, error) {
	current, err := s.CurrentHighlights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current highlights: %w", err)
	}

	var notifyIDs []int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			newRec := u.Highlight
			newRec.LocationID = u.Location.ID
			newRec.ObservedAt = now

			old, exists := current[u.Location.ID]
			if exists {
				if sameHighlight(old, newRec) {
					continue
				}
				if err := archiveHighlight(tx, old, now); err != nil {
					return err
				}
				if err := tx.Save(&newRec).Error; err != nil {
					return fmt.Errorf("failed to update highlight for location %d: %w", u.Location.ID, err)
				}
			} else {
				if err := tx.Create(&newRec).Error; err != nil {
					return fmt.Errorf("failed to create highlight for location %d: %w", u.Location.ID, err)
				}
			}

			thresh := threshold(u.Location)
			if newRec.WaveHeight >= thresh && (!exists || old.WaveHeight < thresh) {
				notifyIDs = append(notifyIDs, u.Location.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifyIDs, nil
}

func sameHighlight(a, b model.WaveHighlight) bool {
	return a.Time.Equal(b.Time) &&
		a.WaveHeight == b.WaveHeight &&
		a.WaveFromDirection == b.WaveFromDirection &&
		a.WaterSpeed == b.WaterSpeed &&
		a.WaterTemperature == b.WaterTemperature &&
		a.WaterToDirection == b.WaterToDirection &&
		a.WindSpeed == b.WindSpeed
}

// archiveHighlight writes the superseded highlight to the history table.
// The period covers the interval during which it was the current highlight.
func archiveHighlight(tx *gorm.DB, old model.WaveHighlight, now time.Time) error {
	hist := model.WaveHighlightHistory{
		LocationID:        old.LocationID,
		ObservedAt:        now,
		Time:              old.Time,
		WaveHeight:        old.WaveHeight,
		WaveFromDirection: old.WaveFromDirection,
		WaterSpeed:        old.WaterSpeed,
		WaterTemperature:  old.WaterTemperature,
		WaterToDirection:  old.WaterToDirection,
		WindSpeed:         old.WindSpeed,
		PeriodStart:       old.ObservedAt,
		PeriodEnd:         now,
	}
	if err := tx.Create(&hist).Error; err != nil {
		return fmt.Errorf("failed to archive highlight for location %d: %w", old.LocationID, err)
	}
	return nil
}
