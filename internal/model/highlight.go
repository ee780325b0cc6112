package model

import "time"

// WaveHighlight is the current forecast highlight for a location (hot table):
// the sample with the highest wave height in the latest ocean forecast,
// together with the wind speed of the nearest weather sample.
type WaveHighlight struct {
	LocationID        int64     `gorm:"primaryKey"`
	ObservedAt        time.Time `gorm:"not null"` // when the poller recorded it
	Time              time.Time `gorm:"not null"` // forecast time of the max wave
	WaveHeight        float64   `gorm:"not null"`
	WaveFromDirection float64   `gorm:"not null"`
	WaterSpeed        float64   `gorm:"not null"`
	WaterTemperature  float64   `gorm:"not null"`
	WaterToDirection  float64   `gorm:"not null"`
	WindSpeed         float64   `gorm:"not null"`
}

// WaveHighlightHistory is the archive of superseded highlights (cold table).
// PeriodStart/PeriodEnd bound the interval during which the archived row was
// the current highlight; ObservedAt is when the supersession was recorded.
type WaveHighlightHistory struct {
	ID                int64     `gorm:"autoIncrement"`
	LocationID        int64     `gorm:"not null;index;primaryKey"`
	ObservedAt        time.Time `gorm:"not null;index;primaryKey"`
	Time              time.Time `gorm:"not null"`
	WaveHeight        float64   `gorm:"not null"`
	WaveFromDirection float64   `gorm:"not null"`
	WaterSpeed        float64   `gorm:"not null"`
	WaterTemperature  float64   `gorm:"not null"`
	WaterToDirection  float64   `gorm:"not null"`
	WindSpeed         float64   `gorm:"not null"`
	PeriodStart       time.Time `gorm:"not null"`
	PeriodEnd         time.Time `gorm:"not null"`
}
