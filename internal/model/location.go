package model

import "time"

// Location is a point of interest at sea for which forecasts are tracked.
type Location struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	// ExtraThresh is added to the global alert threshold for this location.
	ExtraThresh float64   `gorm:"not null;default:0" json:"extraThresh"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`
}
