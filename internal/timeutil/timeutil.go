// Package timeutil handles the service's display timezone.
package timeutil

import (
	"log"
	"time"
)

// DefaultZone is used when no timezone is configured or loading fails.
const DefaultZone = "Europe/Oslo"

// LoadZone loads the named zone, falling back to DefaultZone and then UTC.
func LoadZone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	log.Printf("failed to load timezone %q: %v; falling back to %s", name, err, DefaultZone)
	if loc, err = time.LoadLocation(DefaultZone); err == nil {
		return loc
	}
	return time.UTC
}

// ToLocal converts a forecast timestamp (UTC on the wire) into loc.
func ToLocal(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}
