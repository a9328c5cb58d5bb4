// Package suncalc calculates sun events for an observer and classifies hours
// of the day into night, dawn, day and dusk.
package suncalc

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// Period names returned by PeriodOf.
const (
	PeriodNight = "night"
	PeriodDawn  = "dawn"
	PeriodDay   = "day"
	PeriodDusk  = "dusk"
)

// SunEventTimes holds the calculated sun event times in the observer's time zone
type SunEventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

// cacheEntry holds the cached sun event times for a given date
type cacheEntry struct {
	times SunEventTimes
	date  time.Time
}

// SunCalc handles caching and calculation of sun event times
type SunCalc struct {
	cache    map[string]cacheEntry
	lock     sync.RWMutex
	observer astral.Observer
	location *time.Location
}

// NewSunCalc creates a SunCalc for an observer. Event times are reported in
// loc; a nil loc means time.Local.
func NewSunCalc(latitude, longitude float64, loc *time.Location) *SunCalc {
	if loc == nil {
		loc = time.Local
	}
	return &SunCalc{
		cache:    make(map[string]cacheEntry),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
		location: loc,
	}
}

// GetSunEventTimes returns the sun event times for a given date, using cache if available
func (sc *SunCalc) GetSunEventTimes(date time.Time) (SunEventTimes, error) {
	date = dayStart(date.In(sc.location))
	dateKey := date.Format(time.DateOnly)

	sc.lock.RLock()
	entry, exists := sc.cache[dateKey]
	sc.lock.RUnlock()
	if exists && entry.date.Equal(date) {
		return entry.times, nil
	}

	times, err := sc.calculateSunEventTimes(date)
	if err != nil {
		return SunEventTimes{}, err
	}

	sc.lock.Lock()
	sc.cache[dateKey] = cacheEntry{times: times, date: date}
	sc.lock.Unlock()

	return times, nil
}

// calculateSunEventTimes calculates the sun event times for a given date
func (sc *SunCalc) calculateSunEventTimes(date time.Time) (SunEventTimes, error) {
	civilDawn, err := astral.Dawn(sc.observer, date, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dawn: %w", err)
	}
	sunrise, err := astral.Sunrise(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunset, err := astral.Sunset(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}
	civilDusk, err := astral.Dusk(sc.observer, date, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate civil dusk: %w", err)
	}

	return SunEventTimes{
		CivilDawn: civilDawn.In(sc.location),
		Sunrise:   sunrise.In(sc.location),
		Sunset:    sunset.In(sc.location),
		CivilDusk: civilDusk.In(sc.location),
	}, nil
}

// PeriodOf classifies the middle of the given wall-clock hour on date.
func (sc *SunCalc) PeriodOf(date time.Time, hour int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("hour %d out of range", hour)
	}
	times, err := sc.GetSunEventTimes(date)
	if err != nil {
		return "", err
	}

	day := dayStart(date.In(sc.location))
	mid := time.Date(day.Year(), day.Month(), day.Day(), hour, 30, 0, 0, sc.location)

	switch {
	case mid.Before(times.CivilDawn):
		return PeriodNight, nil
	case mid.Before(times.Sunrise):
		return PeriodDawn, nil
	case mid.Before(times.Sunset):
		return PeriodDay, nil
	case mid.Before(times.CivilDusk):
		return PeriodDusk, nil
	default:
		return PeriodNight, nil
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
