// Package astro derives day/night state and display strings from the
// timestamps carried in a weather snapshot. The provider supplies a flat UTC
// offset in seconds, not a named timezone; no DST rules apply beyond what the
// offset already encodes.
package astro

import (
	"fmt"
	"time"
)

// clockLayout is a 12-hour clock with AM/PM suffix.
const clockLayout = "03:04 PM"

// Times holds display-ready local time information for one snapshot.
type Times struct {
	IsDay     bool   `json:"isDay"`
	LocalTime string `json:"localTime"`
	DayLength string `json:"dayLength"`
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
}

// Compute converts the UTC instants to local wall-clock representations using
// the fixed offset. IsDay is true iff sunrise <= now <= sunset, inclusive at
// both ends. Day length is floored to whole minutes and formatted "12h 30m".
func Compute(now, sunrise, sunset time.Time, utcOffsetSeconds int) Times {
	loc := time.FixedZone("local", utcOffsetSeconds)
	nowLocal := now.In(loc)
	sunriseLocal := sunrise.In(loc)
	sunsetLocal := sunset.In(loc)

	isDay := !nowLocal.Before(sunriseLocal) && !nowLocal.After(sunsetLocal)

	minutes := int(sunset.Sub(sunrise).Minutes())
	dayLength := fmt.Sprintf("%dh %dm", minutes/60, minutes%60)

	return Times{
		IsDay:     isDay,
		LocalTime: nowLocal.Format(clockLayout),
		DayLength: dayLength,
		Sunrise:   sunriseLocal.Format(clockLayout),
		Sunset:    sunsetLocal.Format(clockLayout),
	}
}

// compassPoints are the 16-point compass names, clockwise from north.
var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CardinalDirection maps wind degrees [0,360) to a 16-point compass name.
// Used only for display alongside the raw degree value.
func CardinalDirection(deg int) string {
	sector := 360.0 / float64(len(compassPoints))
	idx := int(float64(deg)/sector + 0.5)
	return compassPoints[idx%len(compassPoints)]
}
