package models

import "time"

// Coordinates is the location the weather provider resolved the query to.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherSnapshot is an immutable, fully populated weather record for one
// fetch cycle. It is only constructed by the weather client, which fails the
// whole construction when any required provider field is missing. Optional
// pointer fields (wind direction, visibility) may be nil.
type WeatherSnapshot struct {
	TemperatureC         float64     `json:"temperatureC"`
	FeelsLikeC           float64     `json:"feelsLikeC"`
	ConditionMain        string      `json:"conditionMain"`
	ConditionDescription string      `json:"conditionDescription"`
	HumidityPct          int         `json:"humidityPct"`
	WindSpeedMps         float64     `json:"windSpeedMps"`
	WindDirectionDeg     *int        `json:"windDirectionDeg,omitempty"`
	PressureHPa          int         `json:"pressureHPa"`
	VisibilityM          *int        `json:"visibilityM,omitempty"`
	CloudinessPct        int         `json:"cloudinessPct"`
	ObservedAt           time.Time   `json:"observedAt"`
	SunriseAt            time.Time   `json:"sunriseAt"`
	SunsetAt             time.Time   `json:"sunsetAt"`
	UTCOffsetSeconds     int         `json:"utcOffsetSeconds"`
	Coordinates          Coordinates `json:"coordinates"`
}

// NewsArticle is one headline as returned by the news provider, in provider
// order. Author and description are frequently absent upstream.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// DashboardRequest carries the user's inputs for one fetch cycle. It replaces
// any ambient session state; the pipeline only ever sees this value.
type DashboardRequest struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Query   string `json:"query,omitempty"`
}
