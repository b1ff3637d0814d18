package weather

import "strings"

// ConditionIcon maps the provider's coarse condition category to a display
// glyph for the dashboard header.
func ConditionIcon(conditionMain string) string {
	main := strings.ToLower(conditionMain)
	switch {
	case strings.Contains(main, "clear"):
		return "☀️"
	case strings.Contains(main, "cloud"):
		return "☁️"
	case strings.Contains(main, "rain"), strings.Contains(main, "drizzle"):
		return "🌧️"
	case strings.Contains(main, "thunderstorm"):
		return "⛈️"
	case strings.Contains(main, "snow"):
		return "❄️"
	case strings.Contains(main, "mist"), strings.Contains(main, "fog"), strings.Contains(main, "haze"):
		return "🌫️"
	default:
		return "🌡️"
	}
}
