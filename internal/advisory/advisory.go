// Package advisory derives human-readable suggestions from a weather
// observation. Suggest is a pure function: identical inputs always produce
// the identical ordered suggestion list.
package advisory

import "strings"

// Category names one advisory slot in the dashboard's quick guide.
type Category string

const (
	DressCode        Category = "Dress Code"
	ActivityIdea     Category = "Activity Idea"
	HealthTip        Category = "Health Tip"
	CommuteReadiness Category = "Commute Readiness"
	EnergySavvy      Category = "Energy Savvy"
	GreenThumb       Category = "Green Thumb"
	PetCare          Category = "Pet Care"
	Hydration        Category = "Hydration"
	SunSafety        Category = "Sun Safety"
	WindAdvisory     Category = "Wind Advisory"
	MoodBoost        Category = "Mood Boost"
)

// Categories is the fixed display order. Suggest emits populated slots in
// this order regardless of which rule populated them.
var Categories = []Category{
	DressCode,
	ActivityIdea,
	HealthTip,
	CommuteReadiness,
	EnergySavvy,
	GreenThumb,
	PetCare,
	Hydration,
	SunSafety,
	WindAdvisory,
	MoodBoost,
}

// Input holds the weather attributes the rule engine evaluates. PressureHPa
// and VisibilityM are nil when the provider omitted them; the engine skips
// the corresponding rules instead of failing.
type Input struct {
	TemperatureC float64
	Description  string
	WindSpeedMps float64
	HumidityPct  int
	IsDaytime    bool
	PressureHPa  *int
	VisibilityM  *int
}

// Suggestion pairs a category with its advice text.
type Suggestion struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// slots accumulates rule output keyed by category. set replaces a slot,
// add appends to whatever an earlier rule wrote.
type slots map[Category]string

func (s slots) set(c Category, text string) {
	s[c] = text
}

func (s slots) add(c Category, text string) {
	if cur, ok := s[c]; ok && cur != "" {
		s[c] = cur + " " + text
		return
	}
	s[c] = text
}

// Suggest evaluates the rule table in fixed order: temperature band,
// condition text, wind, pressure, visibility, hydration, pet care. Later
// rules append to a slot unless noted otherwise. The result is never empty:
// the temperature band and hydration rules always fire.
func Suggest(in Input) []Suggestion {
	s := make(slots, len(Categories))

	temperatureRules(s, in.TemperatureC)
	conditionRules(s, in.Description, in.IsDaytime)
	windRules(s, in.WindSpeedMps)
	pressureRules(s, in.PressureHPa)
	visibilityRules(s, in.VisibilityM)
	hydrationRule(s, in.TemperatureC, in.HumidityPct)
	petCareRules(s, in.TemperatureC)

	out := make([]Suggestion, 0, len(s))
	for _, c := range Categories {
		if text, ok := s[c]; ok && text != "" {
			out = append(out, Suggestion{Category: c, Text: text})
		}
	}
	return out
}

// temperatureRules picks exactly one band; bounds are [lower, upper).
func temperatureRules(s slots, temp float64) {
	switch {
	case temp < 5:
		s.set(DressCode, "Heavy coat, hat, gloves. Layers are key!")
		s.set(ActivityIdea, "Indoor games, cozy reading, or snowman building (if snow!).")
		s.set(HealthTip, "Beware of ice! Limit exposed skin. Hypothermia risk.")
	case temp < 15:
		s.set(DressCode, "Light jacket or sweater. Smart to layer.")
		s.set(ActivityIdea, "Museum visits, coffee shop hopping, or a brisk walk.")
	case temp < 25:
		s.set(DressCode, "Comfortable light clothing. Long-sleeves for evenings.")
		s.set(ActivityIdea, "Outdoor sports, picnic, or exploring local sights.")
		s.set(HealthTip, "Sunscreen is vital if sunny. Drink water!")
	case temp < 30:
		s.set(DressCode, "Shorts and t-shirt. Breathable fabrics.")
		s.set(ActivityIdea, "Beach day, swimming, or outdoor dining (in shade).")
		s.set(HealthTip, "Hydrate constantly! Watch for heat exhaustion.")
	default:
		s.set(DressCode, "Lightest clothing. Avoid dark colors.")
		s.set(ActivityIdea, "Indoor pools, air-conditioned places, or early/late outdoor walks.")
		s.set(HealthTip, "Extreme heat! Stay indoors, drink lots of water, check on others.")
	}
}

// conditionRules matches the provider's free-text description
// case-insensitively. Branches are mutually exclusive, first match wins.
func conditionRules(s slots, description string, isDaytime bool) {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "rain") || strings.Contains(desc, "drizzle"):
		s.add(DressCode, "Umbrella/waterproof jacket needed!")
		s.set(ActivityIdea, "Movies, board games, or indoor shopping.")
		s.set(CommuteReadiness, "Slippery roads. Drive slow, increase distance.")
		s.set(GreenThumb, "Plants love it! Collect rainwater.")
		s.set(PetCare, "Wipe paws after walks. Keep pets dry.")
		s.set(MoodBoost, "Cozy up with a warm drink and a good book!")
	case strings.Contains(desc, "snow"):
		s.add(DressCode, "Snow boots, waterproof gear!")
		s.set(ActivityIdea, "Snowball fight, building a snowman, or relaxing indoors.")
		s.set(CommuteReadiness, "Icy/snowy roads. Drive with care or use public transport.")
		s.set(PetCare, "Limit pet outdoor time, protect paws.")
		s.set(MoodBoost, "Enjoy the winter wonderland from inside!")
	case strings.Contains(desc, "fog") || strings.Contains(desc, "mist") || strings.Contains(desc, "haze"):
		s.set(CommuteReadiness, "Low visibility. Use headlights, drive slowly.")
		s.set(HealthTip, "Be extra cautious when walking/driving. Use fog lights.")
		s.set(MoodBoost, "A mysterious, quiet day. Perfect for reflection.")
	case strings.Contains(desc, "clear") && isDaytime:
		s.add(HealthTip, "High UV! Reapply sunscreen often.")
		s.set(SunSafety, "Wear sunglasses and a hat. Seek shade between 10 AM - 4 PM.")
	case strings.Contains(desc, "clear"):
		s.set(ActivityIdea, "Fantastic for stargazing or night photography!")
	case strings.Contains(desc, "cloud"):
		s.set(EnergySavvy, "Good day for natural light, reduce indoor lighting.")
		s.set(MoodBoost, "A mellow day. Perfect for indoor hobbies or gentle walks.")
	}
}

func windRules(s slots, windSpeedMps float64) {
	if windSpeedMps <= 10 {
		return
	}
	s.add(DressCode, "Windproof layers!")
	s.set(ActivityIdea, "Avoid windy sports (e.g., kite flying, exposed cycling).")
	s.set(CommuteReadiness, "Strong gusts can affect tall vehicles. Watch for debris.")
	s.set(WindAdvisory, "Secure loose outdoor items. Stay cautious near tall structures.")
}

// pressureRules fires only on strict inequalities; 1000 and 1020 hPa are
// inside the neutral band.
func pressureRules(s slots, pressure *int) {
	if pressure == nil {
		return
	}
	switch {
	case *pressure < 1000:
		s.add(HealthTip, "Low pressure can sometimes cause headaches for sensitive people.")
		s.add(ActivityIdea, "You might feel sluggish. Relaxing activities are best.")
	case *pressure > 1020:
		s.add(EnergySavvy, "Stable weather. Great for opening windows to air out rooms.")
	}
}

func visibilityRules(s slots, visibilityM *int) {
	if visibilityM == nil || *visibilityM >= 5000 {
		return
	}
	s.set(CommuteReadiness, "Reduced visibility. Drive slower and increase following distance.")
	s.add(HealthTip, "Be extra alert when outdoors.")
}

// hydrationRule always populates Hydration with exactly one of two texts.
func hydrationRule(s slots, temp float64, humidity int) {
	if temp >= 25 || humidity >= 70 {
		s.set(Hydration, "Drink plenty of water throughout the day!")
		return
	}
	s.set(Hydration, "Keep a water bottle handy and sip regularly.")
}

func petCareRules(s slots, temp float64) {
	if temp < 10 {
		s.add(PetCare, "Consider warm bedding for outdoor pets.")
	} else if temp > 28 {
		s.add(PetCare, "Ensure pets have plenty of fresh water and shade.")
	}
}
