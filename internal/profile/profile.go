package profile

import (
	"strings"
	"time"
)

// GenderAny is the wildcard gender preference. A seeker with this preference
// accepts candidates of every gender.
const GenderAny = "any"

// UserProfile is the full profile graph the matching engine operates on. It is
// read-only here; profile editing flows own the data.
type UserProfile struct {
	ID        int64     `json:"id"`
	Gender    string    `json:"gender"`
	Birthdate time.Time `json:"birthdate"`
	Complete  bool      `json:"complete"`
	Location  *Location `json:"location,omitempty"`

	Preferences   *DatingPreferences   `json:"preferences,omitempty"`
	Physical      *PhysicalPreferences `json:"physical,omitempty"`
	Values        []Tag                `json:"values,omitempty"`
	Interests     []Tag                `json:"interests,omitempty"`
	Communication map[string]float64   `json:"communication,omitempty"`
	Dealbreakers  []Dealbreaker        `json:"dealbreakers,omitempty"`
	Photos        []string             `json:"photos,omitempty"`
}

// Location is a WGS84 point.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DatingPreferences are the seeker's hard constraints. A profile without them
// is ineligible to seek or be matched.
type DatingPreferences struct {
	GenderPreference string  `json:"gender_preference" mapstructure:"gender_preference"`
	MinAge           int     `json:"min_age" mapstructure:"min_age"`
	MaxAge           int     `json:"max_age" mapstructure:"max_age"`
	MaxDistanceKm    float64 `json:"max_distance_km" mapstructure:"max_distance_km"`
}

// PhysicalPreferences is a free-form preference document. Known fields are
// typed; anything else the profile editor stores lands in Extra.
type PhysicalPreferences struct {
	Description string         `json:"description,omitempty" mapstructure:"description"`
	HeightRange string         `json:"height_range,omitempty" mapstructure:"height_range"`
	BodyTypes   []string       `json:"body_types,omitempty" mapstructure:"body_types"`
	Extra       map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// Tag is a named value or interest entry.
type Tag struct {
	Name string `json:"name" mapstructure:"name"`
}

// Dealbreaker is a hard exclusion rule. For the value/interest categories the
// rule means the candidate must NOT possess the named tag.
type Dealbreaker struct {
	Category string `json:"category" mapstructure:"category"`
	Value    string `json:"value" mapstructure:"value"`
}

// HasPreferences reports whether the profile carries dating preferences and is
// therefore eligible for matching.
func (p *UserProfile) HasPreferences() bool {
	return p != nil && p.Preferences != nil
}

// Age computes the profile's age in whole years at the given moment, using
// calendar arithmetic with a month/day correction.
func (p *UserProfile) Age(now time.Time) int {
	years := now.Year() - p.Birthdate.Year()
	anniversary := p.Birthdate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// TagNames returns the lower-cased names of the provided tags as a set.
func TagNames(tags []Tag) map[string]struct{} {
	names := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == "" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}

// AcceptsGender reports whether the preferences allow the given gender.
func (p *DatingPreferences) AcceptsGender(gender string) bool {
	if p == nil {
		return false
	}
	pref := strings.ToLower(strings.TrimSpace(p.GenderPreference))
	return pref == GenderAny || strings.EqualFold(pref, strings.TrimSpace(gender))
}

// AcceptsAge reports whether age falls inside the inclusive window.
func (p *DatingPreferences) AcceptsAge(age int) bool {
	if p == nil {
		return false
	}
	return age >= p.MinAge && age <= p.MaxAge
}
