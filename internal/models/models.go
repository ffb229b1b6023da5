// Package models defines shared data types
package models

import "strings"

// Campus is one of the three UMN Twin Cities sub-campuses
type Campus string

const (
	EastBank Campus = "EastBank"
	WestBank Campus = "WestBank"
	StPaul   Campus = "StPaul"
)

// Campuses lists every campus in display order
var Campuses = []Campus{EastBank, WestBank, StPaul}

// Label returns the human-readable campus name
func (c Campus) Label() string {
	switch c {
	case EastBank:
		return "East Bank"
	case WestBank:
		return "West Bank"
	case StPaul:
		return "St. Paul"
	}
	return string(c)
}

// Valid reports whether c is a known campus
func (c Campus) Valid() bool {
	return c == EastBank || c == WestBank || c == StPaul
}

// ParseCampus accepts both the URL form ("EastBank") and the display
// label ("East Bank"), case-insensitively.
func ParseCampus(s string) (Campus, bool) {
	key := strings.ToLower(strings.NewReplacer(" ", "", ".", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "eastbank":
		return EastBank, true
	case "westbank":
		return WestBank, true
	case "stpaul", "saintpaul":
		return StPaul, true
	}
	return "", false
}

// UnmarshalText lets content sources store either campus form
func (c *Campus) UnmarshalText(text []byte) error {
	if parsed, ok := ParseCampus(string(text)); ok {
		*c = parsed
		return nil
	}
	*c = Campus(text)
	return nil
}

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Amenities are the boolean features a space may offer
type Amenities struct {
	PrayerRugs        bool `json:"has_prayer_rugs"`
	WuduAccess        bool `json:"has_wudu_access"`
	Divider           bool `json:"has_divider"`
	PrivateFromPublic bool `json:"is_private_from_public"`
	Quiet             bool `json:"is_quiet"`
	CleanTidy         bool `json:"is_clean_tidy"`
}

// Photo is an opaque reference to an image asset
type Photo struct {
	Key      string `json:"key"`
	AssetRef string `json:"asset_ref"`
}

// Space is a prayer/reflection room as served by the content store
type Space struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	Building         string   `json:"building"`
	BuildingFullName string   `json:"building_full_name,omitempty"`
	Room             string   `json:"room,omitempty"`
	Campus           Campus   `json:"campus"`
	Address          string   `json:"address"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Amenities
	Capacity             *int    `json:"capacity,omitempty"`
	GenderPrivacyDetails string  `json:"gender_privacy_details,omitempty"`
	AccessInstructions   string  `json:"access_instructions,omitempty"`
	Photos               []Photo `json:"photos,omitempty"`
}

// Coordinates returns the known position of the space, if any
func (s Space) Coordinates() (Coordinates, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *s.Latitude, Lng: *s.Longitude}, true
}

// ResolvedDistance is a walking distance and ETA from the user
type ResolvedDistance struct {
	Miles   float64 `json:"distance_miles"`
	Minutes int     `json:"eta_minutes"`
}

// DisplayItem is a Space paired with its distance, when known
type DisplayItem struct {
	Space    Space             `json:"space"`
	Distance *ResolvedDistance `json:"distance,omitempty"`
}
