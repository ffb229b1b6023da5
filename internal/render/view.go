package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/models"
)

// Badge is a styled tag
type Badge struct {
	Label string `json:"label"`
	Style
}

// Card is one entry of the list view
type Card struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Subtitle     string   `json:"subtitle"`
	Path         string   `json:"path"`
	Badges       []Badge  `json:"badges"`
	PhotoRef     string   `json:"photo_ref,omitempty"`
	Miles        *float64 `json:"distance_miles,omitempty"`
	Minutes      *int     `json:"eta_minutes,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
}

// Marker is one pin of the map view
type Marker struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Subtitle string             `json:"subtitle"`
	Path     string             `json:"path"`
	Position models.Coordinates `json:"position"`
	Tags     []Tag              `json:"tags,omitempty"`
}

// FilterOption is one campus filter button
type FilterOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// View is everything a client needs to draw the listing
type View struct {
	State        listing.ViewState   `json:"state"`
	Query        string              `json:"query"`
	Filters      []FilterOption      `json:"filters"`
	Cards        []Card              `json:"cards,omitempty"`
	Markers      []Marker            `json:"markers,omitempty"`
	User         *models.Coordinates `json:"user_location,omitempty"`
	Total        int                 `json:"total"`
	HasMore      bool                `json:"has_more"`
	EmptyMessage string              `json:"empty_message,omitempty"`
}

// Geocoder fills in marker positions for spaces without coordinates
type Geocoder interface {
	Resolve(ctx context.Context, address string) *models.Coordinates
}

// Build renders a snapshot. Map views get markers, list views get cards.
func Build(ctx context.Context, snap listing.Snapshot, geocoder Geocoder) View {
	v := View{
		State:   snap.State,
		Query:   snap.Query,
		Filters: Filters(snap.State.Campus),
		User:    snap.Origin,
		Total:   snap.Page.Total,
		HasMore: snap.Page.HasMore,
	}

	if snap.Page.Total == 0 {
		v.EmptyMessage = fmt.Sprintf("No prayer spaces found for %s.", snap.State.Campus.Label())
	}

	if snap.State.View == listing.MapView {
		v.Markers = Markers(ctx, snap.Page.Items, geocoder, snap.GeocodeLimit)
		return v
	}

	v.Cards = make([]Card, len(snap.Page.Items))
	for i, it := range snap.Page.Items {
		v.Cards[i] = NewCard(it)
	}
	return v
}

// Filters lists the campus filter buttons
func Filters(selected listing.CampusFilter) []FilterOption {
	opts := []FilterOption{{Value: string(listing.FilterAll), Label: listing.FilterAll.Label(), Selected: selected == listing.FilterAll}}
	for _, c := range models.Campuses {
		f := listing.FilterFor(c)
		opts = append(opts, FilterOption{Value: string(c), Label: c.Label(), Selected: selected == f})
	}
	return opts
}

// NewCard renders one list entry
func NewCard(it models.DisplayItem) Card {
	s := it.Space
	c := Card{
		ID:       s.ID,
		Slug:     s.Slug,
		Name:     s.Name,
		Subtitle: Subtitle(s),
		Path:     SpacePath(s),
	}
	for _, t := range CardTags(s) {
		c.Badges = append(c.Badges, Badge{Label: string(t), Style: AmenityStyle(t)})
	}
	if len(s.Photos) > 0 {
		c.PhotoRef = s.Photos[0].AssetRef
	}
	if it.Distance != nil {
		miles, minutes := it.Distance.Miles, it.Distance.Minutes
		c.Miles, c.Minutes = &miles, &minutes
		c.DistanceText = DistanceText(*it.Distance)
	}
	return c
}

// Markers places a pin per item, geocoding those without coordinates with
// at most limit lookups in flight. Items that cannot be placed are skipped.
func Markers(ctx context.Context, items []models.DisplayItem, geocoder Geocoder, limit int) []Marker {
	spaces := make([]models.Space, len(items))
	for i, it := range items {
		spaces[i] = it.Space
	}
	var lookup listing.Geocoder
	if geocoder != nil {
		lookup = geocoder
	}
	positions := listing.Positions(ctx, spaces, lookup, limit)

	markers := make([]Marker, 0, len(items))
	for i, s := range spaces {
		if positions[i] == nil {
			continue
		}
		markers = append(markers, Marker{
			ID:       s.ID,
			Title:    s.Name,
			Subtitle: Subtitle(s),
			Path:     SpacePath(s),
			Position: *positions[i],
			Tags:     MarkerTags(s),
		})
	}
	return markers
}

// Subtitle is "building room", or just the building
func Subtitle(s models.Space) string {
	return strings.TrimSpace(s.Building + " " + s.Room)
}

// SpacePath links to a space's detail page
func SpacePath(s models.Space) string {
	key := s.Slug
	if key == "" {
		key = s.ID
	}
	return "/space/" + key
}

// DistanceText reads like "0.4 miles away · 8 min walk"
func DistanceText(d models.ResolvedDistance) string {
	unit := "miles"
	if d.Miles == 1 {
		unit = "mile"
	}
	return fmt.Sprintf("%g %s away · %d min walk", d.Miles, unit, d.Minutes)
}
