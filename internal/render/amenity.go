// Package render turns listing state into the cards, map markers and
// filter controls a client draws.
package render

import "github.com/umnpray/umnpray/internal/models"

// Tag is a badge label shown on a space
type Tag string

const (
	TagPrayerRugs Tag = "Prayer Rugs"
	TagWuduAccess Tag = "Wudu Access"
	TagClean      Tag = "Clean"
	TagDivider    Tag = "Divider"
	TagPrivate    Tag = "Private"
	TagQuiet      Tag = "Quiet"
	TagSmall      Tag = "Small"
	TagMedium     Tag = "Medium"
	TagLarge      Tag = "Large"
)

// Style is a pair of design-system color tokens
type Style struct {
	Background string `json:"background"`
	Text       string `json:"text"`
}

// DefaultStyle is used for any tag without an entry
var DefaultStyle = Style{Background: "gray-200", Text: "gray-800"}

var tagStyles = map[Tag]Style{
	TagPrayerRugs: {"umn-maroon-light", "white"},
	TagWuduAccess: {"umn-beige-dark", "white"},
	TagClean:      {"umn-green-light", "gray-800"},
	TagDivider:    {"umn-brown-dark", "white"},
	TagPrivate:    {"umn-sage", "white"},
	TagSmall:      {"umn-olive", "white"},
	TagMedium:     {"umn-tan", "gray-800"},
	TagLarge:      {"umn-green-dark", "white"},

	Tag(models.EastBank.Label()): {"umn-maroon", "white"},
	Tag(models.WestBank.Label()): {"umn-brown-light", "gray-800"},
	Tag(models.StPaul.Label()):   {"umn-beige-light", "gray-800"},
}

// AmenityStyle looks up a tag's colors
func AmenityStyle(t Tag) Style {
	if s, ok := tagStyles[t]; ok {
		return s
	}
	return DefaultStyle
}

// CapacityTag buckets a headcount: up to 5 is Small, up to 15 Medium
func CapacityTag(capacity int) Tag {
	switch {
	case capacity <= 5:
		return TagSmall
	case capacity <= 15:
		return TagMedium
	default:
		return TagLarge
	}
}

// CardTags lists a space's badges in card order
func CardTags(s models.Space) []Tag {
	var tags []Tag
	if s.PrayerRugs {
		tags = append(tags, TagPrayerRugs)
	}
	if s.WuduAccess {
		tags = append(tags, TagWuduAccess)
	}
	if s.Divider {
		tags = append(tags, TagDivider)
	}
	if s.Campus != "" {
		tags = append(tags, Tag(s.Campus.Label()))
	}
	if s.PrivateFromPublic {
		tags = append(tags, TagPrivate)
	}
	if s.CleanTidy {
		tags = append(tags, TagClean)
	}
	if s.Capacity != nil && *s.Capacity > 0 {
		tags = append(tags, CapacityTag(*s.Capacity))
	}
	return tags
}

// MarkerTags is the shorter list shown in a map info window
func MarkerTags(s models.Space) []Tag {
	var tags []Tag
	if s.PrayerRugs {
		tags = append(tags, TagPrayerRugs)
	}
	if s.WuduAccess {
		tags = append(tags, TagWuduAccess)
	}
	if s.Divider {
		tags = append(tags, TagDivider)
	}
	if s.PrivateFromPublic {
		tags = append(tags, TagPrivate)
	}
	return tags
}

var palette = map[string]string{
	"umn-green":        "#737852",
	"umn-green-light":  "#9BA37A",
	"umn-green-dark":   "#5A5F3F",
	"umn-maroon":       "#451616",
	"umn-maroon-light": "#6B2828",
	"umn-maroon-dark":  "#2D0F0F",
	"umn-gray":         "#818376",
	"umn-light-gray":   "#E0E0DF",
	"umn-beige":        "#CBC5AF",
	"umn-beige-light":  "#E0DBCA",
	"umn-beige-dark":   "#B0AA92",
	"umn-brown":        "#8C8274",
	"umn-brown-light":  "#A89D8F",
	"umn-brown-dark":   "#6E6459",
	"umn-tan":          "#B8B29A",
	"umn-olive":        "#8B9056",
	"umn-sage":         "#9B9E7E",
	"gray-200":         "#E5E7EB",
	"gray-800":         "#1F2937",
	"white":            "#FFFFFF",
}

// Hex resolves a color token for clients without the design system,
// such as terminals. Unknown tokens resolve to gray-200.
func Hex(token string) string {
	if h, ok := palette[token]; ok {
		return h
	}
	return palette[DefaultStyle.Background]
}
