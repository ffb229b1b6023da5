package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/umnpray/umnpray/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(render.Hex("umn-maroon-light")))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(render.Hex("umn-gray")))
)

func badge(b render.Badge) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(render.Hex(b.Background))).
		Foreground(lipgloss.Color(render.Hex(b.Text))).
		Padding(0, 1).
		Render(b.Label)
}

func printView(w io.Writer, v render.View) {
	campus := "All campuses"
	for _, f := range v.Filters {
		if f.Selected && f.Value != "All" {
			campus = f.Label
		}
	}

	if v.EmptyMessage != "" {
		fmt.Fprintln(w, v.EmptyMessage)
		return
	}

	if len(v.Markers) > 0 {
		fmt.Fprintf(w, "%s · %d pins\n\n", campus, len(v.Markers))
		for _, m := range v.Markers {
			printMarker(w, m)
		}
		return
	}

	fmt.Fprintf(w, "%s · showing %d of %d\n\n", campus, len(v.Cards), v.Total)
	for _, c := range v.Cards {
		printCard(w, c)
	}
	if v.HasMore {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d more, use --all to see them", v.Total-len(v.Cards))))
	}
}

func printCard(w io.Writer, c render.Card) {
	fmt.Fprintln(w, titleStyle.Render(c.Name))
	fmt.Fprintln(w, "  "+dimStyle.Render(c.Subtitle+" · "+c.Path))
	if c.DistanceText != "" {
		fmt.Fprintln(w, "  🚶 "+c.DistanceText)
	}
	if len(c.Badges) > 0 {
		badges := make([]string, len(c.Badges))
		for i, b := range c.Badges {
			badges[i] = badge(b)
		}
		fmt.Fprintln(w, "  "+strings.Join(badges, " "))
	}
	fmt.Fprintln(w)
}

func printMarker(w io.Writer, m render.Marker) {
	tags := make([]string, len(m.Tags))
	for i, t := range m.Tags {
		tags[i] = string(t)
	}
	fmt.Fprintf(w, "📍 %s (%.5f, %.5f) %s\n", titleStyle.Render(m.Title), m.Position.Lat, m.Position.Lng, dimStyle.Render(strings.Join(tags, ", ")))
}
