package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/umnpray/umnpray/internal/app"
	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/location"
	"github.com/umnpray/umnpray/internal/models"
)

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "Print the walking distance to every space",
	Long: `Resolve walking distances from a position to every space in one batch,
in curated order. Spaces that cannot be placed or routed show a dash.`,
	Example: `  umnpray distances --lat 44.9740 --lng -93.2277`,
	Args:    cobra.NoArgs,
	RunE:    runDistances,
}

func init() {
	f := distancesCmd.Flags()
	f.Float64("lat", 0, "Origin latitude")
	f.Float64("lng", 0, "Origin longitude")
	distancesCmd.MarkFlagRequired("lat")
	distancesCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(distancesCmd)
}

// spaceDistance pairs a space with its resolved walking distance and the
// straight-line distance to it; either is absent when unknown
type spaceDistance struct {
	Space    models.Space
	Distance *models.ResolvedDistance
	Direct   *float64
}

func runDistances(cmd *cobra.Command, args []string) error {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	server, _ := cmd.Flags().GetString("server")
	origin := models.Coordinates{Lat: lat, Lng: lng}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	stack, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	spaces, err := stack.Content.All(ctx)
	if err != nil {
		return err
	}

	positions := listing.Positions(ctx, spaces, stack.Geocoder, cfg.GeocodeConcurrency)

	var dests []models.Coordinates
	var index []int
	for i, p := range positions {
		if p != nil {
			dests = append(dests, *p)
			index = append(index, i)
		}
	}

	var resolved []*models.ResolvedDistance
	if server != "" {
		resolved = distance.NewRemoteResolver(server, cfg.HTTPTimeout).ResolveBatch(ctx, origin, dests)
	} else if len(dests) > 0 {
		resolved, err = stack.Resolver.Resolve(ctx, origin, dests)
		if err != nil {
			return errors.New(distance.FailureMessage(err))
		}
	}

	rows := make([]spaceDistance, len(spaces))
	for i, s := range spaces {
		rows[i].Space = s
		if p := positions[i]; p != nil {
			direct := location.Distance(origin, *p)
			rows[i].Direct = &direct
		}
	}
	for j, i := range index {
		if j < len(resolved) {
			rows[i].Distance = resolved[j]
		}
	}

	printDistances(cmd.OutOrStdout(), rows)
	return nil
}

func printDistances(w io.Writer, rows []spaceDistance) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SPACE\tCAMPUS\tMILES\tMINUTES\tDIRECT")
	for _, r := range rows {
		miles, minutes, direct := "—", "—", "—"
		if r.Distance != nil {
			miles = fmt.Sprintf("%g", r.Distance.Miles)
			minutes = fmt.Sprintf("%d", r.Distance.Minutes)
		}
		if r.Direct != nil {
			direct = fmt.Sprintf("%g", *r.Direct)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Space.Name, r.Space.Campus.Label(), miles, minutes, direct)
	}
	tw.Flush()
}
