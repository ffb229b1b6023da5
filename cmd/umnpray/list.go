package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umnpray/umnpray/internal/app"
	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/geolocation"
	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/models"
	"github.com/umnpray/umnpray/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prayer spaces",
	Long: `List prayer spaces, optionally filtered by campus.

With --lat and --lng the list is sorted by walking distance from that
position and the preference is remembered; --forget turns it off again.`,
	Example: `  umnpray list --campus WestBank
  umnpray list --lat 44.9716 --lng -93.2437 --all
  umnpray list --map`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.String("campus", "", "EastBank, WestBank or StPaul (display names work too)")
	f.Bool("map", false, "Show map pins instead of cards")
	f.Bool("all", false, "Show every space instead of the first page")
	f.Bool("narrow", false, "Use the narrow page size")
	f.Float64("lat", 0, "Your latitude")
	f.Float64("lng", 0, "Your longitude")
	f.Bool("forget", false, "Stop sorting by distance and forget the preference")
	listCmd.MarkFlagsRequiredTogether("lat", "lng")
	listCmd.MarkFlagsMutuallyExclusive("lat", "forget")

	rootCmd.AddCommand(listCmd)
}

// listOptions are the parsed list flags
type listOptions struct {
	State  listing.ViewState
	Origin *models.Coordinates
	Forget bool
	Narrow bool
	Server string
}

func parseListFlags(cmd *cobra.Command) (listOptions, error) {
	f := cmd.Flags()
	var opts listOptions

	campus, _ := f.GetString("campus")
	filter := listing.FilterAll
	if campus != "" && !strings.EqualFold(campus, string(listing.FilterAll)) {
		c, ok := models.ParseCampus(campus)
		if !ok {
			return opts, fmt.Errorf("unknown campus %q (want EastBank, WestBank or StPaul)", campus)
		}
		filter = listing.FilterFor(c)
	}

	opts.State = listing.DefaultState()
	opts.State.Campus = filter
	if m, _ := f.GetBool("map"); m {
		opts.State.View = listing.MapView
	}
	opts.State.ShowAll, _ = f.GetBool("all")
	opts.Forget, _ = f.GetBool("forget")
	opts.Narrow, _ = f.GetBool("narrow")
	opts.Server, _ = f.GetString("server")

	if f.Changed("lat") {
		lat, _ := f.GetFloat64("lat")
		lng, _ := f.GetFloat64("lng")
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return opts, errors.New("coordinates out of range")
		}
		opts.Origin = &models.Coordinates{Lat: lat, Lng: lng}
	}
	return opts, nil
}

func runList(cmd *cobra.Command, args []string) error {
	opts, err := parseListFlags(cmd)
	if err != nil {
		return err
	}
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := consentStore()
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

	var distances distance.BatchResolver = stack.Resolver
	if opts.Server != "" {
		distances = distance.NewRemoteResolver(opts.Server, cfg.HTTPTimeout)
	}

	pageSize := cfg.PageSizeWide
	if opts.Narrow {
		pageSize = cfg.PageSizeNarrow
	}

	deps := listing.Deps{
		Geocoder:           stack.Geocoder,
		Distances:          distances,
		Consent:            store,
		PageSize:           pageSize,
		GeocodeConcurrency: cfg.GeocodeConcurrency,
	}
	if opts.Origin != nil {
		deps.Locator = geolocation.NewLocator(geolocation.Fixed(*opts.Origin))
	}
	vm := listing.New(spaces, listing.Encode(opts.State), deps)

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	switch {
	case opts.Forget:
		store.Set(false)
		fmt.Fprintln(errOut, "Distance sorting turned off.")
	case opts.Origin != nil:
		if err := vm.ActivateDistanceSort(ctx); err != nil {
			var aerr *listing.ActivationError
			if errors.As(err, &aerr) {
				fmt.Fprintf(errOut, "⚠️  %s\n", aerr.Message())
			} else {
				return err
			}
		}
	case store.Get():
		fmt.Fprintln(errOut, "Distance sorting is on; pass --lat and --lng to sort by walking distance.")
	}

	printView(out, render.Build(ctx, vm.Snapshot(), stack.Geocoder))
	return nil
}
