package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umnpray/umnpray/internal/app"
	"github.com/umnpray/umnpray/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode ADDRESS",
	Short: "Resolve a campus address to coordinates",
	Long: `Resolve an address the way spaces without coordinates are placed.
Addresses that do not mention Minneapolis get the campus context appended.`,
	Example: `  umnpray geocode "Lind Hall"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.HasMapsKey() {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is not set")
		}

		stack, err := app.Build(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer stack.Close()

		address := strings.Join(args, " ")
		c := stack.Geocoder.Resolve(cmd.Context(), address)
		if c == nil {
			return fmt.Errorf("no result for %q", geocode.WithContext(address))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%.6f, %.6f\n", geocode.WithContext(address), c.Lat, c.Lng)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
