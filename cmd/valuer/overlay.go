package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"SPX-VAL/internal/geocode"
	"SPX-VAL/internal/models"
	"SPX-VAL/internal/overlay"

	"github.com/spf13/cobra"
)

var (
	overlayLat        float64
	overlayLon        float64
	overlayHeading    float64
	overlayAddress    string
	overlayGeocodeURL string
	overlayOut        string
)

var overlayCmd = &cobra.Command{
	Use:   "overlay [image]",
	Short: "Stamp a photo with time, coordinates, compass and address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Error reading image", err)
		}

		opts := overlay.Options{Time: time.Now()}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
			loc := &models.LocationData{
				Latitude:  overlayLat,
				Longitude: overlayLon,
				Timestamp: opts.Time.UnixMilli(),
				Address:   overlayAddress,
			}
			if loc.Address == "" && overlayGeocodeURL != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				loc.Address = geocode.NewClient(overlayGeocodeURL, "spx-val-cli/1.0", log).Reverse(ctx, loc.Latitude, loc.Longitude)
				cancel()
			}
			opts.Location = loc
		}
		if cmd.Flags().Changed("heading") {
			h := overlayHeading
			opts.Heading = &h
		}

		out, _, err := overlay.Render(data, opts)
		if err != nil {
			fatal("Error rendering overlay", err)
		}

		dest := overlayOut
		if dest == "" {
			dest = strings.TrimSuffix(args[0], ".jpg") + "_stamped.jpg"
		}
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			fatal("Error writing image", err)
		}
		fmt.Println(strings.Join(overlay.Lines(opts), "\n"))
		fmt.Printf("Wrote %s\n", dest)
	},
}

func init() {
	rootCmd.AddCommand(overlayCmd)
	overlayCmd.Flags().Float64Var(&overlayLat, "lat", 0, "Latitude")
	overlayCmd.Flags().Float64Var(&overlayLon, "lon", 0, "Longitude")
	overlayCmd.Flags().Float64Var(&overlayHeading, "heading", 0, "Compass heading in degrees")
	overlayCmd.Flags().StringVar(&overlayAddress, "address", "", "Address line (looked up when empty and --geocode is set)")
	overlayCmd.Flags().StringVar(&overlayGeocodeURL, "geocode", "", "Nominatim base URL for the address lookup")
	overlayCmd.Flags().StringVarP(&overlayOut, "out", "o", "", "Output JPEG path")
}
