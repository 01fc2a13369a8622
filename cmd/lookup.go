package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/curbside/internal/model"
)

var (
	lookupLat float64
	lookupLng float64
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve one coordinate pair to its next sweep from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Region.Location()
		if err != nil {
			return err
		}

		_, src, err := loadDataset()
		if err != nil {
			return err
		}

		res, err := src.Snapshot().Lookup(
			model.Point{Longitude: lookupLng, Latitude: lookupLat},
			time.Now().In(loc),
		)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupLat, "lat", 0, "latitude")
	lookupCmd.Flags().Float64Var(&lookupLng, "lng", 0, "longitude")
	lookupCmd.MarkFlagRequired("lat")
	lookupCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(lookupCmd)
}
