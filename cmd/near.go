/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/tracklife/trajd/api"
	"github.com/tracklife/trajd/geoidx"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/types/track"
)

var optNearLat float64
var optNearLon float64
var optNearTime string
var optNearRadius float64
var optNearWindow time.Duration

// nearCmd represents the near command
var nearCmd = &cobra.Command{
	Use:   "near",
	Short: "Find users near a point at a time",
	Long: `Answers: who had a trackpoint within --radius meters and --window
of --lat/--lon at --time? The contact-tracing question.

Uses the index built by 'trajd index' when one exists in the datadir,
otherwise falls back on a full store scan.

Example:

  trajd near --db dataset.db --lat 39.97548 --lon 116.33031 --time "2008-08-24 15:38:00"
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		at, err := track.ParseTime(optNearTime)
		if err != nil {
			log.Fatalf("bad --time, want %s: %v", track.TimeLayout, err)
		}
		center := orb.Point{optNearLon, optNearLat}
		config := &params.ProximityConfig{
			RadiusMeters: optNearRadius,
			Window:       optNearWindow,
		}
		if err := config.Validate(); err != nil {
			log.Fatalln(err)
		}

		s, closer, err := openStore()
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = closer() }()

		analyzer, err := api.NewAnalyzer(s, nil)
		if err != nil {
			log.Fatalln(err)
		}

		indexPath := filepath.Join(optDatadir, params.IndexDBName)
		if _, err := os.Stat(indexPath); err == nil {
			ci, err := geoidx.NewCellIndexer(indexPath, nil)
			if err != nil {
				log.Fatalln(err)
			}
			defer func() { _ = ci.Close() }()
			analyzer.Indexer = ci
			slog.Info("Querying index", "path", indexPath)
		} else {
			slog.Info("No index found, scanning store", "wanted", indexPath)
		}

		users, err := analyzer.NearbyUsers(context.Background(), center, at, config)
		if err != nil {
			log.Fatalln(err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"count": len(users),
			"users": users,
		}); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(nearCmd)

	defaults := params.DefaultProximityConfig()
	flags := nearCmd.Flags()
	flags.Float64Var(&optNearLat, "lat", 0, "Latitude of the reference point")
	flags.Float64Var(&optNearLon, "lon", 0, "Longitude of the reference point")
	flags.StringVar(&optNearTime, "time", "", "Reference time, eg. 2008-08-24 15:38:00")
	flags.Float64Var(&optNearRadius, "radius", defaults.RadiusMeters, "Search radius in meters")
	flags.DurationVar(&optNearWindow, "window", defaults.Window, "Time window on either side of --time")
	_ = nearCmd.MarkFlagRequired("lat")
	_ = nearCmd.MarkFlagRequired("lon")
	_ = nearCmd.MarkFlagRequired("time")
}
