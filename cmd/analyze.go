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
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracklife/trajd/api"
	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/metrics/influxdb"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/rank"
	"github.com/tracklife/trajd/types/activity"
)

var optAnalyzeUser string
var optAnalyzeYear int
var optAnalyzeMode string
var optAnalyzeTopK int
var optAnalyzeExport bool

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Run an analytics query and print JSON",
	Long: `Runs one query against the trajectory store and prints the result
as JSON on stdout.

Queries:

  summary      Dataset totals: users, activities, trackpoints.
  stats        Average/min/max activities per user.
  topactive    Most active users by activity count (--k).
  topaltitude  Users ranked by total altitude gained (--k).
  distance     Kilometers covered by --user in --year, filtered by --mode.
  invalid      Per-user count of activities with recording gaps.
  daycrossers  Users with activities spanning midnight.
  duplicates   Activity pairs sharing a time window and footprint.
  modes        Distinct users per transportation mode.
  never        Users who never used --mode.
  busiest      The busiest month and its most active users (--k rows).

Examples:

  trajd analyze distance --db dataset.db --user 010 --year 2008 --mode walk
  trajd analyze topaltitude --ndjson dataset.ndjson --k 20
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		s, closer, err := openStore()
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = closer() }()

		analyzer, err := api.NewAnalyzer(s, nil)
		if err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-common.Interrupted()
			slog.Warn("Interrupted, winding down")
			cancel()
		}()

		result, err := runQuery(ctx, analyzer, args[0])
		if err != nil {
			log.Fatalln(err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalln(err)
		}

		if optAnalyzeExport {
			if err := exportResult(args[0], result); err != nil {
				slog.Error("Export failed", "error", err)
			}
		}
	},
}

func runQuery(ctx context.Context, analyzer *api.Analyzer, query string) (any, error) {
	switch query {
	case "summary":
		return analyzer.Summarize(ctx)
	case "stats":
		return analyzer.ActivitiesPerUser(ctx)
	case "topactive":
		return analyzer.MostActiveUsers(ctx, optAnalyzeTopK)
	case "topaltitude":
		return analyzer.TopAltitudeGainers(ctx, optAnalyzeTopK)
	case "distance":
		if optAnalyzeUser == "" || optAnalyzeYear == 0 {
			return nil, fmt.Errorf("distance needs --user and --year")
		}
		km, err := analyzer.DistanceWalked(ctx, optAnalyzeYear,
			conceptual.UserID(optAnalyzeUser), activity.Mode(optAnalyzeMode))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"user_id": optAnalyzeUser,
			"year":    optAnalyzeYear,
			"mode":    optAnalyzeMode,
			"km":      common.RoundPlaces(km, 1),
		}, nil
	case "invalid":
		return analyzer.InvalidActivityCounts(ctx)
	case "daycrossers":
		users, err := analyzer.DayCrossingUsers(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"count": len(users), "users": users}, nil
	case "duplicates":
		return analyzer.DuplicateActivities(ctx)
	case "modes":
		return analyzer.DistinctUsersPerMode(ctx)
	case "never":
		if optAnalyzeMode == "" {
			return nil, fmt.Errorf("never needs --mode")
		}
		return analyzer.UsersNeverUsingMode(ctx, activity.Mode(optAnalyzeMode))
	case "busiest":
		ym, ok, err := analyzer.BusiestMonth(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no activities in the dataset")
		}
		rows, err := analyzer.MostActiveInMonth(ctx, ym, optAnalyzeTopK)
		if err != nil {
			return nil, err
		}
		return map[string]any{"month": ym, "users": rows}, nil
	default:
		return nil, fmt.Errorf("unknown query %q", query)
	}
}

func exportResult(query string, result any) error {
	if !influxdb.Configured() {
		return fmt.Errorf("INFLUXDB_URL/TOKEN not set")
	}
	switch v := result.(type) {
	case []rank.Entry:
		return influxdb.Export(influxdb.RankingResults(query, v))
	case api.DatasetSummary:
		return influxdb.Export([]influxdb.Result{influxdb.SummaryResult(v)})
	default:
		return fmt.Errorf("query %q has no export mapping", query)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	defaults := params.DefaultAnalyzerConfig()
	flags := analyzeCmd.Flags()
	flags.StringVar(&optAnalyzeUser, "user", "", "User id for per-user queries")
	flags.IntVar(&optAnalyzeYear, "year", 0, "Calendar year filter")
	flags.StringVar(&optAnalyzeMode, "mode", "", "Transportation mode filter")
	flags.IntVar(&optAnalyzeTopK, "k", defaults.TopK, "Leaderboard size")
	flags.BoolVar(&optAnalyzeExport, "export", false, "Export the result to InfluxDB")
}
