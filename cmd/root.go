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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/store"
	"github.com/tracklife/trajd/store/ndjson"
	"github.com/tracklife/trajd/store/sqlite"
)

var optVerbosity int
var optDatadir string
var optDBPath string
var optNDJSONPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trajd",
	Short: "GPS trajectory analytics",
	Long: `trajd answers questions about a User -> Activity -> Trackpoint dataset:
who walked how far, who climbed the most, whose recordings are broken,
who was where, when, and near whom.

Data comes from a SQLite database (--db) or an NDJSON file (--ndjson).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// A .env file can carry the INFLUXDB_* values; absence is fine.
	_ = godotenv.Load()

	pFlags := rootCmd.PersistentFlags()
	pFlags.AddFlagSet(&pflag.FlagSet{})
	pFlags.IntVar(&optVerbosity, "verbosity", 0, "Logging level: 0=info, -1=debug, 1=warn")
	pFlags.StringVar(&optDatadir, "datadir", params.DatadirRoot, "Directory for trajd state (the built index)")
	pFlags.StringVar(&optDBPath, "db", "", "Path to a SQLite trajectory database")
	pFlags.StringVar(&optNDJSONPath, "ndjson", "", "Path to an NDJSON trajectory file")
	if err := viper.BindPFlags(pFlags); err != nil {
		panic(err)
	}
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	switch {
	case optVerbosity < 0:
		level = slog.LevelDebug
	case optVerbosity > 0:
		level = slog.LevelWarn
	}
	slog.SetLogLoggerLevel(level)
}

// openStore opens whichever trajectory source the flags name.
func openStore() (store.Store, func() error, error) {
	switch {
	case optDBPath != "" && optNDJSONPath != "":
		return nil, nil, fmt.Errorf("--db and --ndjson are mutually exclusive")
	case optDBPath != "":
		s, err := sqlite.Open(optDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case optNDJSONPath != "":
		s, err := ndjson.Open(optNDJSONPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		// Fall back on the conventional database location.
		fallback := filepath.Join(optDatadir, params.TrajectoryDBName)
		s, err := sqlite.Open(fallback)
		if err != nil {
			return nil, nil, fmt.Errorf("no --db or --ndjson given, and no database at %s: %w", fallback, err)
		}
		return s, s.Close, nil
	}
}
