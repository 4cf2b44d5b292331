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
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracklife/trajd/common"
	"github.com/tracklife/trajd/geoidx"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/store"
	"github.com/tracklife/trajd/stream"
	"github.com/tracklife/trajd/types/track"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the spatiotemporal index",
	Long: `Streams every trackpoint in the store into the cell index at
<datadir>/` + params.IndexDBName + `, keyed by minute and S2 cell.
Proximity queries ('near', and the web daemon's /nearby) then run
against the index instead of scanning the whole store.

Rebuilding over an existing index is safe; points merge in.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		s, closer, err := openStore()
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = closer() }()

		if err := os.MkdirAll(optDatadir, 0770); err != nil {
			log.Fatalln(err)
		}
		indexPath := filepath.Join(optDatadir, params.IndexDBName)
		ci, err := geoidx.NewCellIndexer(indexPath, nil)
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = ci.Close() }()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-common.Interrupted()
			slog.Warn("Interrupted, winding down")
			cancel()
		}()

		// Watch the batch feed for progress accounting.
		indexed := make(chan []geoidx.IndexedPoint, 8)
		sub := ci.FeedOfIndexedBatches().Subscribe(indexed)
		defer sub.Unsubscribe()
		go func() {
			total := 0
			for batch := range indexed {
				total += len(batch)
				slog.Debug("Indexed batch", "batch", len(batch), "total", total)
			}
		}()

		meter := stream.NewScanMeter(10 * time.Second)
		defer meter.Stop()

		start := time.Now()
		if err := ci.Index(ctx, allTrackpoints(ctx, s, meter)); err != nil {
			log.Fatalln(err)
		}
		sub.Unsubscribe()
		close(indexed)
		slog.Info("Index built", "path", indexPath, "took", time.Since(start).Round(time.Second))
	},
}

// allTrackpoints flattens the store into one point stream, marking the
// meter as points pass.
func allTrackpoints(ctx context.Context, s store.Store, meter *stream.ScanMeter) <-chan track.Trackpoint {
	out := make(chan track.Trackpoint)
	go func() {
		defer close(out)
		for u := range s.StreamUsers(ctx) {
			for a := range s.StreamActivities(ctx, u.ID) {
				for tp := range s.StreamTrackpoints(ctx, a.ID) {
					meter.Mark(tp.Time)
					select {
					case <-ctx.Done():
						return
					case out <- tp:
					}
				}
			}
		}
	}()
	return out
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
