// Package influxdb posts analysis results to an InfluxDB 2 Write API,
// for dashboarding runs over time. Export is optional; it activates
// only when the INFLUXDB_* environment values are set.
package influxdb

import (
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/tracklife/trajd/api"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/rank"
)

// Configured reports whether the environment carries connection values.
func Configured() bool {
	return params.INFLUXDB_URL != "" && params.INFLUXDB_TOKEN != ""
}

// Result is one exportable analysis outcome: a measurement name, tags
// identifying the query, and numeric fields.
type Result struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}

// RankingResults flattens a leaderboard into per-entry results.
func RankingResults(measurement string, entries []rank.Entry) []Result {
	now := time.Now()
	out := make([]Result, len(entries))
	for i, e := range entries {
		out[i] = Result{
			Measurement: measurement,
			Tags:        map[string]string{"user": e.ID.String()},
			Fields: map[string]interface{}{
				"score": e.Score,
				"rank":  i + 1,
			},
			Time: now,
		}
	}
	return out
}

// SummaryResult wraps dataset totals for export.
func SummaryResult(s api.DatasetSummary) Result {
	return Result{
		Measurement: "dataset",
		Fields: map[string]interface{}{
			"users":       s.Users,
			"activities":  s.Activities,
			"trackpoints": s.Trackpoints,
		},
		Time: time.Now(),
	}
}

// Export posts results to the Write API.
// Because it accepts a slice, use batches. The Write API will buffer and flush.
// The last error encountered is returned.
func Export(results []Result) error {
	if !Configured() {
		return fmt.Errorf("influxdb export not configured")
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	writeAPI := client.WriteAPI(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)

	// Errors returns a channel for reading errors which occurs during async writes.
	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	// https://github.com/influxdata/influxdb-client-go?tab=readme-ov-file#reading-async-errors
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, result := range results {
		p := influxdb2.NewPointWithMeasurement(result.Measurement).
			SetTime(result.Time)
		for k, v := range result.Tags {
			p.AddTag(k, v)
		}
		for k, v := range result.Fields {
			p.AddField(k, v)
		}
		writeAPI.WritePoint(p)
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
