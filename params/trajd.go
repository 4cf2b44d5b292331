package params

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/metrics"
	homedir "github.com/mitchellh/go-homedir"
)

func init() {
	metrics.Enabled = true
}

const (
	// IndexDBName is the bbolt file holding the spatiotemporal index.
	IndexDBName = "geoidx.db"

	// TrajectoryDBName is the default SQLite database file name.
	TrajectoryDBName = "trajectories.db"
)

// DatadirRoot is where trajd keeps its state (the built index, mostly).
var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".trajd")
}()

var DefaultBatchSize = 10_000
var DefaultBufferSize = 100_000

// InfluxDB connection values for optional result export.
// All empty means export is not configured, which is fine.
var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
