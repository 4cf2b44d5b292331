package stream

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/tracklife/trajd/common"
)

// ScanMeter logs scan throughput on a ticker while a long pass runs.
// Mark it once per record; Stop it when the scan is done.
type ScanMeter struct {
	label      time.Time // any value, eg. trackpoint time
	interval   time.Duration
	started    time.Time
	ticker     *time.Ticker
	nn         atomic.Uint64
	reg        metrics.Registry
	count      metrics.Counter
	countMeter metrics.Meter
}

func NewScanMeter(interval time.Duration) *ScanMeter {
	metrics.Enabled = true // wtf
	reg := metrics.NewRegistry()
	sm := &ScanMeter{
		reg:        reg,
		interval:   interval,
		started:    time.Now(),
		nn:         atomic.Uint64{},
		count:      metrics.NewCounter(),
		countMeter: metrics.NewMeter(),
	}
	if err := reg.Register("points.count", sm.count); err != nil {
		panic(err)
	}
	if err := reg.Register("points.meter", sm.countMeter); err != nil {
		panic(err)
	}
	sm.nn.Store(0)
	go sm.run()
	return sm
}

func (sm *ScanMeter) Mark(label time.Time) {
	sm.label = label
	sm.nn.Add(1)
	sm.count.Inc(1)
	sm.countMeter.Mark(1)
}

func (sm *ScanMeter) run() {
	sm.ticker = time.NewTicker(sm.interval)
	for range sm.ticker.C {
		sm.log()
	}
}

func (sm *ScanMeter) log() {
	snap := sm.countMeter.Snapshot()
	slog.Info("Scanned points", "n", humanize.Comma(snap.Count()),
		"scan.last", sm.label.Format(time.DateTime),
		"pps", common.DecimalToFixed(snap.Rate1(), 0),
		"running", time.Since(sm.started).Round(time.Second))
}

func (sm *ScanMeter) Stop() {
	if sm == nil || sm.ticker == nil {
		return
	}
	sm.ticker.Stop()
	sm.countMeter.Stop()
}
