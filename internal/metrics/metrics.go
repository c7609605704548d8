// Package metrics records per-run counters and writes them in the Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/huangsam/reddot/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Recorder holds the metrics of a single run in its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	filesProcessed  prometheus.Counter
	framesProcessed prometheus.Counter
	redPixels       prometheus.Counter
	csvWritten      prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	fileDuration    prometheus.Histogram
}

// NewRecorder creates a recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		filesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "reddot_files_processed_total",
			Help: "Total number of TIFF files counted",
		}),
		framesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "reddot_frames_processed_total",
			Help: "Total number of frames counted across all files",
		}),
		redPixels: factory.NewCounter(prometheus.CounterOpts{
			Name: "reddot_red_pixels_total",
			Help: "Total number of red pixels found across all files",
		}),
		csvWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "reddot_csv_written_total",
			Help: "Total number of summary CSV files written",
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reddot_cache_lookups_total",
			Help: "Count cache lookups, by result",
		}, []string{"result"}),
		fileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reddot_file_processing_seconds",
			Help:    "Duration of counting a single file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// ObserveFile records one counted file.
func (r *Recorder) ObserveFile(rec schema.FileRecord, d time.Duration) {
	if r == nil {
		return
	}
	r.filesProcessed.Inc()
	r.framesProcessed.Add(float64(len(rec.Frames)))
	r.redPixels.Add(float64(rec.TotalRedDotCount))
	r.fileDuration.Observe(d.Seconds())
}

// CacheLookup records a count cache lookup.
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// CSVWritten records one written summary CSV.
func (r *Recorder) CSVWritten() {
	if r == nil {
		return
	}
	r.csvWritten.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all metrics to path for the node exporter textfile collector.
// The file is written atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
