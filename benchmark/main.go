// Package main provides a performance benchmarking tool for the RedDot CLI.
// It generates synthetic plates of different sizes, runs the count command on each
// several times, treating the first successful cached run as cold and averaging the rest as warm,
// and writes CSV output for performance analysis and documentation.
//
// Prerequisites:
// - reddot binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic plates are generated
package main

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/reddot/internal/tiffx"
	"github.com/huangsam/reddot/schema"
)

// PlateSpec describes one synthetic plate.
type PlateSpec struct {
	Name        string
	Directories int
	Files       int // Per directory
	Frames      int // Per file
	Size        int // Frame width and height in pixels
}

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Plate       string
	Compression string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	NoCacheRuns  int
	CacheRuns    int
	Plates       []PlateSpec
	Compressions []schema.Compression
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Plates: []PlateSpec{
			{Name: "small", Directories: 1, Files: 8, Frames: 3, Size: 256},
			{Name: "medium", Directories: 4, Files: 24, Frames: 5, Size: 512},
			{Name: "large", Directories: 8, Files: 48, Frames: 8, Size: 1024},
		},
		Compressions: []schema.Compression{schema.NoCompression, schema.DeflateCompression},
	}

	if _, err := exec.LookPath("reddot"); err != nil {
		fmt.Printf("Prerequisites check failed: reddot binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates every plate and times the count command on it
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d plates, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Plates), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, plate := range config.Plates {
		for _, compression := range config.Compressions {
			root := filepath.Join(config.WorkDir, fmt.Sprintf("%s_%s", plate.Name, compression))
			fmt.Printf("Generating %s plate (%s) in %s\n", plate.Name, compression, root)
			if err := generatePlate(root, plate, compression); err != nil {
				fmt.Printf("Warning: failed to generate %s: %v\n", root, err)
				continue
			}
			results = append(results, runBenchmarkSuite(config, plate.Name, string(compression), root))
		}
	}

	return results
}

// generatePlate writes plate.Directories directories of timed multi-frame TIFF files with random red spots.
func generatePlate(root string, plate PlateSpec, compression schema.Compression) error {
	if err := os.RemoveAll(root); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(uint64(plate.Size), uint64(plate.Files)))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for d := range plate.Directories {
		dir := filepath.Join(root, fmt.Sprintf("well_%02d", d))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for f := range plate.Files {
			ts := start.Add(time.Duration(f) * 30 * time.Minute)
			name := fmt.Sprintf("%03d_%s.tif", f+1, ts.Format("20060102_150405"))
			pages := make([]image.Image, plate.Frames)
			for i := range pages {
				pages[i] = randomFrame(rng, plate.Size)
			}
			if err := tiffx.WriteFile(filepath.Join(dir, name), pages, compression); err != nil {
				return err
			}
		}
	}
	return nil
}

// randomFrame draws a dark frame with a few red squares.
func randomFrame(rng *rand.Rand, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	for range rng.IntN(20) {
		x, y := rng.IntN(size-4), rng.IntN(size-4)
		for dy := range 4 {
			for dx := range 4 {
				img.SetRGBA(x+dx, y+dy, color.RGBA{R: 220, G: 20, B: 30, A: 255})
			}
		}
	}
	return img
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a plate
func runBenchmarkSuite(config BenchmarkConfig, plate, compression, root string) BenchmarkResult {
	fmt.Printf("Running count on %s (%s)\n", plate, compression)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string, env []string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, root, cacheBackend, numRuns, env)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache", nil)

	// Phase 2: Cache runs against a fresh SQLite file
	cacheEnv := []string{"REDDOT_CACHE_DB_CONNECT=" + filepath.Join(root, ".bench_cache.db")}
	_ = os.Remove(filepath.Join(root, ".bench_cache.db"))
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache", cacheEnv)

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Plate:       plate,
		Compression: compression,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes reddot count multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, root, cacheBackend string, numRuns int, env []string) (coldTime float64, warmTimes []float64) {
	args := []string{"count", root, "--cache-backend", cacheBackend}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("reddot", args...)
		cmd.Env = append(os.Environ(), env...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Counted") && strings.Contains(outputStr, "Run completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("reddot_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"plate", "compression", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Plate, result.Compression, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %-8s: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Plate, result.Compression, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
