// Package telemetry aggregates per-tick simulation and streaming counters
// into window statistics and writes them to CSV for offline analysis.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Pool occupancy at window end
	LiveParticles int `csv:"live_particles"`

	// Events during window
	Ticks   int `csv:"ticks"`
	Spawned int `csv:"spawned"`

	// Streaming pipeline
	FramesPainted   int     `csv:"frames_painted"`
	FramesForwarded int     `csv:"frames_forwarded"`
	FramesSkipped   int     `csv:"frames_skipped"`
	FrameErrors     int     `csv:"frame_errors"`
	TextureFrames   int     `csv:"texture_frames"`
	BitmapFrames    int     `csv:"bitmap_frames"`
	ForwardRatio    float64 `csv:"forward_ratio"`

	// Tick timing in milliseconds
	TickMsMean float64 `csv:"tick_ms_mean"`
	TickMsP50  float64 `csv:"tick_ms_p50"`
	TickMsP99  float64 `csv:"tick_ms_p99"`

	// Audio levels averaged over the window
	BassMean    float64 `csv:"bass_mean"`
	MidMean     float64 `csv:"mid_mean"`
	HighMean    float64 `csv:"high_mean"`
	OverallMean float64 `csv:"overall_mean"`
}

// ComputeTimingStats returns mean, p50 and p99 of the given durations in
// milliseconds. Zeroes for an empty sample.
func ComputeTimingStats(ms []float64) (mean, p50, p99 float64) {
	n := len(ms)
	if n == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, n)
	copy(sorted, ms)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return mean, p50, p99
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("live_particles", s.LiveParticles),
		slog.Int("ticks", s.Ticks),
		slog.Int("spawned", s.Spawned),
		slog.Int("frames_painted", s.FramesPainted),
		slog.Int("frames_forwarded", s.FramesForwarded),
		slog.Int("frames_skipped", s.FramesSkipped),
		slog.Int("frame_errors", s.FrameErrors),
		slog.Int("texture_frames", s.TextureFrames),
		slog.Int("bitmap_frames", s.BitmapFrames),
		slog.Float64("forward_ratio", s.ForwardRatio),
		slog.Float64("tick_ms_mean", s.TickMsMean),
		slog.Float64("tick_ms_p50", s.TickMsP50),
		slog.Float64("tick_ms_p99", s.TickMsP99),
		slog.Float64("bass_mean", s.BassMean),
		slog.Float64("mid_mean", s.MidMean),
		slog.Float64("high_mean", s.HighMean),
		slog.Float64("overall_mean", s.OverallMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
