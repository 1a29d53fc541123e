package telemetry

import (
	"sync"
	"time"

	"github.com/pthm-cable/comet/audio"
)

// Collector accumulates per-tick and per-paint events within time windows
// and produces WindowStats. The streaming observer methods may be called
// from the paint path concurrently with tick recording, so every counter
// sits behind the mutex.
type Collector struct {
	mu sync.Mutex

	windowTicks int64

	windowStartTick int64

	// Tick-side accumulation
	ticks    int
	spawned  int
	tickMs   []float64
	bassSum  float64
	midSum   float64
	highSum  float64
	overall  float64
	lastLive int

	// Streaming pipeline counters
	framesPainted   int
	framesForwarded int
	framesSkipped   int
	frameErrors     int
	textureFrames   int
	bitmapFrames    int
}

// NewCollector creates a stats collector.
// windowTicks: how many simulation ticks each stats window spans.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: windowTicks,
		tickMs:      make([]float64, 0, windowTicks),
	}
}

// RecordTick records one completed simulation tick.
func (c *Collector) RecordTick(dur time.Duration, spawned, live int, bands audio.Bands) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	c.spawned += spawned
	c.lastLive = live
	c.tickMs = append(c.tickMs, float64(dur)/float64(time.Millisecond))
	c.bassSum += bands.Bass
	c.midSum += bands.Mid
	c.highSum += bands.High
	c.overall += bands.Overall
}

// FramePainted implements the streaming pipeline observer.
func (c *Collector) FramePainted() {
	c.mu.Lock()
	c.framesPainted++
	c.mu.Unlock()
}

// FrameSkipped records a paint dropped by the pacing policy.
func (c *Collector) FrameSkipped() {
	c.mu.Lock()
	c.framesSkipped++
	c.mu.Unlock()
}

// FrameForwarded records a frame handed to the sender, tagged by path.
func (c *Collector) FrameForwarded(texturePath bool) {
	c.mu.Lock()
	c.framesForwarded++
	if texturePath {
		c.textureFrames++
	} else {
		c.bitmapFrames++
	}
	c.mu.Unlock()
}

// FrameError records a capture or forward failure.
func (c *Collector) FrameError() {
	c.mu.Lock()
	c.frameErrors++
	c.mu.Unlock()
}

// ShouldFlush returns true once the window has elapsed.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// simTime is the engine's elapsed simulation time at the window end.
func (c *Collector) Flush(currentTick int64, simTime float64) WindowStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		LiveParticles:   c.lastLive,
		Ticks:           c.ticks,
		Spawned:         c.spawned,
		FramesPainted:   c.framesPainted,
		FramesForwarded: c.framesForwarded,
		FramesSkipped:   c.framesSkipped,
		FrameErrors:     c.frameErrors,
		TextureFrames:   c.textureFrames,
		BitmapFrames:    c.bitmapFrames,
	}
	if c.framesPainted > 0 {
		s.ForwardRatio = float64(c.framesForwarded) / float64(c.framesPainted)
	}
	s.TickMsMean, s.TickMsP50, s.TickMsP99 = ComputeTimingStats(c.tickMs)
	if c.ticks > 0 {
		n := float64(c.ticks)
		s.BassMean = c.bassSum / n
		s.MidMean = c.midSum / n
		s.HighMean = c.highSum / n
		s.OverallMean = c.overall / n
	}

	c.windowStartTick = currentTick
	c.ticks = 0
	c.spawned = 0
	c.tickMs = c.tickMs[:0]
	c.bassSum, c.midSum, c.highSum, c.overall = 0, 0, 0, 0
	c.framesPainted = 0
	c.framesForwarded = 0
	c.framesSkipped = 0
	c.frameErrors = 0
	c.textureFrames = 0
	c.bitmapFrames = 0

	return s
}
