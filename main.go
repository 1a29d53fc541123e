package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/app"
	"github.com/pthm-cable/comet/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the simulation without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Noise/RNG seed (0 = config, then time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Simulation worker goroutines (0 = GOMAXPROCS)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := app.Options{
		Seed:      *seed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Headless:  *headless,
		Workers:   *workers,
	}

	if *headless {
		a, err := app.New(opts)
		if err != nil {
			slog.Error("initializing", "error", err)
			os.Exit(1)
		}
		defer a.Unload()

		slog.Info("starting headless simulation",
			"seed", *seed,
			"max_ticks", *maxTicks,
		)
		for {
			a.UpdateHeadless()
			if *maxTicks > 0 && a.Tick() >= *maxTicks {
				slog.Info("max ticks reached", "tick", a.Tick())
				return
			}
		}
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Comet")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	a, err := app.New(opts)
	if err != nil {
		slog.Error("initializing", "error", err)
		os.Exit(1)
	}
	defer a.Unload()

	if cfg.Stream.Enabled {
		if err := a.StartStream(); err != nil {
			slog.Error("starting stream", "error", err)
		}
	}

	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()

		if *maxTicks > 0 && a.Tick() >= *maxTicks {
			break
		}
	}
}
