package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagSeed     = flag.Int64("seed", 0, "World seed (0 keeps the configured seed)")
	flagWorkers  = flag.Int("workers", 0, "Number of streaming worker threads")
	flagSync     = flag.Bool("sync", false, "Disable background streaming threads")
	flagDuration = flag.Float64("duration", 0, "Simulation duration in seconds")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Generation.Seed = *flagSeed
	}
	if *flagWorkers > 0 {
		cfg.Streaming.NumWorkerThreads = *flagWorkers
	}
	if *flagSync {
		cfg.Streaming.UseBackgroundThread = false
	}
	if *flagDuration > 0 {
		cfg.Simulation.DurationSec = *flagDuration
	}
}
