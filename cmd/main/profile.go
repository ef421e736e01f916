//go:build pprof

package main

import (
	"log/slog"

	"github.com/pkg/profile"
)

var profileModes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"mutex":     profile.MutexProfile,
	"trace":     profile.TraceProfile,
}

// startProfile begins profiling in the given mode and returns a stop
// function. An empty or unknown mode returns a no-op.
func startProfile(logger *slog.Logger, mode, dir string) func() {
	if mode == "" {
		return func() {}
	}
	fn, ok := profileModes[mode]
	if !ok {
		logger.Warn("Unknown profile mode, profiling disabled", "mode", mode)
		return func() {}
	}
	logger.Info("Profiling enabled", "mode", mode, "dir", dir)
	p := profile.Start(fn, profile.ProfilePath(dir), profile.Quiet)
	return p.Stop
}
