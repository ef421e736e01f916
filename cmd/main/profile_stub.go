//go:build !pprof

package main

import "log/slog"

// startProfile is a no-op unless the binary is built with the pprof tag.
func startProfile(logger *slog.Logger, mode, _ string) func() {
	if mode != "" {
		logger.Warn("Profiling requested but this build has no pprof support, rebuild with -tags pprof", "mode", mode)
	}
	return func() {}
}
