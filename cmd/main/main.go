package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/CTAG07/nectar/pkg/nectar"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// CLI is the top-level command-line interface for nectar.
type CLI struct {
	Config     string `help:"Path to the configuration file" default:"./config.json" type:"path"`
	LogLevel   string `help:"Log level (debug, info, warn, error)" default:"info"`
	Profile    string `help:"Enable profiling (cpu, mem, trace); requires the pprof build tag" default:""`
	ProfileDir string `help:"Profile output directory" default:"./profiles" type:"path"`

	Render  RenderCmd  `cmd:"" help:"Render a template file to stdout or a file"`
	Serve   ServeCmd   `cmd:"" help:"Run the preview and management server"`
	Funcs   FuncsCmd   `cmd:"" help:"List the template functions an engine starts with"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// App carries the pieces every command needs.
type App struct {
	cli    *CLI
	logger *slog.Logger
}

// parseLogLevel maps a config string onto a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FuncsCmd lists every function a fresh engine exposes to templates.
type FuncsCmd struct {
	Custom bool `help:"Only list functions that are not built in" short:"c"`
}

func (c *FuncsCmd) Run(a *App) error {
	eng, err := nectar.New(a.logger, nil, "")
	if err != nil {
		return err
	}
	for _, name := range eng.RegisteredFunctions() {
		builtin := eng.IsBuiltinFunction(name)
		if c.Custom && builtin {
			continue
		}
		kind := "builtin"
		if !builtin {
			kind = "custom"
		}
		fmt.Printf("%-14s %s\n", name, kind)
	}
	return nil
}

// VersionCmd prints the build information baked in at link time.
type VersionCmd struct{}

func (VersionCmd) Run(*App) error {
	fmt.Printf("nectar %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	return nil
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("nectar"),
		kong.Description("A delimiter-based templating engine with a preview server."),
		kong.UsageOnError(),
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cli.LogLevel),
	}))

	stop := startProfile(logger, cli.Profile, cli.ProfileDir)
	defer stop()

	err := ktx.Run(&App{cli: &cli, logger: logger})
	ktx.FatalIfErrorf(err)
}
