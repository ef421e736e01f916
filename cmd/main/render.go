package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/CTAG07/nectar/pkg/nectar"
)

// RenderCmd renders one template file and writes the result to stdout or a file.
type RenderCmd struct {
	Template string        `arg:"" help:"Path to the template file to render." type:"existingfile"`
	Data     string        `help:"Path to a JSON or YAML file with template data." short:"d" type:"existingfile"`
	Out      string        `help:"Write output to this file instead of stdout." short:"o" type:"path"`
	Sync     bool          `help:"Render without async function dispatch."`
	Timeout  time.Duration `help:"Timeout for async rendering." default:"30s"`
	Verbose  bool          `help:"Log render timing and output size." short:"v"`
}

func (c *RenderCmd) Run(a *App) error {
	data, err := loadRenderData(c.Data)
	if err != nil {
		return err
	}

	// Partial lookups are rooted at the template's own directory.
	absTemplate, err := filepath.Abs(c.Template)
	if err != nil {
		return fmt.Errorf("failed to resolve template path: %w", err)
	}

	// LoadConfig writes a default file when the path is missing, which a
	// one-shot render should not do, so only read configs that exist.
	var engineConfig *nectar.Config
	if _, statErr := os.Stat(a.cli.Config); statErr == nil {
		config, loadErr := LoadConfig(a.cli.Config)
		if loadErr != nil {
			return fmt.Errorf("failed to load configuration: %w", loadErr)
		}
		engineConfig = config.Engine
	}

	eng, err := nectar.New(a.logger, engineConfig, filepath.Dir(absTemplate))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	start := time.Now()
	var out string
	if c.Sync {
		out, err = eng.RenderFile(absTemplate, data)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()
		out, err = eng.RenderFileAsync(ctx, absTemplate, data)
	}
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if c.Verbose {
		a.logger.Info("Render complete",
			"template", filepath.Base(absTemplate),
			"duration", time.Since(start).Round(time.Microsecond),
			"size", humanize.Bytes(uint64(len(out))))
	}

	if c.Out != "" {
		if err = atomic.WriteFile(c.Out, strings.NewReader(out)); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	fmt.Print(out)
	return nil
}

// loadRenderData reads template data from a JSON or YAML file. The format is
// picked by extension, with YAML as the fallback since JSON is valid YAML.
func loadRenderData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	data := make(map[string]any)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err = json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON data file: %w", err)
		}
		return data, nil
	}
	if err = yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML data file: %w", err)
	}
	return data, nil
}
