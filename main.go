package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/tinyimg/cmd"
	"github.com/lepinkainen/tinyimg/config"
	"github.com/lepinkainen/tinyimg/types"
)

var Version = "dev"

type CLI struct {
	Config   string           `help:"Path to the YAML config file" default:"tinyimg.yml" type:"path"`
	LogLevel string           `help:"Log level (debug, info, warn, error); overrides the config" default:""`
	Version  kong.VersionFlag `help:"Print version and exit"`

	Compress cmd.CompressCmd `cmd:"" help:"Compress images to JPEG in batches"`
	Inspect  cmd.InspectCmd  `cmd:"" help:"List the images a compress run would take, without compressing"`
	Compare  cmd.CompareCmd  `cmd:"" help:"Compare an original and a compressed image by perceptual hash"`
}

// loadConfig resolves the effective configuration: file, then .env and
// environment, then the global flags
func loadConfig(cli *CLI) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tinyimg"),
		kong.Description("Batch image compression"),
		kong.Vars{"version": Version},
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(&cli)
	if err != nil {
		ctx.FatalIfErrorf(fmt.Errorf("invalid configuration: %w", err))
	}

	appCtx := &types.AppContext{
		Version:    Version,
		ConfigPath: cli.Config,
		Config:     cfg,
		Logger:     newLogger(cfg),
	}

	err = ctx.Run(appCtx)
	ctx.FatalIfErrorf(err)
}
