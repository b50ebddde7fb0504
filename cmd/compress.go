package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/tinyimg/archive"
	"github.com/lepinkainen/tinyimg/batch"
	"github.com/lepinkainen/tinyimg/config"
	"github.com/lepinkainen/tinyimg/photo"
	"github.com/lepinkainen/tinyimg/types"
	"github.com/lepinkainen/tinyimg/ui"
	"github.com/lepinkainen/tinyimg/utils"
)

// DebugLogName is the log file used while the interactive UI owns the terminal
const DebugLogName = "tinyimg-debug.log"

type CompressCmd struct {
	Paths          []string `arg:"" name:"paths" help:"Image files or directories to compress" type:"path"`
	ChunkSize      int      `help:"Files compressed concurrently per chunk (0 = config)" default:"0"`
	Pause          string   `help:"Pause between chunks, e.g. 100ms (empty = config)" default:""`
	Quality        int      `help:"JPEG quality 1-100 (0 = config)" default:"0"`
	MaxDimension   int      `help:"Upper bound for the shorter side (0 = config)" default:"0"`
	MaxSizeKB      int      `name:"max-size-kb" help:"Target output size in KB (0 = config)" default:"0"`
	Resize         bool     `help:"Allow shrinking dimensions to reach --max-size-kb"`
	MeasureQuality bool     `help:"Report the perceptual distance between source and result"`
	Out            string   `short:"o" help:"Output directory (empty = config)" default:""`
	Archive        bool     `help:"Also write every result into tinyimg.zip"`
	NoTUI          bool     `name:"no-tui" help:"Print plain progress instead of the interactive view"`
}

// ApplyFlags overrides cfg with every flag that was given
func (cmd *CompressCmd) ApplyFlags(cfg *config.Config) error {
	if cmd.ChunkSize != 0 {
		cfg.ChunkSize = cmd.ChunkSize
	}
	if cmd.Pause != "" {
		d, err := time.ParseDuration(cmd.Pause)
		if err != nil {
			return fmt.Errorf("invalid --pause: %w", err)
		}
		cfg.ChunkPause = d
	}
	if cmd.Quality != 0 {
		cfg.Quality = cmd.Quality
	}
	if cmd.MaxDimension != 0 {
		cfg.MaxDimension = cmd.MaxDimension
	}
	if cmd.MaxSizeKB != 0 {
		cfg.MaxSizeKB = cmd.MaxSizeKB
	}
	if cmd.Resize {
		cfg.KeepResolution = false
	}
	if cmd.MeasureQuality {
		cfg.MeasureQuality = true
	}
	if cmd.Out != "" {
		cfg.OutDir = cmd.Out
	}
	return cfg.Validate()
}

func (cmd *CompressCmd) Run(appCtx *types.AppContext) error {
	version := types.DefaultVersion
	cfg := config.Default()
	if appCtx != nil {
		version = appCtx.Version
		if appCtx.Config != nil {
			c := *appCtx.Config
			cfg = &c
		}
	}
	if err := cmd.ApplyFlags(cfg); err != nil {
		return err
	}

	paths, err := photo.ExpandPaths(cmd.Paths)
	if err != nil {
		return fmt.Errorf("failed to expand directories: %w", err)
	}

	raws, loadErrs := photo.LoadRawFiles(paths)
	for _, err := range loadErrs {
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
	}
	for _, raw := range raws {
		if err := photo.Check(raw); err != nil {
			fmt.Printf("⏭️  Skipping %s: %v\n", raw.Name, err)
		}
	}
	if len(photo.Admit(raws)) == 0 {
		fmt.Println("🎯 No images to compress.")
		return nil
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cmd.NoTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		return cmd.runPlain(ctx, cfg, raws, appCtx.LoggerOrDiscard(), version)
	}
	return cmd.runTUI(ctx, cfg, raws, version)
}

// newSession wires worker, scheduler and ledger from cfg
func newSession(cfg *config.Config, logger *slog.Logger) *batch.Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	worker := photo.NewWorker(nil, photo.WorkerOptions{
		Ceiling:        cfg.MaxDimension,
		Quality:        cfg.Quality,
		MaxSizeBytes:   cfg.MaxSizeBytes(),
		KeepResolution: cfg.KeepResolution,
		MeasureQuality: cfg.MeasureQuality,
	})
	sched := batch.NewScheduler(worker,
		batch.Config{ChunkSize: cfg.ChunkSize, Pause: cfg.ChunkPause},
		batch.WithLogger(logger))
	return batch.NewSession(batch.NewLedger(), sched, logger)
}

// runTUI hands the terminal to the interactive view. Logging goes to a file
// so it does not draw over the alt screen.
func (cmd *CompressCmd) runTUI(ctx context.Context, cfg *config.Config, raws []photo.RawFile, version string) error {
	f, err := tea.LogToFile(filepath.Join(cfg.OutDir, DebugLogName), "tinyimg")
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	defer f.Close()

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := newSession(cfg, logger)
	exporter := archive.NewExporter(nil, archive.DirSink{Dir: cfg.OutDir})
	model := ui.NewBatchModel(ctx, session.Ledger(), exporter, version)

	session.Add(ctx, raws)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	session.Wait()

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	printSummary(session.Stats())
	return nil
}

// runPlain drives a progress bar from ledger changes and writes the results
// once the batch has settled
func (cmd *CompressCmd) runPlain(ctx context.Context, cfg *config.Config, raws []photo.RawFile, logger *slog.Logger, version string) error {
	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("TinyImg %s", version)))

	// per-file results are printed once the bar is done
	session := newSession(cfg, quietLogger(logger))
	ledger := session.Ledger()

	changes, unsubscribe := ledger.Subscribe()
	defer unsubscribe()

	indices := session.Add(ctx, raws)
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("🗜️  Compressing %d images, %d at a time:", len(indices), cfg.ChunkSize)))

	bar := progressbar.NewOptions(len(indices),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("compressing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		session.Wait()
		close(done)
	}()

	watch := func() {
		s := batch.Compute(ledger.Snapshot())
		_ = bar.Set(s.CompletedCount + s.FailedCount)
	}
loop:
	for {
		select {
		case <-changes:
			watch()
		case <-done:
			watch()
			break loop
		}
	}
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		fmt.Println(ui.ErrorStyle.Render("⚠️  Interrupted, saving what is finished"))
	}

	snap := ledger.Snapshot()
	exporter := archive.NewExporter(nil, archive.DirSink{Dir: cfg.OutDir})
	for i := range snap.Sources {
		printResult(snap, i)
		if !snap.Filled(i) {
			continue
		}
		if _, err := exporter.ExportItem(snap, i); err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Failed to save %s: %v", snap.Sources[i].Name, err)))
		}
	}

	if cmd.Archive {
		// the interrupt context is done by now if the user pressed ctrl+c
		path, err := exporter.Export(context.Background(), snap)
		if err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Archive not written: %v", err)))
		} else {
			fmt.Printf("📦 %s\n", path)
		}
	}

	printSummary(batch.Compute(snap))
	return nil
}

// levelFloor drops records below min before they reach the wrapped handler
type levelFloor struct {
	slog.Handler
	min slog.Level
}

func (h levelFloor) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.Handler.Enabled(ctx, level)
}

func (h levelFloor) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelFloor{Handler: h.Handler.WithAttrs(attrs), min: h.min}
}

func (h levelFloor) WithGroup(name string) slog.Handler {
	return levelFloor{Handler: h.Handler.WithGroup(name), min: h.min}
}

// quietLogger keeps info records from drawing through the progress bar.
// A logger already at debug level is returned as is.
func quietLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return nil
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return logger
	}
	return slog.New(levelFloor{Handler: logger.Handler(), min: slog.LevelWarn})
}

func printResult(snap batch.Snapshot, i int) {
	src := snap.Sources[i]
	switch snap.Status(i) {
	case batch.StatusDone:
		res := snap.Results[i]
		line := fmt.Sprintf("✅ %s: %s → %s (-%.1f%%)", src.Name,
			utils.HumanizeBytes(src.SizeBytes), utils.HumanizeBytes(res.SizeBytes), res.Savings(src)*100)
		if res.Distance >= 0 {
			line += fmt.Sprintf(", distance %d", res.Distance)
		}
		fmt.Println(ui.SuccessStyle.Render(line))
	case batch.StatusFailed:
		fmt.Println(ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", src.Name, snap.Failures[i])))
	default:
		fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("⏭️  %s: not compressed", src.Name)))
	}
}

func printSummary(stats batch.Stats) {
	fmt.Printf("\n%s\n", ui.HeaderStyle.Render("📊 Compression Summary"))
	fmt.Printf("   Compressed: %d/%d files\n", stats.CompletedCount, stats.TotalCount)
	if stats.FailedCount > 0 {
		fmt.Printf("   Failed: %d files\n", stats.FailedCount)
	}
	fmt.Printf("   Size: %s → %s\n", utils.HumanizeBytes(stats.SourceBytes), utils.HumanizeBytes(stats.ResultBytes))
	fmt.Printf("   Reduced the size by %.0f%%\n", stats.PercentSaved)
}
