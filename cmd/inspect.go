package cmd

import (
	"fmt"

	"github.com/lepinkainen/tinyimg/config"
	"github.com/lepinkainen/tinyimg/photo"
	"github.com/lepinkainen/tinyimg/types"
	"github.com/lepinkainen/tinyimg/utils"
)

// InspectCmd shows what compress would do without compressing anything
type InspectCmd struct {
	Paths        []string `arg:"" name:"paths" help:"Image files or directories to inspect" type:"path"`
	MaxDimension int      `help:"Upper bound for the shorter side (0 = config)" default:"0"`
}

// inspectStats tracks totals during inspection
type inspectStats struct {
	Admitted   int
	Rejected   int
	Unreadable int
	TotalSize  int64
}

func (cmd *InspectCmd) Run(appCtx *types.AppContext) error {
	ceiling := config.Default().MaxDimension
	if appCtx != nil && appCtx.Config != nil {
		ceiling = appCtx.Config.MaxDimension
	}
	if cmd.MaxDimension > 0 {
		ceiling = cmd.MaxDimension
	}

	paths, err := photo.ExpandPaths(cmd.Paths)
	if err != nil {
		return fmt.Errorf("failed to expand directories: %w", err)
	}

	fmt.Printf("📊 Analyzing %d files:\n\n", len(paths))
	stats := cmd.inspect(paths, ceiling)

	fmt.Printf("📈 Summary:\n")
	fmt.Printf("   Total files: %d\n", len(paths))
	fmt.Printf("   Would compress: %d files\n", stats.Admitted)
	fmt.Printf("   Would skip: %d files\n", stats.Rejected)
	if stats.Unreadable > 0 {
		fmt.Printf("   Unreadable: %d files\n", stats.Unreadable)
	}
	fmt.Printf("   Total size: %s\n", utils.HumanizeBytes(stats.TotalSize))
	return nil
}

func (cmd *InspectCmd) inspect(paths []string, ceiling int) inspectStats {
	var stats inspectStats

	for _, p := range paths {
		fmt.Printf("🖼️  %s\n", p)

		raw, err := photo.LoadRawFile(p)
		if err != nil {
			fmt.Printf("   ❌ Error: %v\n", err)
			stats.Unreadable++
			continue
		}

		fmt.Printf("   📏 Size: %s\n", utils.HumanizeBytes(raw.Size))
		fmt.Printf("   🏷️  Type: %s\n", raw.Type)

		if err := photo.Check(raw); err != nil {
			fmt.Printf("   ⏭️  %v, would skip\n", err)
			stats.Rejected++
			fmt.Println()
			continue
		}

		w, h, err := photo.ProbeDimensions(raw.Data)
		if err != nil {
			fmt.Printf("   ⚠️  Cannot read dimensions, compression would fail: %v\n", err)
		} else {
			fmt.Printf("   📐 %dx%d, max dimension hint %d\n", w, h, photo.TargetDimension(w, h, ceiling))
		}

		stats.Admitted++
		stats.TotalSize += raw.Size
		fmt.Println()
	}

	return stats
}
