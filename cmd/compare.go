package cmd

import (
	"fmt"
	"os"

	"github.com/lepinkainen/tinyimg/photo"
	"github.com/lepinkainen/tinyimg/ui"
)

// CompareCmd reports how perceptually close a compressed image is to its original.
// The distance is the Hamming distance between perceptual hashes, 0 meaning
// the two look the same.
type CompareCmd struct {
	Original   string `arg:"" name:"original" help:"Original image" type:"existingfile"`
	Compressed string `arg:"" name:"compressed" help:"Compressed image" type:"existingfile"`
	Threshold  int    `help:"Hamming distance threshold for similarity (0-64)" default:"10"`
}

func (cmd *CompareCmd) Run() error {
	a, err := os.ReadFile(cmd.Original)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Original, err)
	}
	b, err := os.ReadFile(cmd.Compressed)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Compressed, err)
	}

	distance, err := photo.PerceptualDistance(a, b)
	if err != nil {
		return fmt.Errorf("failed to compare images: %w", err)
	}

	if distance <= cmd.Threshold {
		fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ Similar (distance %d): %s ↔ %s", distance, cmd.Original, cmd.Compressed)))
		return nil
	}
	fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Visibly different (distance %d > %d): %s ↔ %s", distance, cmd.Threshold, cmd.Original, cmd.Compressed)))
	return nil
}
