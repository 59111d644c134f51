package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/farrelfz/clipper/internal/types"
)

// Build assembles the root export plan from per-platform clip triples.
func Build(mediaDuration float64, perPlatform map[string][]types.ClipPlan) types.ExportPlan {
	return types.ExportPlan{
		MediaDurationSec: mediaDuration,
		Platforms:        perPlatform,
	}
}

// Write serializes the plan to disk. The file is the sole contract boundary
// to the renderer.
func Write(path string, plan types.ExportPlan) error {
	b, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
