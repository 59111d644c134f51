package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/farrelfz/clipper/internal/types"
)

func TestWrite_RoundTrips(t *testing.T) {
	plan := Build(600, map[string][]types.ClipPlan{
		"tiktok": {
			{Platform: "tiktok", Slot: 1, StartSec: 50, EndSec: 70, TotalScore: 0.9,
				Breakdown: map[string]float64{"speech_density": 1},
				Crop:      []types.CropKeyframe{{Time: 0, Box: types.BBox{X1: 0.3, Y1: 0, X2: 0.62, Y2: 1}}},
				Cues:      []types.CaptionCue{{Start: 0, End: 2, Text: "hello"}},
			},
		},
	})

	path := filepath.Join(t.TempDir(), "plans", "export_plan.json")
	if err := Write(path, plan); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got types.ExportPlan
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.MediaDurationSec != 600 {
		t.Fatalf("media duration = %g", got.MediaDurationSec)
	}
	clips := got.Platforms["tiktok"]
	if len(clips) != 1 || clips[0].StartSec != 50 || clips[0].Cues[0].Text != "hello" {
		t.Fatalf("round trip mismatch: %+v", clips)
	}
}
