package windows

import (
	"sort"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/domain/signal"
	"github.com/farrelfz/clipper/internal/types"
)

// Generate produces the candidate window population for one platform.
// Windows open only at voice-activity boundaries or at stepped offsets inside
// a speech segment, never mid-silence, and are deduplicated by temporal IoU
// with the earlier window winning.
func Generate(set *signal.Set, platform config.Platform, gen config.Generator) []types.TimeRange {
	durations := targetDurations(platform)

	var out []types.TimeRange
	for _, seg := range set.Speech {
		for start := seg.Start; start < seg.End; start += gen.StepSec {
			for _, d := range durations {
				w := types.TimeRange{Start: start, End: start + d}
				if w.End > set.MediaDuration {
					w.End = set.MediaDuration
				}
				if w.Duration() < platform.MinDurationSec {
					continue
				}
				if !keep(out, w, gen.DedupIoU) {
					continue
				}
				out = append(out, w)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// targetDurations returns the platform's configured duration set, falling
// back to min, midpoint and max of the legal bounds.
func targetDurations(platform config.Platform) []float64 {
	if len(platform.TargetDurationsSec) > 0 {
		out := make([]float64, len(platform.TargetDurationsSec))
		copy(out, platform.TargetDurationsSec)
		sort.Float64s(out)
		return out
	}
	mid := (platform.MinDurationSec + platform.MaxDurationSec) / 2
	out := []float64{platform.MinDurationSec}
	if mid > platform.MinDurationSec {
		out = append(out, mid)
	}
	if platform.MaxDurationSec > mid {
		out = append(out, platform.MaxDurationSec)
	}
	return out
}

func keep(kept []types.TimeRange, w types.TimeRange, threshold float64) bool {
	for _, k := range kept {
		if k.IoU(w) > threshold {
			return false
		}
	}
	return true
}
