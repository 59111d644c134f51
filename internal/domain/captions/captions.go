package captions

import (
	"strings"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/types"
)

// Align slices the global word sequence to the selected window, re-bases word
// times to the clip-local axis and greedily packs them into cues under the
// configured duration and character budgets. A window without words yields no
// cues, which is an allowed state, not an error.
func Align(words []types.Word, win types.TimeRange, cfg config.Captions) []types.CaptionCue {
	local := sliceWords(words, win, cfg.BoundaryPolicy)
	if len(local) == 0 {
		return nil
	}

	var out []types.CaptionCue
	cur := types.CaptionCue{Start: local[0].Start, End: local[0].End, Text: local[0].Text}
	for _, w := range local[1:] {
		joined := cur.Text + " " + w.Text
		if len([]rune(joined)) > cfg.MaxCueChars || w.End-cur.Start > cfg.MaxCueDurationSec {
			out = append(out, cur)
			start := w.Start
			// Cues never overlap, even when word timings do.
			if start < cur.End {
				start = cur.End
			}
			cur = types.CaptionCue{Start: start, End: w.End, Text: w.Text}
			// A word nested inside the previous cue's span would otherwise
			// invert the new cue.
			if cur.End < cur.Start {
				cur.End = cur.Start
			}
			continue
		}
		cur.Text = joined
		if w.End > cur.End {
			cur.End = w.End
		}
	}
	return append(out, cur)
}

// sliceWords keeps the words intersecting the window and re-bases them to the
// clip-local axis. Policy clamp truncates boundary-spanning words into the
// window; policy drop requires full containment.
func sliceWords(words []types.Word, win types.TimeRange, policy string) []types.Word {
	var out []types.Word
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" || w.End <= win.Start || w.Start >= win.End {
			continue
		}
		if policy == config.BoundaryDrop && (w.Start < win.Start || w.End > win.End) {
			continue
		}
		start, end := w.Start, w.End
		if start < win.Start {
			start = win.Start
		}
		if end > win.End {
			end = win.End
		}
		out = append(out, types.Word{
			Start: start - win.Start,
			End:   end - win.Start,
			Text:  text,
		})
	}
	return out
}
