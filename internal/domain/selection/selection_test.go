package selection

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/types"
)

func cand(start, end, total float64) types.Candidate {
	return types.Candidate{Range: types.TimeRange{Start: start, End: end}, Total: total}
}

func params() Params {
	return Params{
		Slots:           3,
		MinGapSec:       5,
		PenaltyWeight:   0,
		ProximityWindow: 0,
		MinDurationSec:  15,
		FallbackPolicy:  config.FallbackRelaxThenSynthesize,
		RelaxSteps:      3,
	}
}

func assertDisjoint(t *testing.T, picks []Pick, minGap float64) {
	t.Helper()
	for i := range picks {
		for j := i + 1; j < len(picks); j++ {
			a, b := picks[i].Range, picks[j].Range
			if a.Start > b.Start {
				a, b = b, a
			}
			if b.Start-a.End < minGap {
				t.Fatalf("picks too close: %+v and %+v", a, b)
			}
		}
	}
}

func TestSelect_TopThreeWithoutConflicts(t *testing.T) {
	cands := []types.Candidate{
		cand(0, 20, 0.3),
		cand(100, 120, 0.9),
		cand(200, 220, 0.8),
		cand(300, 320, 0.7),
		cand(400, 420, 0.1),
	}
	res := Select(cands, 600, params(), zerolog.Nop())
	if len(res.Picks) != 3 || res.Synthesized != 0 || res.Relaxed {
		t.Fatalf("unexpected result: %+v", res)
	}
	wantStarts := map[float64]bool{100: true, 200: true, 300: true}
	for _, p := range res.Picks {
		if !wantStarts[p.Range.Start] {
			t.Fatalf("unexpected pick %+v, want the top-3 by score", p.Range)
		}
	}
	// Slots follow score order.
	if res.Picks[0].Total != 0.9 || res.Picks[2].Total != 0.7 {
		t.Fatalf("slots not in score order: %+v", res.Picks)
	}
}

func TestSelect_TieBreakPrefersEarlierStart(t *testing.T) {
	p := params()
	p.Slots = 1
	cands := []types.Candidate{
		cand(30, 50, 0.5),
		cand(10, 30, 0.5),
	}
	res := Select(cands, 100, p, zerolog.Nop())
	if len(res.Picks) != 1 || res.Picks[0].Range.Start != 10 {
		t.Fatalf("expected the earlier-starting candidate, got %+v", res.Picks)
	}
}

func TestSelect_RespectsMinGap(t *testing.T) {
	p := params()
	p.Slots = 2
	cands := []types.Candidate{
		cand(0, 20, 1.0),
		cand(22, 42, 0.9), // gap 2 < 5 against the first
		cand(50, 70, 0.8),
	}
	res := Select(cands, 200, p, zerolog.Nop())
	if len(res.Picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(res.Picks))
	}
	assertDisjoint(t, res.Picks, p.MinGapSec)
	total := res.Picks[0].Total + res.Picks[1].Total
	if !almost(total, 1.8) {
		t.Fatalf("total = %g, want 1.8", total)
	}
}

func TestSelect_DiversityPenaltyFavorsDistantPick(t *testing.T) {
	p := params()
	p.PenaltyWeight = 0.5
	p.ProximityWindow = 120
	cands := []types.Candidate{
		cand(0, 20, 1.0),
		cand(40, 60, 1.0),
		cand(80, 100, 0.9),  // adjacent third peak, penalized
		cand(400, 420, 0.85), // distant, penalty-free
	}
	res := Select(cands, 600, p, zerolog.Nop())
	if len(res.Picks) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(res.Picks))
	}
	found := false
	for _, pick := range res.Picks {
		if pick.Range.Start == 400 {
			found = true
		}
		if pick.Range.Start == 80 {
			t.Fatalf("penalized adjacent pick chosen over distant one")
		}
	}
	if !found {
		t.Fatalf("distant pick missing: %+v", res.Picks)
	}
}

func TestSelect_RelaxesGapProgressively(t *testing.T) {
	cands := []types.Candidate{
		cand(0, 20, 0.9),
		cand(23, 43, 0.8), // gaps of 3 < MinGap 5
		cand(46, 66, 0.7),
	}
	res := Select(cands, 100, params(), zerolog.Nop())
	if len(res.Picks) != 3 {
		t.Fatalf("expected 3 picks after relaxation, got %d", len(res.Picks))
	}
	if !res.Relaxed || res.Synthesized != 0 {
		t.Fatalf("expected relaxation without synthesis: %+v", res)
	}
}

func TestSelect_SynthesizesWhenEmpty(t *testing.T) {
	res := Select(nil, 600, params(), zerolog.Nop())
	if len(res.Picks) != 3 || res.Synthesized != 3 {
		t.Fatalf("expected 3 synthesized picks, got %+v", res)
	}
	assertDisjoint(t, res.Picks, 0)
	for _, p := range res.Picks {
		if !p.Synthesized {
			t.Fatalf("expected synthesized flag on fallback pick")
		}
		if p.Range.Start < 0 || p.Range.End > 600 {
			t.Fatalf("fallback window outside media bounds: %+v", p.Range)
		}
		if !almost(p.Range.Duration(), 15) {
			t.Fatalf("fallback window duration %g, want platform minimum 15", p.Range.Duration())
		}
	}
}

func TestSelect_SynthesizesRemainderDisjointFromPicks(t *testing.T) {
	p := params()
	p.FallbackPolicy = config.FallbackSynthesize
	cands := []types.Candidate{cand(290, 310, 0.9)}
	res := Select(cands, 600, p, zerolog.Nop())
	if len(res.Picks) != 3 || res.Synthesized != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Relaxed {
		t.Fatalf("synthesize policy must not relax the gap")
	}
	assertDisjoint(t, res.Picks, 0)
	if res.Picks[0].Synthesized || res.Picks[0].Range.Start != 290 {
		t.Fatalf("scored pick must hold the first slot: %+v", res.Picks[0])
	}
}

// The end-to-end shape from the design brief: 600 seconds of media, speech in
// [10,590], uniform low scores except three isolated 20-second peaks at
// [50,70], [300,320] and [550,570].
func TestSelect_ThreeIsolatedPeaks(t *testing.T) {
	peaks := []types.TimeRange{
		{Start: 50, End: 70},
		{Start: 300, End: 320},
		{Start: 550, End: 570},
	}
	var cands []types.Candidate
	for start := 10.0; start+20 <= 590; start += 2 {
		w := types.TimeRange{Start: start, End: start + 20}
		score := 0.2
		for _, p := range peaks {
			score += 0.7 * p.Overlap(w) / w.Duration()
		}
		cands = append(cands, types.Candidate{Range: w, Total: score})
	}
	p := params()
	p.PenaltyWeight = 0.5
	p.ProximityWindow = 60
	res := Select(cands, 600, p, zerolog.Nop())
	if len(res.Picks) != 3 || res.Synthesized != 0 || res.Relaxed {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, want := range peaks {
		matched := false
		for _, pick := range res.Picks {
			if math.Abs(pick.Range.Mid()-want.Mid()) <= 4 {
				matched = true
			}
		}
		if !matched {
			t.Fatalf("no pick near peak %+v: %+v", want, res.Picks)
		}
	}
	if res.Picks[0].Total < res.Picks[1].Total || res.Picks[1].Total < res.Picks[2].Total {
		t.Fatalf("slots not in descending score order: %+v", res.Picks)
	}
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
