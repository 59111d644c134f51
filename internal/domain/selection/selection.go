package selection

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/types"
)

// Params are the per-platform selection constraints.
type Params struct {
	Slots           int
	MinGapSec       float64
	PenaltyWeight   float64
	ProximityWindow float64
	MinDurationSec  float64
	FallbackPolicy  string
	RelaxSteps      int
}

// FromConfig assembles selection parameters for one platform.
func FromConfig(platform config.Platform, sel config.Selection) Params {
	return Params{
		Slots:           sel.ClipsPerPlatform,
		MinGapSec:       platform.MinGapSec,
		PenaltyWeight:   platform.Diversity.PenaltyWeight,
		ProximityWindow: platform.Diversity.ProximityWindowSec,
		MinDurationSec:  platform.MinDurationSec,
		FallbackPolicy:  sel.FallbackPolicy,
		RelaxSteps:      sel.RelaxSteps,
	}
}

// Pick is one selected window. Synthesized picks come from the fallback and
// carry no meaningful score.
type Pick struct {
	types.Candidate
	Synthesized bool
}

// Result is the outcome of one platform's selection run.
type Result struct {
	Picks       []Pick
	RelaxedGap  float64
	Relaxed     bool
	Synthesized int
}

// Select solves the constrained maximization for one platform: exactly
// p.Slots pairwise-disjoint candidates with gap >= MinGapSec maximizing total
// score minus the pairwise diversity penalty. When the candidate set cannot
// fill every slot the configured fallback policy kicks in: progressive gap
// relaxation, then synthesis of evenly-spaced minimum-duration windows. The
// result always holds exactly p.Slots picks.
func Select(cands []types.Candidate, mediaDuration float64, p Params, log zerolog.Logger) Result {
	gaps := []float64{p.MinGapSec}
	if p.FallbackPolicy == config.FallbackRelaxThenSynthesize {
		g := p.MinGapSec
		for i := 0; i < p.RelaxSteps; i++ {
			g /= 2
			gaps = append(gaps, g)
		}
	}

	res := Result{}
	var best []types.Candidate
	for i, gap := range gaps {
		picked := solve(cands, gap, p)
		if len(picked) > len(best) {
			best = picked
			res.RelaxedGap = gap
			res.Relaxed = i > 0
		}
		if len(best) >= p.Slots {
			break
		}
	}
	if res.Relaxed {
		log.Warn().
			Float64("relaxed_gap_s", res.RelaxedGap).
			Int("picked", len(best)).
			Msg("relaxed minimum gap to fill clip slots")
	}

	for _, c := range best {
		res.Picks = append(res.Picks, Pick{Candidate: c})
	}
	if missing := p.Slots - len(res.Picks); missing > 0 {
		synth := synthesize(res.Picks, missing, mediaDuration, p.MinDurationSec)
		res.Picks = append(res.Picks, synth...)
		res.Synthesized = len(synth)
		log.Warn().
			Int("synthesized", len(synth)).
			Msg("synthesized fallback windows for unfilled clip slots")
	}

	// Slots are assigned in score order, synthesized picks last.
	sort.SliceStable(res.Picks, func(i, j int) bool {
		a, b := res.Picks[i], res.Picks[j]
		if a.Synthesized != b.Synthesized {
			return !a.Synthesized
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Range.Start < b.Range.Start
	})
	return res
}

// solve runs the weighted-interval-scheduling DP bounded at p.Slots picks and
// returns the best strictly-compatible pick set, largest feasible count first.
// Candidates are processed in end-time order; compatibility is "gap >= gap
// seconds"; the diversity penalty against the previously chosen candidate is
// folded into the transition when the two midpoints fall within the proximity
// window.
func solve(cands []types.Candidate, gap float64, p Params) []types.Candidate {
	n := len(cands)
	if n == 0 || p.Slots <= 0 {
		return nil
	}
	ordered := make([]types.Candidate, n)
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Range.End != ordered[j].Range.End {
			return ordered[i].Range.End < ordered[j].Range.End
		}
		return ordered[i].Range.Start < ordered[j].Range.Start
	})
	ends := make([]float64, n)
	for i, c := range ordered {
		ends[i] = c.Range.End
	}

	neg := math.Inf(-1)
	// dp[k][i]: best value with exactly k picks, the last being ordered[i].
	dp := make([][]float64, p.Slots+1)
	parent := make([][]int, p.Slots+1)
	// prefBest[k][i]: argmax of dp[k][0..i], for O(1) far transitions.
	prefBest := make([][]int, p.Slots+1)
	for k := 0; k <= p.Slots; k++ {
		dp[k] = make([]float64, n)
		parent[k] = make([]int, n)
		prefBest[k] = make([]int, n)
		for i := range dp[k] {
			dp[k][i] = neg
			parent[k][i] = -1
			prefBest[k][i] = -1
		}
	}

	for i := 0; i < n; i++ {
		cutoff := ordered[i].Range.Start - gap
		// Last candidate ending at or before the compatibility cutoff.
		boundary := sort.Search(n, func(j int) bool { return ends[j] > cutoff }) - 1

		for k := 1; k <= p.Slots; k++ {
			if k == 1 {
				dp[1][i] = ordered[i].Total
				continue
			}
			if boundary < 0 {
				continue
			}
			// Penalized region: compatible candidates whose midpoint can
			// still fall within the proximity window. Anything ending before
			// cutoff-window is guaranteed penalty-free and covered by the
			// prefix argmax.
			limit := cutoff - p.ProximityWindow
			bestVal, bestJ := neg, -1
			j := boundary
			for ; j >= 0 && ends[j] >= limit; j-- {
				if dp[k-1][j] == neg {
					continue
				}
				v := dp[k-1][j] - penalty(ordered[j], ordered[i], p)
				if v > bestVal {
					bestVal, bestJ = v, j
				}
			}
			if j >= 0 && prefBest[k-1][j] >= 0 {
				far := prefBest[k-1][j]
				if dp[k-1][far] > bestVal {
					bestVal, bestJ = dp[k-1][far], far
				}
			}
			if bestJ >= 0 {
				dp[k][i] = ordered[i].Total + bestVal
				parent[k][i] = bestJ
			}
		}
		for k := 1; k <= p.Slots; k++ {
			best := -1
			if i > 0 {
				best = prefBest[k][i-1]
			}
			if dp[k][i] != neg && (best < 0 || dp[k][i] > dp[k][best]) {
				best = i
			}
			prefBest[k][i] = best
		}
	}

	for k := p.Slots; k >= 1; k-- {
		last := prefBest[k][n-1]
		if last < 0 {
			continue
		}
		var picks []types.Candidate
		for i, kk := last, k; i >= 0; i, kk = parent[kk][i], kk-1 {
			picks = append(picks, ordered[i])
		}
		// Backtracking yields reverse time order.
		for l, r := 0, len(picks)-1; l < r; l, r = l+1, r-1 {
			picks[l], picks[r] = picks[r], picks[l]
		}
		return picks
	}
	return nil
}

func penalty(a, b types.Candidate, p Params) float64 {
	if p.ProximityWindow <= 0 || p.PenaltyWeight <= 0 {
		return 0
	}
	dist := math.Abs(a.Range.Mid() - b.Range.Mid())
	if dist >= p.ProximityWindow {
		return 0
	}
	return p.PenaltyWeight * (1 - dist/p.ProximityWindow)
}

// synthesize places evenly-spaced windows of the platform minimum duration
// across the timeline, avoiding every already-held window. Score is ignored:
// these exist only to keep the plan structurally complete on signal-poor
// input.
func synthesize(existing []Pick, missing int, mediaDuration, minDuration float64) []Pick {
	d := minDuration
	if mediaDuration > 0 && d > mediaDuration {
		d = mediaDuration
	}
	held := make([]types.TimeRange, 0, len(existing)+missing)
	for _, p := range existing {
		held = append(held, p.Range)
	}

	out := make([]Pick, 0, missing)
	for k := 1; k <= missing; k++ {
		center := mediaDuration * float64(k) / float64(missing+1)
		start := clampStart(center-d/2, mediaDuration, d)
		w, ok := placeWindow(start, d, mediaDuration, held)
		if !ok {
			// Timeline too crowded to stay disjoint; even spacing wins over
			// dropping the slot.
			w = types.TimeRange{Start: start, End: start + d}
		}
		held = append(held, w)
		out = append(out, Pick{
			Candidate: types.Candidate{
				Range:     w,
				Breakdown: map[string]float64{},
			},
			Synthesized: true,
		})
	}
	return out
}

// placeWindow scans forward from the preferred start, then from zero, for the
// first position free of the held windows.
func placeWindow(preferred, d, mediaDuration float64, held []types.TimeRange) (types.TimeRange, bool) {
	step := d / 4
	if step <= 0 {
		step = 0.5
	}
	scan := func(from, to float64) (types.TimeRange, bool) {
		for t := from; t <= to; t += step {
			w := types.TimeRange{Start: t, End: t + d}
			if !overlapsAny(w, held) {
				return w, true
			}
		}
		return types.TimeRange{}, false
	}
	maxStart := mediaDuration - d
	if maxStart < 0 {
		maxStart = 0
	}
	if w, ok := scan(preferred, maxStart); ok {
		return w, true
	}
	return scan(0, preferred)
}

func overlapsAny(w types.TimeRange, held []types.TimeRange) bool {
	for _, h := range held {
		if w.Overlap(h) > 0 {
			return true
		}
	}
	return false
}

func clampStart(start, mediaDuration, d float64) float64 {
	if start < 0 {
		return 0
	}
	if max := mediaDuration - d; max >= 0 && start > max {
		return max
	}
	return start
}
