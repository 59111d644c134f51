package scoring

import (
	"sort"
	"strings"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/domain/signal"
	"github.com/farrelfz/clipper/internal/types"
)

// Score breakdown component names, as serialized in the export plan.
const (
	ComponentSpeechDensity   = "speech_density"
	ComponentFaceCoverage    = "face_coverage"
	ComponentSpeakerRichness = "speaker_richness"
	ComponentLexiconBoost    = "lexicon_boost"
	ComponentLoudnessProxy   = "loudness_proxy"
)

// Score turns candidate windows into scored candidates. Each component is
// normalized into [0,1]; the total is the weighted sum over the components
// whose signal is present, with the weights of absent signals redistributed
// by renormalization.
func Score(set *signal.Set, wins []types.TimeRange, platform config.Platform, cfg config.Scoring) []types.Candidate {
	lexicon := lowerSet(platform.Lexicon)
	globalPeak := peakRMS(set.Energy)

	out := make([]types.Candidate, 0, len(wins))
	for _, w := range wins {
		breakdown := map[string]float64{
			ComponentSpeechDensity: speechDensity(set, w),
			ComponentLexiconBoost:  lexiconBoost(set, w, lexicon, cfg),
		}
		weighted := platform.Weights.SpeechDensity*breakdown[ComponentSpeechDensity] +
			platform.Weights.LexiconBoost*breakdown[ComponentLexiconBoost]
		weightSum := platform.Weights.SpeechDensity + platform.Weights.LexiconBoost

		faceIDs := overlappingTracks(set, w)
		if set.HasFaces() {
			breakdown[ComponentFaceCoverage] = faceCoverage(set, w, cfg.FaceConfidenceFloor)
			weighted += platform.Weights.FaceCoverage * breakdown[ComponentFaceCoverage]
			weightSum += platform.Weights.FaceCoverage
		}
		var dominant string
		if set.HasSpeakers() {
			breakdown[ComponentSpeakerRichness] = speakerRichness(set, w, cfg.SpeakerSaturation)
			weighted += platform.Weights.SpeakerRichness * breakdown[ComponentSpeakerRichness]
			weightSum += platform.Weights.SpeakerRichness
			dominant = dominantSpeaker(set, w)
		}
		if set.HasEnergy() {
			breakdown[ComponentLoudnessProxy] = loudnessProxy(set, w, globalPeak)
			weighted += platform.Weights.LoudnessProxy * breakdown[ComponentLoudnessProxy]
			weightSum += platform.Weights.LoudnessProxy
		}

		total := 0.0
		if weightSum > 0 {
			total = weighted / weightSum
		}
		out = append(out, types.Candidate{
			Range:           w,
			Breakdown:       breakdown,
			Total:           total,
			DominantSpeaker: dominant,
			FaceTrackIDs:    faceIDs,
		})
	}
	Sort(out)
	return out
}

// Sort orders candidates deterministically: higher score first, ties broken
// by earlier start, then by longer duration.
func Sort(cands []types.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Total != cands[j].Total {
			return cands[i].Total > cands[j].Total
		}
		if cands[i].Range.Start != cands[j].Range.Start {
			return cands[i].Range.Start < cands[j].Range.Start
		}
		return cands[i].Range.Duration() > cands[j].Range.Duration()
	})
}

// speechDensity is the fraction of the window covered by voice activity.
func speechDensity(set *signal.Set, w types.TimeRange) float64 {
	if w.Duration() <= 0 {
		return 0
	}
	covered := 0.0
	for _, seg := range set.Speech {
		covered += seg.Overlap(w)
	}
	return clamp01(covered / w.Duration())
}

// faceCoverage is the fraction of the window where at least one sufficiently
// confident face track is visible, weighted by that track's confidence.
func faceCoverage(set *signal.Set, w types.TimeRange, floor float64) float64 {
	if w.Duration() <= 0 {
		return 0
	}
	covered := 0.0
	for _, t := range set.Tracks {
		conf := trackConfidence(t)
		if conf < floor {
			continue
		}
		covered += t.Range.Overlap(w) * conf
	}
	return clamp01(covered / w.Duration())
}

func trackConfidence(t types.FaceTrack) float64 {
	if len(t.Keyframes) == 0 {
		return 0
	}
	sum := 0.0
	for _, kf := range t.Keyframes {
		sum += kf.Confidence
	}
	return sum / float64(len(t.Keyframes))
}

// speakerRichness rewards multi-speaker moments with diminishing returns:
// n distinct speakers map to n/(n+saturation).
func speakerRichness(set *signal.Set, w types.TimeRange, saturation float64) float64 {
	seen := map[string]struct{}{}
	for _, s := range set.Speakers {
		if s.Range.Overlap(w) > 0 {
			seen[s.Speaker] = struct{}{}
		}
	}
	n := float64(len(seen))
	if n == 0 {
		return 0
	}
	if saturation <= 0 {
		return 1
	}
	return n / (n + saturation)
}

// lexiconBoost caps each term's contribution so a single repeated keyword
// cannot dominate the component.
func lexiconBoost(set *signal.Set, w types.TimeRange, lexicon map[string]struct{}, cfg config.Scoring) float64 {
	if len(lexicon) == 0 {
		return 0
	}
	hits := map[string]int{}
	for _, word := range set.Words {
		if word.End <= w.Start || word.Start >= w.End {
			continue
		}
		token := normalizeToken(word.Text)
		if _, ok := lexicon[token]; ok {
			hits[token]++
		}
	}
	boost := 0.0
	for _, n := range hits {
		if cfg.LexiconHitCap > 0 && n > cfg.LexiconHitCap {
			n = cfg.LexiconHitCap
		}
		boost += float64(n) * cfg.LexiconPerHit
	}
	return clamp01(boost)
}

// loudnessProxy is the window's mean RMS relative to the global peak.
func loudnessProxy(set *signal.Set, w types.TimeRange, globalPeak float64) float64 {
	if globalPeak <= 0 {
		return 0
	}
	sum, n := 0.0, 0
	for _, s := range set.Energy {
		if s.Time < w.Start || s.Time > w.End {
			continue
		}
		sum += s.RMS
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n) / globalPeak)
}

func dominantSpeaker(set *signal.Set, w types.TimeRange) string {
	best, bestOverlap := "", 0.0
	totals := map[string]float64{}
	for _, s := range set.Speakers {
		ov := s.Range.Overlap(w)
		if ov <= 0 {
			continue
		}
		totals[s.Speaker] += ov
		if totals[s.Speaker] > bestOverlap {
			best, bestOverlap = s.Speaker, totals[s.Speaker]
		}
	}
	return best
}

func overlappingTracks(set *signal.Set, w types.TimeRange) []string {
	var out []string
	for _, t := range set.Tracks {
		if t.Range.Overlap(w) > 0 {
			out = append(out, t.ID)
		}
	}
	return out
}

func peakRMS(samples []types.EnergySample) float64 {
	peak := 0.0
	for _, s := range samples {
		if s.RMS > peak {
			peak = s.RMS
		}
	}
	return peak
}

func lowerSet(terms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		out[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	delete(out, "")
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), ".,!?\"':;"))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
