package signal

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/farrelfz/clipper/internal/types"
)

// Words and voice activity anchor all scoring, so their total absence is the
// one unrecoverable input condition.
var (
	ErrMissingTranscript = errors.New("signal: transcript has no usable words")
	ErrMissingSpeech     = errors.New("signal: no usable voice-activity segments")
)

// Bundle carries the raw upstream artifacts before normalization.
type Bundle struct {
	Words    []types.Word
	Speech   []types.TimeRange
	Tracks   []types.FaceTrack
	Speakers []types.SpeakerSegment
	Energy   []types.EnergySample
}

// Set is the validated, time-normalized signal set. It is immutable after
// Load and safely shared by reference across parallel selection runs.
type Set struct {
	MediaDuration float64
	Words         []types.Word
	Speech        []types.TimeRange
	Tracks        []types.FaceTrack
	Speakers      []types.SpeakerSegment
	Energy        []types.EnergySample
}

func (s *Set) HasFaces() bool    { return len(s.Tracks) > 0 }
func (s *Set) HasSpeakers() bool { return len(s.Speakers) > 0 }
func (s *Set) HasEnergy() bool   { return len(s.Energy) > 0 }

// Load normalizes the raw bundle against the media duration. Malformed
// entries are clamped or dropped with a warning; only an empty word or speech
// stream fails the run. Face tracks, speakers and energy are optional.
func Load(b Bundle, mediaDuration float64, log zerolog.Logger) (*Set, error) {
	set := &Set{
		MediaDuration: mediaDuration,
		Words:         normalizeWords(b.Words, mediaDuration, log),
		Speech:        mergeRanges(clampRanges(b.Speech, mediaDuration, log, "speech")),
		Tracks:        normalizeTracks(b.Tracks, mediaDuration, log),
		Speakers:      normalizeSpeakers(b.Speakers, mediaDuration, log),
		Energy:        normalizeEnergy(b.Energy, mediaDuration),
	}
	if len(set.Words) == 0 {
		return nil, ErrMissingTranscript
	}
	if len(set.Speech) == 0 {
		return nil, ErrMissingSpeech
	}
	return set, nil
}

func normalizeWords(words []types.Word, mediaDuration float64, log zerolog.Logger) []types.Word {
	out := make([]types.Word, 0, len(words))
	dropped := 0
	for _, w := range words {
		r, ok := clampRange(types.TimeRange{Start: w.Start, End: w.End}, mediaDuration)
		if !ok || w.Text == "" {
			dropped++
			continue
		}
		w.Start, w.End = r.Start, r.End
		if w.Confidence <= 0 {
			w.Confidence = 1
		}
		out = append(out, w)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("dropped malformed transcript words")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func clampRanges(ranges []types.TimeRange, mediaDuration float64, log zerolog.Logger, stream string) []types.TimeRange {
	out := make([]types.TimeRange, 0, len(ranges))
	dropped := 0
	for _, r := range ranges {
		c, ok := clampRange(r, mediaDuration)
		if !ok {
			dropped++
			continue
		}
		out = append(out, c)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("stream", stream).Msg("dropped malformed ranges")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func clampRange(r types.TimeRange, mediaDuration float64) (types.TimeRange, bool) {
	if r.Start < 0 {
		r.Start = 0
	}
	if mediaDuration > 0 && r.End > mediaDuration {
		r.End = mediaDuration
	}
	if r.End <= r.Start {
		return types.TimeRange{}, false
	}
	return r, true
}

// mergeRanges collapses overlapping or abutting sorted ranges. The upstream
// detector emits disjoint segments, but the loader does not assume it.
func mergeRanges(ranges []types.TimeRange) []types.TimeRange {
	if len(ranges) == 0 {
		return ranges
	}
	out := []types.TimeRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeSpeakers(segs []types.SpeakerSegment, mediaDuration float64, log zerolog.Logger) []types.SpeakerSegment {
	out := make([]types.SpeakerSegment, 0, len(segs))
	dropped := 0
	for _, s := range segs {
		r, ok := clampRange(s.Range, mediaDuration)
		if !ok || s.Speaker == "" {
			dropped++
			continue
		}
		s.Range = r
		out = append(out, s)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("dropped malformed speaker segments")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })

	// Abutting same-speaker segments collapse into one.
	merged := make([]types.SpeakerSegment, 0, len(out))
	for _, s := range out {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.Speaker == s.Speaker && s.Range.Start <= last.Range.End {
				if s.Range.End > last.Range.End {
					last.Range.End = s.Range.End
				}
				continue
			}
		}
		merged = append(merged, s)
	}
	return merged
}

func normalizeTracks(tracks []types.FaceTrack, mediaDuration float64, log zerolog.Logger) []types.FaceTrack {
	out := make([]types.FaceTrack, 0, len(tracks))
	dropped := 0
	for _, t := range tracks {
		kfs := make([]types.FaceKeyframe, 0, len(t.Keyframes))
		for _, kf := range t.Keyframes {
			if kf.Time < 0 || (mediaDuration > 0 && kf.Time > mediaDuration) {
				continue
			}
			kf.Box = kf.Box.Clamp()
			if kf.Box.Width() <= 0 || kf.Box.Height() <= 0 {
				continue
			}
			kfs = append(kfs, kf)
		}
		if len(kfs) == 0 {
			dropped++
			continue
		}
		sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
		t.Keyframes = kfs
		t.Range = types.TimeRange{Start: kfs[0].Time, End: kfs[len(kfs)-1].Time}
		out = append(out, t)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("dropped face tracks without usable keyframes")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })
	return out
}

func normalizeEnergy(samples []types.EnergySample, mediaDuration float64) []types.EnergySample {
	out := make([]types.EnergySample, 0, len(samples))
	for _, s := range samples {
		if s.Time < 0 || (mediaDuration > 0 && s.Time > mediaDuration) || s.RMS < 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
