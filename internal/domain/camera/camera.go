package camera

import (
	"math"
	"sort"

	"github.com/farrelfz/clipper/internal/config"
	"github.com/farrelfz/clipper/internal/types"
)

// target is a crop center plus scale before clamping. Scale 1 means a crop of
// full frame height; width follows the fixed crop aspect.
type target struct {
	cx, cy, scale float64
}

// BuildPath derives a smoothed, speaker-aware crop path for one selected
// window, in clip-local time. The active face at each keyframe time is the
// track matching the speaker active at that time, else the most confident
// visible track. Exponential smoothing plus per-second pan/zoom rate limits
// keep detection noise and speaker changes from producing jitter or jump
// cuts. Without any face data the path is a single static centered keyframe.
func BuildPath(win types.TimeRange, tracks []types.FaceTrack, speakers []types.SpeakerSegment, cfg config.Camera) []types.CropKeyframe {
	times := sampleTimes(win, tracks)
	if len(times) == 0 {
		return []types.CropKeyframe{{Time: 0, Box: cropBox(centered(cfg), cfg)}}
	}

	path := make([]types.CropKeyframe, 0, len(times))
	var prev target
	var prevTime float64
	for i, t := range times {
		tgt, ok := targetAt(t, tracks, speakers, cfg)
		if !ok {
			tgt = centered(cfg)
		}
		if i == 0 {
			prev = tgt
		} else {
			dt := t - prevTime
			tgt = smooth(prev, tgt, dt, cfg)
		}
		local := t - win.Start
		if len(path) > 0 && local <= path[len(path)-1].Time {
			continue
		}
		path = append(path, types.CropKeyframe{Time: local, Box: cropBox(tgt, cfg)})
		prev, prevTime = tgt, t
	}
	return path
}

// sampleTimes collects the face keyframe times inside the window plus both
// window edges, deduplicated and sorted. Empty when no track intersects the
// window.
func sampleTimes(win types.TimeRange, tracks []types.FaceTrack) []float64 {
	var times []float64
	for _, tr := range tracks {
		for _, kf := range tr.Keyframes {
			if kf.Time >= win.Start && kf.Time <= win.End {
				times = append(times, kf.Time)
			}
		}
	}
	if len(times) == 0 {
		return nil
	}
	times = append(times, win.Start, win.End)
	sort.Float64s(times)
	out := times[:1]
	for _, t := range times[1:] {
		if t-out[len(out)-1] > 1e-6 {
			out = append(out, t)
		}
	}
	return out
}

// targetAt picks the active face at time t and converts its box to a crop
// target.
func targetAt(t float64, tracks []types.FaceTrack, speakers []types.SpeakerSegment, cfg config.Camera) (target, bool) {
	if spk, ok := activeSpeaker(t, speakers); ok {
		for _, tr := range tracks {
			if tr.ID != spk {
				continue
			}
			if box, ok := boxAt(tr, t); ok {
				return faceTarget(box, cfg), true
			}
		}
	}
	best, bestConf, found := types.BBox{}, -1.0, false
	for _, tr := range tracks {
		box, ok := boxAt(tr, t)
		if !ok {
			continue
		}
		conf := confAt(tr, t)
		if conf > bestConf {
			best, bestConf, found = box, conf, true
		}
	}
	if !found {
		return target{}, false
	}
	return faceTarget(best, cfg), true
}

func activeSpeaker(t float64, speakers []types.SpeakerSegment) (string, bool) {
	for _, s := range speakers {
		if t >= s.Range.Start && t <= s.Range.End {
			return s.Speaker, true
		}
	}
	return "", false
}

// boxAt linearly interpolates the track's box at time t; false when t is
// outside the track's keyframe span.
func boxAt(tr types.FaceTrack, t float64) (types.BBox, bool) {
	kfs := tr.Keyframes
	if len(kfs) == 0 || t < kfs[0].Time || t > kfs[len(kfs)-1].Time {
		return types.BBox{}, false
	}
	i := sort.Search(len(kfs), func(j int) bool { return kfs[j].Time >= t })
	if i == 0 || kfs[i].Time == t {
		return kfs[i].Box, true
	}
	a, b := kfs[i-1], kfs[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Box, true
	}
	f := (t - a.Time) / span
	return types.BBox{
		X1: lerp(a.Box.X1, b.Box.X1, f),
		Y1: lerp(a.Box.Y1, b.Box.Y1, f),
		X2: lerp(a.Box.X2, b.Box.X2, f),
		Y2: lerp(a.Box.Y2, b.Box.Y2, f),
	}, true
}

func confAt(tr types.FaceTrack, t float64) float64 {
	kfs := tr.Keyframes
	if len(kfs) == 0 {
		return 0
	}
	i := sort.Search(len(kfs), func(j int) bool { return kfs[j].Time >= t })
	if i >= len(kfs) {
		i = len(kfs) - 1
	}
	return kfs[i].Confidence
}

func faceTarget(box types.BBox, cfg config.Camera) target {
	cx, cy := box.Center()
	scale := box.Width() * (1 + cfg.SafeMargin) / cfg.CropAspectFrac
	return target{cx: cx, cy: cy, scale: clampScale(scale, cfg)}
}

func centered(cfg config.Camera) target {
	return target{cx: 0.5, cy: 0.5, scale: 1}
}

// smooth applies exponential smoothing toward the new target, then bounds the
// per-second pan and zoom rates.
func smooth(prev, next target, dt float64, cfg config.Camera) target {
	if dt <= 0 {
		dt = 1e-3
	}
	tx := prev.cx + cfg.SmoothingAlpha*(next.cx-prev.cx)
	ty := prev.cy + cfg.SmoothingAlpha*(next.cy-prev.cy)
	ts := prev.scale + cfg.SmoothingAlpha*(next.scale-prev.scale)

	maxPan := cfg.MaxPanSpeed * dt
	maxZoom := cfg.MaxZoomRate * dt
	return target{
		cx:    prev.cx + clampAbs(tx-prev.cx, maxPan),
		cy:    prev.cy + clampAbs(ty-prev.cy, maxPan),
		scale: clampScale(prev.scale+clampAbs(ts-prev.scale, maxZoom), cfg),
	}
}

// cropBox converts a target into a clamped crop rectangle with the fixed
// aspect: shift or shrink, never distort.
func cropBox(t target, cfg config.Camera) types.BBox {
	h := t.scale
	w := h * cfg.CropAspectFrac
	if w > 1 {
		w = 1
		h = w / cfg.CropAspectFrac
	}
	if h > 1 {
		h = 1
		w = h * cfg.CropAspectFrac
	}
	x := clampRange(t.cx-w/2, 0, 1-w)
	y := clampRange(t.cy-h/2, 0, 1-h)
	return types.BBox{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

func clampScale(s float64, cfg config.Camera) float64 {
	if s < cfg.MinScale {
		return cfg.MinScale
	}
	if s > 1 {
		return 1
	}
	return s
}

func clampAbs(v, bound float64) float64 {
	if bound < 0 {
		bound = 0
	}
	if math.Abs(v) <= bound {
		return v
	}
	if v < 0 {
		return -bound
	}
	return bound
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, f float64) float64 { return a + (b-a)*f }
