package types

// TimeRange is an interval in seconds on the media timeline.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r TimeRange) Duration() float64 { return r.End - r.Start }

func (r TimeRange) Mid() float64 { return (r.Start + r.End) / 2 }

// Overlap returns the length of the intersection with o, in seconds.
func (r TimeRange) Overlap(o TimeRange) float64 {
	start := r.Start
	if o.Start > start {
		start = o.Start
	}
	end := r.End
	if o.End < end {
		end = o.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// IoU is the temporal intersection-over-union of two ranges.
func (r TimeRange) IoU(o TimeRange) float64 {
	inter := r.Overlap(o)
	if inter == 0 {
		return 0
	}
	union := r.Duration() + o.Duration() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

// BBox is a bounding box in fractional frame coordinates, each edge in [0,1].
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BBox) Width() float64  { return b.X2 - b.X1 }
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

func (b BBox) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Clamp returns the box with every edge forced into the unit square.
func (b BBox) Clamp() BBox {
	return BBox{
		X1: clamp01(b.X1),
		Y1: clamp01(b.Y1),
		X2: clamp01(b.X2),
		Y2: clamp01(b.Y2),
	}
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

type FaceKeyframe struct {
	Time       float64 `json:"time"`
	Box        BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// FaceTrack is one continuously-detected face across frames.
type FaceTrack struct {
	ID        string         `json:"track_id"`
	Range     TimeRange      `json:"range"`
	Keyframes []FaceKeyframe `json:"keyframes"`
}

type SpeakerSegment struct {
	Range   TimeRange `json:"range"`
	Speaker string    `json:"speaker"`
}

// EnergySample is one point of the optional loudness proxy signal.
type EnergySample struct {
	Time float64 `json:"time"`
	RMS  float64 `json:"rms"`
}

// Candidate is a scored window under consideration for selection. Candidates
// live only inside one selection run and are never persisted.
type Candidate struct {
	Range           TimeRange
	Breakdown       map[string]float64
	Total           float64
	DominantSpeaker string
	FaceTrackIDs    []string
}

type CropKeyframe struct {
	Time float64 `json:"time"`
	Box  BBox    `json:"bbox"`
}

type CaptionCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ClipPlan describes one selected clip: its absolute window, score breakdown,
// clip-local crop path and caption cues. Immutable once written.
type ClipPlan struct {
	Platform    string             `json:"platform"`
	Slot        int                `json:"slot"`
	StartSec    float64            `json:"start_sec"`
	EndSec      float64            `json:"end_sec"`
	TotalScore  float64            `json:"total_score"`
	Breakdown   map[string]float64 `json:"score_breakdown"`
	Crop        []CropKeyframe     `json:"crop_keyframes"`
	Cues        []CaptionCue       `json:"caption_cues"`
	Synthesized bool               `json:"synthesized,omitempty"`
}

// ExportPlan is the root artifact handed to the renderer.
type ExportPlan struct {
	MediaDurationSec float64               `json:"media_duration_sec"`
	Platforms        map[string][]ClipPlan `json:"platforms"`
}
