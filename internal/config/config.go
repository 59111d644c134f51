package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Fallback policies for platforms that cannot fill all slots from scored
// candidates.
const (
	FallbackRelaxThenSynthesize = "relax-then-synthesize"
	FallbackSynthesize          = "synthesize"
)

// Caption boundary policies for words spanning a clip edge.
const (
	BoundaryClamp = "clamp"
	BoundaryDrop  = "drop"
)

// Weights are opaque multipliers over the normalized [0,1] score components.
type Weights struct {
	SpeechDensity   float64 `yaml:"speech_density"`
	FaceCoverage    float64 `yaml:"face_coverage"`
	SpeakerRichness float64 `yaml:"speaker_richness"`
	LexiconBoost    float64 `yaml:"lexicon_boost"`
	LoudnessProxy   float64 `yaml:"loudness_proxy"`
}

type Diversity struct {
	// PenaltyWeight scales the pairwise penalty between picks whose midpoints
	// fall within ProximityWindowSec of each other.
	PenaltyWeight      float64 `yaml:"penalty_weight"`
	ProximityWindowSec float64 `yaml:"proximity_window_s"`
}

type Captions struct {
	MaxCueDurationSec float64 `yaml:"max_cue_duration_s"`
	MaxCueChars       int     `yaml:"max_cue_chars"`
	BoundaryPolicy    string  `yaml:"boundary_policy"`
}

// Platform holds everything that varies per destination platform.
type Platform struct {
	MinDurationSec     float64   `yaml:"min_duration_s"`
	MaxDurationSec     float64   `yaml:"max_duration_s"`
	TargetDurationsSec []float64 `yaml:"target_durations_s"`
	MinGapSec          float64   `yaml:"min_gap_s"`
	Weights            Weights   `yaml:"weights"`
	Lexicon            []string  `yaml:"lexicon"`
	Diversity          Diversity `yaml:"diversity"`
	Captions           Captions  `yaml:"captions"`
}

type Generator struct {
	StepSec  float64 `yaml:"step_s"`
	DedupIoU float64 `yaml:"dedup_iou"`
}

type Scoring struct {
	FaceConfidenceFloor float64 `yaml:"face_confidence_floor"`
	// SpeakerSaturation is the half-point of the diminishing-returns curve:
	// richness = n / (n + saturation) for n distinct speakers.
	SpeakerSaturation float64 `yaml:"speaker_saturation"`
	LexiconHitCap     int     `yaml:"lexicon_hit_cap"`
	LexiconPerHit     float64 `yaml:"lexicon_per_hit"`
}

type Selection struct {
	ClipsPerPlatform int    `yaml:"clips_per_platform"`
	FallbackPolicy   string `yaml:"fallback_policy"`
	RelaxSteps       int    `yaml:"relax_steps"`
}

type Camera struct {
	SmoothingAlpha float64 `yaml:"smoothing_alpha"`
	// MaxPanSpeed and MaxZoomRate are per-second limits in fractional frame
	// units, so speaker changes glide instead of jump cutting.
	MaxPanSpeed    float64 `yaml:"max_pan_speed"`
	MaxZoomRate    float64 `yaml:"max_zoom_rate"`
	SafeMargin     float64 `yaml:"safe_margin"`
	CropAspectFrac float64 `yaml:"crop_aspect_frac"`
	MinScale       float64 `yaml:"min_scale"`
}

type Config struct {
	Platforms map[string]Platform `yaml:"platforms"`
	Generator Generator           `yaml:"generator"`
	Scoring   Scoring             `yaml:"scoring"`
	Selection Selection           `yaml:"selection"`
	Camera    Camera              `yaml:"camera"`
}

// PlatformNames returns the configured platform set in deterministic order.
func (c Config) PlatformNames() []string {
	names := make([]string, 0, len(c.Platforms))
	for name := range c.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the documented baseline configuration: three platforms with
// short-form duration bounds, equal-ish weights and 9:16 reframing tuned for a
// 16:9 source.
func Default() Config {
	return Config{
		Platforms: map[string]Platform{
			"tiktok": defaultPlatform(15, 60, []string{"secret", "mistake", "hack", "viral"}),
			"shorts": defaultPlatform(15, 60, []string{"how", "why", "tutorial", "explained"}),
			"reels":  defaultPlatform(15, 90, []string{"story", "behind", "moment"}),
		},
		Generator: Generator{
			StepSec:  2.0,
			DedupIoU: 0.6,
		},
		Scoring: Scoring{
			FaceConfidenceFloor: 0.15,
			SpeakerSaturation:   2.0,
			LexiconHitCap:       3,
			LexiconPerHit:       0.25,
		},
		Selection: Selection{
			ClipsPerPlatform: 3,
			FallbackPolicy:   FallbackRelaxThenSynthesize,
			RelaxSteps:       3,
		},
		Camera: Camera{
			SmoothingAlpha: 0.35,
			MaxPanSpeed:    0.18,
			MaxZoomRate:    0.15,
			SafeMargin:     0.15,
			// 9:16 crop of a 16:9 frame in fractional units: (9/16)/(16/9).
			CropAspectFrac: 0.3164,
			MinScale:       0.4,
		},
	}
}

func defaultPlatform(minSec, maxSec float64, lexicon []string) Platform {
	return Platform{
		MinDurationSec: minSec,
		MaxDurationSec: maxSec,
		MinGapSec:      5.0,
		Weights: Weights{
			SpeechDensity:   0.30,
			FaceCoverage:    0.20,
			SpeakerRichness: 0.15,
			LexiconBoost:    0.20,
			LoudnessProxy:   0.15,
		},
		Lexicon: lexicon,
		Diversity: Diversity{
			PenaltyWeight:      0.5,
			ProximityWindowSec: 60.0,
		},
		Captions: Captions{
			MaxCueDurationSec: 3.5,
			MaxCueChars:       42,
			BoundaryPolicy:    BoundaryClamp,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged. A document that declares its own platform set replaces
// the default platforms wholesale; the scalar sections still layer per-field.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var doc struct {
		Platforms map[string]Platform `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(doc.Platforms) > 0 {
		// yaml merges maps, which would smuggle the default platforms into
		// the plan alongside the configured ones.
		cfg.Platforms = nil
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Platforms) == 0 {
		return fmt.Errorf("config: no platforms configured")
	}
	for _, name := range c.PlatformNames() {
		p := c.Platforms[name]
		if p.MinDurationSec <= 0 {
			return fmt.Errorf("config: platform %s: min duration must be > 0", name)
		}
		if p.MaxDurationSec < p.MinDurationSec {
			return fmt.Errorf("config: platform %s: min duration %g exceeds max %g", name, p.MinDurationSec, p.MaxDurationSec)
		}
		if p.MinGapSec < 0 {
			return fmt.Errorf("config: platform %s: min gap must be >= 0", name)
		}
		for _, d := range p.TargetDurationsSec {
			if d < p.MinDurationSec || d > p.MaxDurationSec {
				return fmt.Errorf("config: platform %s: target duration %g outside [%g, %g]", name, d, p.MinDurationSec, p.MaxDurationSec)
			}
		}
		if p.Diversity.ProximityWindowSec < 0 {
			return fmt.Errorf("config: platform %s: proximity window must be >= 0", name)
		}
		if p.Captions.MaxCueDurationSec <= 0 || p.Captions.MaxCueChars <= 0 {
			return fmt.Errorf("config: platform %s: caption cue limits must be > 0", name)
		}
		switch p.Captions.BoundaryPolicy {
		case BoundaryClamp, BoundaryDrop:
		default:
			return fmt.Errorf("config: platform %s: unknown caption boundary policy %q", name, p.Captions.BoundaryPolicy)
		}
	}
	if c.Generator.StepSec <= 0 {
		return fmt.Errorf("config: generator step must be > 0")
	}
	if c.Generator.DedupIoU <= 0 || c.Generator.DedupIoU > 1 {
		return fmt.Errorf("config: dedup IoU must be in (0, 1]")
	}
	if c.Selection.ClipsPerPlatform <= 0 {
		return fmt.Errorf("config: clips per platform must be > 0")
	}
	switch c.Selection.FallbackPolicy {
	case FallbackRelaxThenSynthesize, FallbackSynthesize:
	default:
		return fmt.Errorf("config: unknown fallback policy %q", c.Selection.FallbackPolicy)
	}
	if c.Selection.RelaxSteps < 0 {
		return fmt.Errorf("config: relax steps must be >= 0")
	}
	if c.Camera.SmoothingAlpha <= 0 || c.Camera.SmoothingAlpha > 1 {
		return fmt.Errorf("config: smoothing alpha must be in (0, 1]")
	}
	if c.Camera.CropAspectFrac <= 0 || c.Camera.CropAspectFrac > 1 {
		return fmt.Errorf("config: crop aspect must be in (0, 1]")
	}
	if c.Camera.MinScale <= 0 || c.Camera.MinScale > 1 {
		return fmt.Errorf("config: min scale must be in (0, 1]")
	}
	return nil
}
