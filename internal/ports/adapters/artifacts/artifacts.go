package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/farrelfz/clipper/internal/types"
)

// Artifact file names inside an analysis directory.
const (
	TranscriptFile = "transcript.json"
	SpeechFile     = "vad.json"
	TracksFile     = "tracks.json"
	SpeakersFile   = "speaker_timeline.json"
	EnergyFile     = "energy.json"
)

// Dir reads the analysis artifacts produced by the upstream inference
// collaborators from one directory. Transcript and voice activity are
// required files; the rest are optional and read as empty when absent.
type Dir struct {
	path string
}

func New(path string) *Dir { return &Dir{path: path} }

type transcriptDoc struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Word       string  `json:"word"`
			Confidence float64 `json:"confidence"`
		} `json:"words"`
	} `json:"segments"`
}

func (d *Dir) Transcript(ctx context.Context) ([]types.Word, error) {
	var doc transcriptDoc
	if err := d.read(TranscriptFile, &doc, true); err != nil {
		return nil, err
	}
	var out []types.Word
	for _, seg := range doc.Segments {
		for _, w := range seg.Words {
			out = append(out, types.Word{
				Start:      w.Start,
				End:        w.End,
				Text:       w.Word,
				Confidence: w.Confidence,
			})
		}
	}
	return out, nil
}

type speechDoc struct {
	Segments []types.TimeRange `json:"segments"`
}

func (d *Dir) Speech(ctx context.Context) ([]types.TimeRange, error) {
	var doc speechDoc
	if err := d.read(SpeechFile, &doc, true); err != nil {
		return nil, err
	}
	return doc.Segments, nil
}

type tracksDoc struct {
	Detections []struct {
		Time    float64   `json:"time"`
		BBox    []float64 `json:"bbox"`
		Score   float64   `json:"score"`
		TrackID int       `json:"track_id"`
	} `json:"detections"`
}

// FaceTracks groups the upstream tracker's flat detection list into per-track
// keyframe sequences.
func (d *Dir) FaceTracks(ctx context.Context) ([]types.FaceTrack, error) {
	var doc tracksDoc
	if err := d.read(TracksFile, &doc, false); err != nil {
		return nil, err
	}
	byTrack := map[int][]types.FaceKeyframe{}
	for _, det := range doc.Detections {
		if len(det.BBox) != 4 {
			continue
		}
		byTrack[det.TrackID] = append(byTrack[det.TrackID], types.FaceKeyframe{
			Time:       det.Time,
			Box:        types.BBox{X1: det.BBox[0], Y1: det.BBox[1], X2: det.BBox[2], Y2: det.BBox[3]},
			Confidence: det.Score,
		})
	}
	ids := make([]int, 0, len(byTrack))
	for id := range byTrack {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]types.FaceTrack, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.FaceTrack{
			ID:        strconv.Itoa(id),
			Keyframes: byTrack[id],
		})
	}
	return out, nil
}

type speakersDoc struct {
	Timeline []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		TrackID *int    `json:"track_id"`
	} `json:"timeline"`
}

func (d *Dir) Speakers(ctx context.Context) ([]types.SpeakerSegment, error) {
	var doc speakersDoc
	if err := d.read(SpeakersFile, &doc, false); err != nil {
		return nil, err
	}
	var out []types.SpeakerSegment
	for _, seg := range doc.Timeline {
		// Null track means silence; there is no speaker to attribute.
		if seg.TrackID == nil {
			continue
		}
		out = append(out, types.SpeakerSegment{
			Range:   types.TimeRange{Start: seg.Start, End: seg.End},
			Speaker: strconv.Itoa(*seg.TrackID),
		})
	}
	return out, nil
}

type energyDoc struct {
	Samples []types.EnergySample `json:"samples"`
}

func (d *Dir) Energy(ctx context.Context) ([]types.EnergySample, error) {
	var doc energyDoc
	if err := d.read(EnergyFile, &doc, false); err != nil {
		return nil, err
	}
	return doc.Samples, nil
}

func (d *Dir) read(name string, v any, required bool) error {
	path := filepath.Join(d.path, name)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse artifact %s: %w", name, err)
	}
	return nil
}
