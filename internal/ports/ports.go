package ports

import (
	"context"

	"github.com/farrelfz/clipper/internal/types"
)

// MediaProber talks to the commodity media toolchain. Probing and audio
// extraction are external collaborators; only their results enter the engine.
type MediaProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
}

// SignalSource provides the upstream analysis artifacts. Transcript and
// speech are mandatory; the rest return empty slices when the corresponding
// artifact does not exist.
type SignalSource interface {
	Transcript(ctx context.Context) ([]types.Word, error)
	Speech(ctx context.Context) ([]types.TimeRange, error)
	FaceTracks(ctx context.Context) ([]types.FaceTrack, error)
	Speakers(ctx context.Context) ([]types.SpeakerSegment, error)
	Energy(ctx context.Context) ([]types.EnergySample, error)
}
