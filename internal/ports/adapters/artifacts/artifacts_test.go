package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir, name, doc string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTranscript_FlattensSegmentWords(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, TranscriptFile, `{
		"segments": [
			{"start": 0, "end": 2, "text": "hello there",
			 "words": [{"start": 0, "end": 0.8, "word": "hello"}, {"start": 1, "end": 1.6, "word": "there", "confidence": 0.9}]},
			{"start": 2, "end": 3, "text": "friend",
			 "words": [{"start": 2.1, "end": 2.9, "word": "friend"}]}
		]
	}`)
	words, err := New(dir).Transcript(context.Background())
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	if words[1].Text != "there" || words[1].Confidence != 0.9 {
		t.Fatalf("unexpected word: %+v", words[1])
	}
}

func TestTranscript_MissingFileFails(t *testing.T) {
	if _, err := New(t.TempDir()).Transcript(context.Background()); err == nil {
		t.Fatalf("expected error for missing transcript artifact")
	}
}

func TestSpeech_ReadsSegments(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, SpeechFile, `{"segments": [{"start": 1.5, "end": 4}, {"start": 6, "end": 9}]}`)
	segs, err := New(dir).Speech(context.Background())
	if err != nil {
		t.Fatalf("speech: %v", err)
	}
	if len(segs) != 2 || segs[0].Start != 1.5 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestFaceTracks_GroupsDetectionsByTrack(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, TracksFile, `{
		"detections": [
			{"time": 0.5, "bbox": [0.1, 0.2, 0.3, 0.5], "score": 0.9, "track_id": 1},
			{"time": 1.0, "bbox": [0.6, 0.2, 0.8, 0.5], "score": 0.8, "track_id": 2},
			{"time": 1.0, "bbox": [0.12, 0.2, 0.32, 0.5], "score": 0.85, "track_id": 1},
			{"time": 2.0, "bbox": [0.1, 0.2], "score": 0.9, "track_id": 1}
		]
	}`)
	tracks, err := New(dir).FaceTracks(context.Background())
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "1" || len(tracks[0].Keyframes) != 2 {
		t.Fatalf("unexpected grouping: %+v", tracks[0])
	}
	if tracks[1].ID != "2" || tracks[1].Keyframes[0].Box.X1 != 0.6 {
		t.Fatalf("unexpected track 2: %+v", tracks[1])
	}
}

func TestSpeakers_SkipsSilence(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, SpeakersFile, `{
		"timeline": [
			{"start": 0, "end": 2, "track_id": 1},
			{"start": 2, "end": 3, "track_id": null},
			{"start": 3, "end": 5, "track_id": 2}
		]
	}`)
	segs, err := New(dir).Speakers(context.Background())
	if err != nil {
		t.Fatalf("speakers: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected silence chunks skipped, got %+v", segs)
	}
	if segs[1].Speaker != "2" {
		t.Fatalf("unexpected speaker: %+v", segs[1])
	}
}

func TestOptionalArtifactsDefaultEmpty(t *testing.T) {
	d := New(t.TempDir())
	ctx := context.Background()
	if tracks, err := d.FaceTracks(ctx); err != nil || len(tracks) != 0 {
		t.Fatalf("tracks: %v %v", tracks, err)
	}
	if segs, err := d.Speakers(ctx); err != nil || len(segs) != 0 {
		t.Fatalf("speakers: %v %v", segs, err)
	}
	if samples, err := d.Energy(ctx); err != nil || len(samples) != 0 {
		t.Fatalf("energy: %v %v", samples, err)
	}
}

func TestRead_MalformedJSONFails(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, EnergyFile, `{"samples": [`)
	if _, err := New(dir).Energy(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
