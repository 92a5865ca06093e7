package analyzer

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-timbre/pitch"
	"github.com/RyanBlaney/sonido-timbre/transcode"
)

// PCMDecoder decodes a file to float64 PCM.
type PCMDecoder interface {
	DecodePCM(ctx context.Context, filename string) (*transcode.AudioData, error)
}

// YINExtractor decodes the WAV with ffmpeg and tracks pitch in process.
type YINExtractor struct {
	decoder PCMDecoder
	r       pitch.Range
}

// NewYINExtractor returns an extractor covering r.
func NewYINExtractor(decoder PCMDecoder, r pitch.Range) *YINExtractor {
	return &YINExtractor{decoder: decoder, r: r}
}

func (y *YINExtractor) Name() string {
	return "yin"
}

// Extract returns one estimate per voiced frame.
func (y *YINExtractor) Extract(ctx context.Context, wavPath string) ([]float64, error) {
	audio, err := y.decoder.DecodePCM(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	if audio.Channels != 1 {
		return nil, fmt.Errorf("yin needs mono PCM, got %d channels", audio.Channels)
	}

	params := pitch.DefaultTrackerParams(y.r)
	params.SampleRate = audio.SampleRate
	tracker, err := pitch.NewTracker(params)
	if err != nil {
		return nil, fmt.Errorf("yin tracker: %w", err)
	}
	return tracker.Track(audio.PCM), nil
}
