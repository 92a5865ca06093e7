package transcode

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/RyanBlaney/sonido-timbre/logging"
)

// ToWAV converts src to a PCM16 WAV at dest with the configured rate and channel count,
// dropping any video stream and overwriting dest. It fails when ffmpeg fails or leaves
// dest missing or empty.
func (d *Decoder) ToWAV(ctx context.Context, src, dest string) error {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "ToWAV",
		"src":       src,
		"dest":      dest,
	})

	if _, err := d.run(ctx, d.config.FFmpegPath, d.wavArgs(src, dest), logger); err != nil {
		return fmt.Errorf("ffmpeg transcode failed: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("transcoded file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("transcoded file is empty: %s", dest)
	}

	logger.Debug("Transcode completed", logging.Fields{"bytes": info.Size()})
	return nil
}

func (d *Decoder) wavArgs(src, dest string) []string {
	return []string{
		"-v", "error",
		"-vn",
		"-y",
		"-i", src,
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.config.SampleRate),
		"-ac", strconv.Itoa(d.config.Channels),
		"-f", "wav",
		dest,
	}
}
