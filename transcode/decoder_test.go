package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script standing in for ffmpeg/ffprobe.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func decoderWith(ffmpeg string) *Decoder {
	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = ffmpeg
	cfg.FFprobePath = ffmpeg
	return NewDecoder(cfg)
}

func TestWAVArgs(t *testing.T) {
	d := NewDecoder(nil)

	assert.Equal(t, []string{
		"-v", "error", "-vn", "-y", "-i", "in.mp4",
		"-acodec", "pcm_s16le", "-ar", "44100", "-ac", "1", "-f", "wav", "out.wav",
	}, d.wavArgs("in.mp4", "out.wav"))
}

func TestPCMArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.SampleRate = 16000
	d := NewDecoder(cfg)

	assert.Equal(t, []string{
		"-v", "error", "-i", "a.wav", "-vn", "-f", "f64le", "-ac", "1", "-ar", "16000", "pipe:1",
	}, d.pcmArgs("a.wav"))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, NewDecoder(nil).ValidateConfig())

	cfg := DefaultDecoderConfig()
	cfg.Channels = 0
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.FFmpegPath = " "
	assert.Error(t, NewDecoder(cfg).ValidateConfig())
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -1, math.Pi}
	buf := make([]byte, 0, len(want)*8+3)
	for _, v := range want {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	buf = append(buf, 1, 2, 3) // trailing partial sample

	assert.Equal(t, want, bytesToFloat64(buf))
	assert.Nil(t, bytesToFloat64([]byte{1, 2}))
}

func TestToWAV(t *testing.T) {
	ffmpeg := fakeBinary(t, `for last; do :; done
printf 'RIFF....WAVE' > "$last"`)
	dest := filepath.Join(t.TempDir(), "out.wav")

	require.NoError(t, decoderWith(ffmpeg).ToWAV(context.Background(), "in.mp3", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "RIFF....WAVE", string(data))
}

func TestToWAVEmptyOutputFails(t *testing.T) {
	ffmpeg := fakeBinary(t, `for last; do :; done
: > "$last"`)
	dest := filepath.Join(t.TempDir(), "out.wav")

	err := decoderWith(ffmpeg).ToWAV(context.Background(), "in.mp3", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestToWAVMissingOutputFails(t *testing.T) {
	ffmpeg := fakeBinary(t, `exit 0`)

	err := decoderWith(ffmpeg).ToWAV(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "out.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestToWAVReportsStderr(t *testing.T) {
	ffmpeg := fakeBinary(t, `echo "in.mp3: Invalid data found" >&2
exit 1`)

	err := decoderWith(ffmpeg).ToWAV(context.Background(), "in.mp3", filepath.Join(t.TempDir(), "out.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestDecodePCM(t *testing.T) {
	dir := t.TempDir()
	raw := make([]byte, 0, 44100*8)
	for i := range 44100 {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(math.Sin(float64(i))))
	}
	fixture := filepath.Join(dir, "pcm.raw")
	require.NoError(t, os.WriteFile(fixture, raw, 0o644))
	ffmpeg := fakeBinary(t, `cat "`+fixture+`"`)

	audio, err := decoderWith(ffmpeg).DecodePCM(context.Background(), "in.wav")
	require.NoError(t, err)

	assert.Len(t, audio.PCM, 44100)
	assert.Equal(t, 44100, audio.SampleRate)
	assert.InDelta(t, 1.0, audio.Duration.Seconds(), 1e-9)
	assert.InDelta(t, math.Sin(10), audio.PCM[10], 1e-15)
}

func TestDecodePCMNoSamples(t *testing.T) {
	ffmpeg := fakeBinary(t, `exit 0`)

	_, err := decoderWith(ffmpeg).DecodePCM(context.Background(), "in.wav")
	assert.Error(t, err)
}

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3",
		"sample_rate":"48000","channels":2,"duration":"3.5","bit_rate":"128000","codec_long_name":"MP3"}]}`))
	require.NoError(t, err)
	assert.Equal(t, &AudioMetadata{
		SampleRate: 48000, Channels: 2, Codec: "mp3", Duration: 3.5, Bitrate: 128000, Format: "MP3",
	}, meta)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.Error(t, err)
	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","channels":1}]}`))
	assert.Error(t, err)
	_, err = parseFFprobeOutput([]byte(`not json`))
	assert.Error(t, err)
}
