package analyzer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-timbre/catalog"
	"github.com/RyanBlaney/sonido-timbre/judge"
	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
	"github.com/RyanBlaney/sonido-timbre/transcode"
)

var testRange = pitch.Range{Min: 80, Max: 500}

type fakeConverter struct {
	err   error
	calls []string
}

func (f *fakeConverter) ToWAV(_ context.Context, src, dest string) error {
	f.calls = append(f.calls, src)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type fakeExtractor struct {
	samples []float64
	err     error
	seen    string
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, wavPath string) ([]float64, error) {
	f.seen = wavPath
	if _, err := os.Stat(wavPath); err != nil {
		return nil, err
	}
	return f.samples, f.err
}

type fakeDownloader struct {
	dir  string
	path string
}

func (f *fakeDownloader) Download(_ context.Context, rawURL string) (string, error) {
	f.path = filepath.Join(f.dir, "download.mp3")
	return f.path, os.WriteFile(f.path, []byte(rawURL), 0o644)
}

func twoVoiceRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	low := pitch.Build([]float64{100, 100}, testRange)
	high := pitch.Build([]float64{300}, testRange)
	c := catalog.New([]catalog.Model{
		{ID: 1, Name: "low", Gender: catalog.Male, Distribution: low},
		{ID: 2, Name: "high", Gender: catalog.Female, Distribution: high},
	}, nil)

	reg := catalog.NewRegistry(catalog.RegistryConfig{Range: testRange, Logger: &logging.NoOpLogger{}})
	reg.Store(c)
	return reg
}

func newTestAnalyzer(t *testing.T, conv *fakeConverter, ext *fakeExtractor, logger logging.Logger) (*Analyzer, string) {
	t.Helper()
	workDir := t.TempDir()
	a, err := New(Config{
		WorkDir:    workDir,
		Converter:  conv,
		Extractor:  ext,
		Downloader: &fakeDownloader{dir: workDir},
		Registry:   twoVoiceRegistry(t),
		Ranker:     judge.NewRanker(judge.RankerConfig{Logger: logger}),
		Logger:     logger,
	})
	require.NoError(t, err)
	return a, workDir
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.m4a")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func TestAnalyzeFileRanksExtractedPitch(t *testing.T) {
	conv := &fakeConverter{}
	ext := &fakeExtractor{samples: []float64{100.2, 100.9, 100.4}}
	a, workDir := newTestAnalyzer(t, conv, ext, &logging.NoOpLogger{})
	input := writeInput(t)

	report, err := a.AnalyzeFile(context.Background(), input, judge.AnyGender, judge.NewRand(7))
	require.NoError(t, err)

	assert.Equal(t, input, report.Source)
	assert.Equal(t, "fake", report.Extractor)
	assert.Equal(t, 3, report.Samples)
	assert.Equal(t, 100, report.MedianHz)
	assert.Equal(t, judge.OutcomeRanked, report.Result.Outcome)
	assert.Equal(t, "low", report.Result.Main.Name)
	assert.Equal(t, "100.00", report.Result.Main.Score)
	assert.Empty(t, report.Result.Sub)
	require.NotNil(t, report.Result.OppositeMatch)
	assert.Equal(t, "high", report.Result.OppositeMatch.Name)

	assert.Equal(t, []string{input}, conv.calls)
	assert.Equal(t, workDir, filepath.Dir(ext.seen))
	assert.Equal(t, ".wav", filepath.Ext(ext.seen))
	assert.NoFileExists(t, ext.seen)
}

func TestAnalyzeFileHonoursGenderFilter(t *testing.T) {
	ext := &fakeExtractor{samples: []float64{100}}
	a, _ := newTestAnalyzer(t, &fakeConverter{}, ext, &logging.NoOpLogger{})

	report, err := a.AnalyzeFile(context.Background(), writeInput(t), judge.OnlyGender(catalog.Female), judge.NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, "high", report.Result.Main.Name)
	require.NotNil(t, report.Result.OppositeMatch)
	assert.Equal(t, "low", report.Result.OppositeMatch.Name)
}

func TestAnalyzeFileExtractionFailureUsesUniform(t *testing.T) {
	logger := logging.NewCaptureLogger()
	ext := &fakeExtractor{err: errors.New("praat crashed")}
	a, _ := newTestAnalyzer(t, &fakeConverter{}, ext, logger)

	report, err := a.AnalyzeFile(context.Background(), writeInput(t), judge.AnyGender, judge.NewRand(3))
	require.NoError(t, err)

	assert.Zero(t, report.Samples)
	assert.Equal(t, pitch.Uniform(testRange).Probabilities(), report.Distribution.Probabilities())
	assert.Equal(t, judge.OutcomeRanked, report.Result.Outcome)
	assert.Equal(t, 1, logger.Count(logging.ErrorLevel))
}

func TestAnalyzeFileMissingInput(t *testing.T) {
	conv := &fakeConverter{}
	a, _ := newTestAnalyzer(t, conv, &fakeExtractor{}, &logging.NoOpLogger{})

	_, err := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), judge.AnyGender, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Empty(t, conv.calls)
}

func TestAnalyzeFileTranscodeFailure(t *testing.T) {
	conv := &fakeConverter{err: errors.New("transcoded file is empty")}
	ext := &fakeExtractor{}
	a, _ := newTestAnalyzer(t, conv, ext, &logging.NoOpLogger{})

	_, err := a.AnalyzeFile(context.Background(), writeInput(t), judge.AnyGender, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcode")
	assert.Empty(t, ext.seen)
}

func TestAnalyzeURLRemovesDownload(t *testing.T) {
	conv := &fakeConverter{}
	a, workDir := newTestAnalyzer(t, conv, &fakeExtractor{samples: []float64{300}}, &logging.NoOpLogger{})

	report, err := a.AnalyzeURL(context.Background(), "https://example.com/a.mp3", judge.AnyGender, judge.NewRand(5))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.mp3", report.Source)
	assert.Equal(t, "high", report.Result.Main.Name)

	require.Len(t, conv.calls, 1)
	assert.Equal(t, workDir, filepath.Dir(conv.calls[0]))
	assert.NoFileExists(t, conv.calls[0])

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Extractor: &fakeExtractor{}, Registry: twoVoiceRegistry(t)})
	assert.ErrorContains(t, err, "converter")
	_, err = New(Config{Converter: &fakeConverter{}, Registry: twoVoiceRegistry(t)})
	assert.ErrorContains(t, err, "extractor")
	_, err = New(Config{Converter: &fakeConverter{}, Extractor: &fakeExtractor{}})
	assert.ErrorContains(t, err, "registry")
}

type fakePCM struct {
	audio *transcode.AudioData
	err   error
}

func (f fakePCM) DecodePCM(context.Context, string) (*transcode.AudioData, error) {
	return f.audio, f.err
}

func TestYINExtractorTracksDecodedPCM(t *testing.T) {
	const sampleRate = 16000
	pcm := make([]float64, sampleRate)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*200*float64(i)/sampleRate)
	}
	ext := NewYINExtractor(fakePCM{audio: &transcode.AudioData{PCM: pcm, SampleRate: sampleRate, Channels: 1}}, testRange)

	samples, err := ext.Extract(context.Background(), "ignored.wav")
	require.NoError(t, err)
	require.NotEmpty(t, samples)
	dist := pitch.Build(samples, testRange)
	assert.InDelta(t, 200, dist.Median(), 2)
}

func TestYINExtractorRejectsStereo(t *testing.T) {
	ext := NewYINExtractor(fakePCM{audio: &transcode.AudioData{PCM: make([]float64, 4096), SampleRate: 44100, Channels: 2}}, testRange)
	_, err := ext.Extract(context.Background(), "x.wav")
	assert.ErrorContains(t, err, "mono")
}
