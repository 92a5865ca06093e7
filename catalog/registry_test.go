package catalog

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

const modelCSV = `name,gender,raw_data
低音,0,"100
100
101"
高音,1,"300,301,302"
坏性别,2,"100"
坏数据,0,"100
abc"
缺列,0
空数据,1,""
`

const mappingCSV = `name,sub_name
低音,低音甲
高音,高音甲
不存在,幽灵
低音,低音甲
低音,低音乙
`

func newTestRegistry(t *testing.T, models, mappings Table) (*Registry, *logging.CaptureLogger) {
	t.Helper()
	logger := logging.NewCaptureLogger()
	return NewRegistry(RegistryConfig{
		Range:    pitch.DefaultRange,
		Models:   models,
		Mappings: mappings,
		Logger:   logger,
	}), logger
}

func TestLoadMissingModelFileUsesBuiltin(t *testing.T) {
	dir := t.TempDir()
	models, mappings := TablesFor(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "nope_map.csv"))
	reg, logger := newTestRegistry(t, models, mappings)

	report := reg.Load(context.Background())

	require.True(t, report.Builtin)
	require.NotNil(t, report.Fallback)
	assert.True(t, errors.Is(report.Fallback, fs.ErrNotExist))
	assert.Equal(t, 8, report.Males)
	assert.Equal(t, 8, report.Females)

	c := reg.Snapshot()
	assert.True(t, c.Builtin())
	assert.Equal(t, 16, c.Len())
	assert.Equal(t, 1, logger.Count(logging.WarnLevel))
}

func TestLoadCSVSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "voice_model.csv", []byte(modelCSV))
	mappingPath := writeFile(t, dir, "voice_analyzer_mapping.csv", []byte(mappingCSV))
	reg, logger := newTestRegistry(t, CSVModels(modelPath), CSVMappings(mappingPath))

	report := reg.Load(context.Background())

	require.False(t, report.Builtin)
	assert.Equal(t, "utf-8", report.ModelEncoding)
	assert.Equal(t, 1, report.Males)
	assert.Equal(t, 2, report.Females)
	assert.Len(t, report.ModelErrors, 3)

	c := reg.Snapshot()
	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "低音", all[0].Name)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, "高音", all[1].Name)
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, "空数据", all[2].Name)
	assert.Equal(t, 3, all[2].ID)

	assert.InDelta(t, 2.0/3, all[0].Distribution.At(100), 1e-12)
	assert.InDelta(t, 1.0/3, all[1].Distribution.At(301), 1e-12)
	assert.InDelta(t, 1.0/420, all[2].Distribution.At(250), 1e-15)

	assert.Equal(t, 5, report.MappingsRead)
	assert.Equal(t, 4, report.MappingsAccepted)
	assert.Equal(t, 1, report.MappingsUnknown)
	assert.Equal(t, []Alias{
		{ID: 1, Name: "低音甲"},
		{ID: 3, Name: "低音甲"},
		{ID: 4, Name: "低音乙"},
	}, c.Aliases("低音"), "duplicates are kept")
	assert.Equal(t, []Alias{{ID: 2, Name: "高音甲"}}, c.Aliases("高音"))

	// three bad model rows, one unknown mapping, one lost-mapping summary
	assert.Equal(t, 5, logger.Count(logging.WarnLevel))
}

func TestLoadCSVSkipsRowWithBadQuote(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "voice_model.csv",
		[]byte("name,gender,raw_data\n低音,0,\"100,101\"\n坏\"行,0,100\n高音,1,\"300,301\"\n"))
	mappingPath := writeFile(t, dir, "voice_analyzer_mapping.csv",
		[]byte("name,sub_name\n低音,低音甲\n高\"音,坏\n高音,高音甲\n"))
	reg, logger := newTestRegistry(t, CSVModels(modelPath), CSVMappings(mappingPath))

	report := reg.Load(context.Background())

	require.False(t, report.Builtin, "one bad row must not discard the table")
	assert.Equal(t, "utf-8", report.ModelEncoding)
	assert.Equal(t, 1, report.Males)
	assert.Equal(t, 1, report.Females)
	require.Len(t, report.ModelErrors, 1)
	assert.Equal(t, 3, report.ModelErrors[0].Line)

	c := reg.Snapshot()
	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "低音", all[0].Name)
	assert.Equal(t, "高音", all[1].Name)

	assert.Equal(t, "utf-8", report.MappingEncoding)
	assert.Equal(t, 3, report.MappingsRead)
	assert.Equal(t, 2, report.MappingsAccepted)
	require.Len(t, report.MappingErrors, 1)
	assert.Equal(t, 3, report.MappingErrors[0].Line)
	assert.Equal(t, []Alias{{ID: 1, Name: "低音甲"}}, c.Aliases("低音"))
	assert.Equal(t, []Alias{{ID: 2, Name: "高音甲"}}, c.Aliases("高音"))

	// one skipped row per table plus the lost-mapping summary
	assert.Equal(t, 3, logger.Count(logging.WarnLevel))
}

func TestLoadWithoutValidRowsUsesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", []byte("name,gender,raw_data\nx,7,100\n"))
	reg, _ := newTestRegistry(t, CSVModels(path), nil)

	report := reg.Load(context.Background())

	require.True(t, report.Builtin)
	assert.ErrorIs(t, report.Fallback, ErrNoRows)
	assert.Equal(t, 16, reg.Snapshot().Len())
}

func TestLoadMissingColumnUsesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", []byte("name,gender\nx,0\n"))
	reg, logger := newTestRegistry(t, CSVModels(path), nil)

	report := reg.Load(context.Background())

	require.True(t, report.Builtin)
	assert.Contains(t, report.Fallback.Error(), `missing column "raw_data"`)
	assert.Equal(t, 1, logger.Count(logging.ErrorLevel))
}

func TestLoadGBKEncodedCSV(t *testing.T) {
	dir := t.TempDir()
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("name,gender,raw_data\n暖男音,0,\"120,121\"\n")
	require.NoError(t, err)
	path := writeFile(t, dir, "voice_model.csv", []byte(encoded))
	reg, _ := newTestRegistry(t, CSVModels(path), nil)

	report := reg.Load(context.Background())

	require.False(t, report.Builtin)
	assert.Equal(t, "gbk", report.ModelEncoding)
	assert.Equal(t, "暖男音", reg.Snapshot().ModelsOfGender(Male)[0].Name)
}

func TestLoadLatin1FallbackCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", []byte("name,gender,raw_data\nZ\xff,1,200\n"))
	reg, _ := newTestRegistry(t, CSVModels(path), nil)

	report := reg.Load(context.Background())

	require.False(t, report.Builtin)
	assert.Equal(t, "latin-1", report.ModelEncoding)
	assert.Equal(t, "Zÿ", reg.Snapshot().ModelsOfGender(Female)[0].Name)
}

func TestLoadUTF8WithBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", append([]byte{0xEF, 0xBB, 0xBF}, "name,gender,raw_data\na,0,100\n"...))
	reg, _ := newTestRegistry(t, CSVModels(path), nil)

	report := reg.Load(context.Background())

	require.False(t, report.Builtin)
	assert.Equal(t, "utf-8", report.ModelEncoding)
}

func TestLoadSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO voice_model (name, gender, raw_data) VALUES
		('甲', 0, '110,111'), ('乙', 1, '280'), ('丙', 0, 'oops')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO voice_mapping (name, sub_name) VALUES ('乙', '乙一'), ('丁', '丁一')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	models, mappings := TablesFor(dbPath, "ignored.csv")
	reg, _ := newTestRegistry(t, models, mappings)
	report := reg.Load(context.Background())

	require.False(t, report.Builtin)
	assert.Empty(t, report.ModelEncoding)
	assert.Len(t, report.ModelErrors, 1)
	assert.Equal(t, 3, report.ModelErrors[0].Line)
	assert.Equal(t, 1, report.MappingsAccepted)
	assert.Equal(t, 1, report.MappingsUnknown)

	c := reg.Snapshot()
	require.Equal(t, 2, c.Len())
	assert.Equal(t, []Alias{{ID: 1, Name: "乙一"}}, c.Aliases("乙"))
}

func TestSQLiteMissingDatabaseIsNotCreated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "absent.db")
	reg, _ := newTestRegistry(t, SQLiteModels(dbPath), SQLiteMappings(dbPath))

	report := reg.Load(context.Background())

	assert.True(t, report.Builtin)
	assert.ErrorIs(t, report.Fallback, fs.ErrNotExist)
	_, err := os.Stat(dbPath)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSnapshotLoadsLazilyOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", []byte("name,gender,raw_data\na,0,100\n"))
	reg, logger := newTestRegistry(t, CSVModels(path), nil)

	first := reg.Snapshot()
	second := reg.Snapshot()

	require.Same(t, first, second)
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, logger.Count(logging.InfoLevel))
}

func TestReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "voice_model.csv", []byte("name,gender,raw_data\na,0,100\n"))
	reg, _ := newTestRegistry(t, CSVModels(path), nil)

	before := reg.Snapshot()
	writeFile(t, dir, "voice_model.csv", []byte("name,gender,raw_data\na,0,100\nb,1,300\n"))
	reg.Load(context.Background())
	after := reg.Snapshot()

	assert.Equal(t, 1, before.Len(), "held snapshots never change")
	assert.Equal(t, 2, after.Len())
}

func TestStoreSkipsLazyLoad(t *testing.T) {
	reg, logger := newTestRegistry(t, CSVModels(filepath.Join(t.TempDir(), "x.csv")), nil)
	custom := New([]Model{{ID: 1, Name: "only", Distribution: pitch.Uniform(pitch.DefaultRange)}}, nil)

	reg.Store(custom)

	assert.Same(t, custom, reg.Snapshot())
	assert.Empty(t, logger.Entries())
}
