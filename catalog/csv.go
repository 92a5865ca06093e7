package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// textEncoding is one candidate charset for CSV files.
type textEncoding struct {
	name    string
	decoder func() *encoding.Decoder // nil for utf-8
}

// csvEncodings is the order in which charsets are tried. gb2312 is decoded with
// GB18030, which is a superset; latin-1 accepts any byte sequence and ends the chain.
var csvEncodings = []textEncoding{
	{name: "utf-8"},
	{name: "gbk", decoder: simplifiedchinese.GBK.NewDecoder},
	{name: "gb2312", decoder: simplifiedchinese.GB18030.NewDecoder},
	{name: "latin-1", decoder: charmap.ISO8859_1.NewDecoder},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVTable reads a CSV file with a header row.
type CSVTable struct {
	Path     string
	Required []string
}

// CSVModels returns the table of voice models (name, gender, raw_data).
func CSVModels(path string) *CSVTable {
	return &CSVTable{Path: path, Required: modelColumns}
}

// CSVMappings returns the table of alias mappings (name, sub_name).
func CSVMappings(path string) *CSVTable {
	return &CSVTable{Path: path, Required: mappingColumns}
}

func (t *CSVTable) Location() string {
	return t.Path
}

// Read decodes the file with the first charset that yields valid text and a parseable
// CSV with the required header.
func (t *CSVTable) Read(ctx context.Context) (*Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, enc := range csvEncodings {
		text, ok := decodeText(raw, enc)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: invalid byte sequence", enc.name))
			continue
		}
		rows, err := parseCSV(text, t.Required)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", enc.name, err))
			continue
		}
		rows.Path = t.Path
		rows.Encoding = enc.name
		return rows, nil
	}
	return nil, fmt.Errorf("no usable encoding: %w", errors.Join(errs...))
}

func decodeText(raw []byte, enc textEncoding) (string, bool) {
	if enc.decoder == nil {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	decoded, err := enc.decoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}

func parseCSV(text string, required []string) (*Rows, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, col := range required {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	rows := &Rows{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// the reader resumes at the next record
			rows.Skipped = append(rows.Skipped, RowError{Line: parseErr.StartLine, Err: err})
			continue
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			rows.Skipped = append(rows.Skipped, RowError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, got %d", len(header), len(record)),
			})
			continue
		}
		values := make(map[string]string, len(header))
		for i, col := range header {
			values[col] = record[i]
		}
		rows.Records = append(rows.Records, Record{Line: line, Values: values})
	}
	return rows, nil
}
