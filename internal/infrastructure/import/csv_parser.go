package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf8ProbeSize is how many bytes are inspected up front to reject files
// that are not UTF-8 encoded.
const utf8ProbeSize = 4096

// CSVParser reads data rows from a single CSV source with a header line.
// Rows are keyed by header name so callers never index by position.
type CSVParser struct {
	reader     *bufio.Reader
	csvReader  *csv.Reader
	headers    []string
	headerMap  map[string]int
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	currentRow int
	totalRows  int
}

// ParserOption configures a CSVParser.
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter. Defaults to comma.
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes controls whether bare quotes inside fields are tolerated.
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace controls whether leading and trailing whitespace is
// stripped from every field.
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// NewCSVParser wraps r in a BOM-tolerant UTF-8 decoder and validates the
// encoding before any rows are read. A UTF-8, UTF-16 or UTF-32 byte order
// mark is consumed transparently; content without a BOM passes through
// unchanged and must be valid UTF-8.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(p)
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
	p.reader = bufio.NewReader(decoded)

	if err := p.validateUTF8(); err != nil {
		return nil, err
	}

	p.csvReader = csv.NewReader(p.reader)
	p.csvReader.Comma = p.delimiter
	p.csvReader.LazyQuotes = p.lazyQuotes
	// Sources are hand-maintained; tolerate ragged rows and report missing
	// fields per column instead of failing the whole file.
	p.csvReader.FieldsPerRecord = -1

	return p, nil
}

// ParseFromBytes creates a parser over in-memory CSV content.
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

// FileParser is a CSVParser that owns the underlying file handle.
type FileParser struct {
	*CSVParser
	file *os.File
}

// Close releases the underlying file.
func (p *FileParser) Close() error {
	return p.file.Close()
}

// OpenFile opens the CSV file at path and consumes its header row. The
// returned parser must be closed by the caller. A missing file surfaces
// the os.Open error, which wraps fs.ErrNotExist.
func OpenFile(path string, opts ...ParserOption) (*FileParser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	p, err := NewCSVParser(f, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := p.ParseHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &FileParser{CSVParser: p, file: f}, nil
}

// validateUTF8 inspects the start of the stream and rejects content that
// is not valid UTF-8 after BOM decoding.
func (p *CSVParser) validateUTF8() error {
	peeked, err := p.reader.Peek(utf8ProbeSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(peeked) == 0 {
		return ErrEmptyFile
	}

	sample := peeked
	if len(sample) == utf8ProbeSize {
		// The probe may end mid-rune; drop trailing bytes up to one rune.
		for i := 0; i < utf8.UTFMax && len(sample) > 0; i++ {
			last := sample[len(sample)-1]
			sample = sample[:len(sample)-1]
			if utf8.RuneStart(last) {
				break
			}
		}
	}
	if !utf8.Valid(sample) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the first line of the file and indexes column names.
func (p *CSVParser) ParseHeader() error {
	record, err := p.csvReader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	if p.trimSpace {
		record = trimSpaces(record)
	}

	p.headers = record
	p.headerMap = make(map[string]int, len(record))
	for i, h := range record {
		p.headerMap[h] = i
	}
	p.currentRow = 1
	return nil
}

// Headers returns the column names from the header row.
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ValidateHeaders checks that every required column name is present,
// returning an error naming all missing columns at once.
func (p *CSVParser) ValidateHeaders(required []string) error {
	if p.headers == nil {
		return ErrMissingHeader
	}

	var missing []string
	for _, col := range required {
		if _, ok := p.headerMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Row is a single parsed data row keyed by header name. LineNumber is the
// physical line in the source file, counting the header as line 1.
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column, or an empty string when the column
// is absent.
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// GetOrDefault returns the value for a column, or def when the column is
// absent or empty.
func (r *Row) GetOrDefault(column, def string) string {
	if v, ok := r.Data[column]; ok && v != "" {
		return v
	}
	return def
}

// IsEmpty reports whether every field in the row is blank.
func (r *Row) IsEmpty() bool {
	for _, v := range r.RawFields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. It returns io.EOF when the file is
// exhausted. Rows shorter than the header are padded with empty values.
func (p *CSVParser) ReadRow() (*Row, error) {
	if p.headers == nil {
		return nil, ErrMissingHeader
	}

	record, err := p.csvReader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", p.currentRow+1, err)
	}
	p.currentRow++

	if p.trimSpace {
		record = trimSpaces(record)
	}

	data := make(map[string]string, len(p.headers))
	for i, h := range p.headers {
		if i < len(record) {
			data[h] = record[i]
		} else {
			data[h] = ""
		}
	}

	p.totalRows++
	return &Row{
		LineNumber: p.currentRow,
		Data:       data,
		RawFields:  record,
	}, nil
}

// ReadAllRows reads every remaining data row, skipping rows whose fields
// are all blank. It returns ErrNoDataRows when the file holds nothing but
// the header.
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// CurrentRow returns the line number of the most recently read line.
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read so far.
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

func trimSpaces(fields []string) []string {
	trimmed := make([]string, len(fields))
	for i, f := range fields {
		trimmed[i] = strings.TrimSpace(f)
	}
	return trimmed
}
