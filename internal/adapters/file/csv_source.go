package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/repositories"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// recordNamespace makes CSV record ids stable across repeated reads of the
// same export.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("portoseguro:csv_records"))

// ReadRecords parses a spreadsheet export. The first row is the header;
// every following row becomes one RawRecord with Seq equal to its row
// position. IDs depend on row content only, so editing earlier rows of the
// sheet keeps the IDs of the rest. Empty cells are omitted from Fields. The delimiter (comma or
// semicolon) is taken from the header line.
func ReadRecords(r io.Reader) ([]*entities.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return []*entities.RawRecord{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewValidationErrorf("invalid csv header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]*entities.RawRecord, 0)
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationErrorf("invalid csv row %d: %v", line, err)
		}

		fields := make(map[string]any, len(row))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				fields[header[i]] = cell
			}
		}
		if len(fields) == 0 {
			continue
		}

		key := contentKey(fields)
		seen[key]++
		records = append(records, &entities.RawRecord{
			ID:     uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s\x1e%d", key, seen[key]))).String(),
			Seq:    int64(len(records) + 1),
			Fields: fields,
		})
	}
	return records, nil
}

// contentKey identifies a row by its non-empty cells, independent of its
// position and of column order. Identical rows are told apart by the
// occurrence counter added by the caller.
func contentKey(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s\x1f%v\x1f", name, fields[name])
	}
	return b.String()
}

func detectDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

// CSVRecordSource is a read-only RecordRepository over a CSV export.
type CSVRecordSource struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	records []*entities.RawRecord
}

// NewCSVRecordSource creates a record source reading path on demand.
func NewCSVRecordSource(path string) repositories.RecordRepository {
	return &CSVRecordSource{path: path}
}

// List returns the rows of the export, re-reading the file when it changed.
func (s *CSVRecordSource) List(ctx context.Context) ([]*entities.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("csv export %s: %v", s.path, err))
	}
	if s.records != nil && info.ModTime().Equal(s.modTime) {
		return s.records, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open csv export", err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, err
	}
	createdAt := info.ModTime().UTC()
	for _, r := range records {
		r.CreatedAt = createdAt
	}

	s.records = records
	s.modTime = info.ModTime()
	return records, nil
}

// Append is not supported; exports are edited in the spreadsheet.
func (s *CSVRecordSource) Append(ctx context.Context, record *entities.RawRecord) error {
	return apperrors.NewValidationError("csv record source is read-only")
}

// Count returns the number of rows in the export.
func (s *CSVRecordSource) Count(ctx context.Context) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
