// Package csvstore appends records to CSV files whose header is fixed at creation
package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

// ErrHeaderMismatch is returned when an existing file's header differs from the records being appended
var ErrHeaderMismatch = errors.New("csv header mismatch")

// Store writes record files under one output directory
type Store struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

// New creates a Store, creating the output directory if needed
func New(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Path returns the full path of a file in the store
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save appends rows to the named file. Failures are logged and absorbed so one
// sink never aborts another.
func Save[T any](s *Store, name string, rows []T) {
	path := s.Path(name)
	if len(rows) == 0 {
		s.logger.Info("No data to save", "file", path)
		return
	}

	s.mu.Lock()
	err := Append(path, rows)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Error saving data to CSV", "file", path, "err", err)
		return
	}
	s.logger.Info("Data saved", "file", path, "rows", len(rows))
}

// Append writes rows to path. A new or empty file gets the header first; an
// existing file must already carry the same header. Empty rows leave the file untouched.
func Append[T any](path string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	header, err := Header(rows[0])
	if err != nil {
		return err
	}

	existing, needsNewline, err := readHeader(path)
	if err != nil {
		return err
	}
	if existing != nil && !slices.Equal(existing, header) {
		return fmt.Errorf("%w: %s has %v, records have %v", ErrHeaderMismatch, path, existing, header)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if needsNewline {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	w := csv.NewWriter(f)
	if existing == nil {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range rows {
		values, err := Values(row)
		if err != nil {
			return err
		}
		if err := w.Write(values); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// readHeader returns the first record of path, or nil when the file is missing
// or empty. needsNewline reports a file whose last byte is not a newline.
func readHeader(path string) (header []string, needsNewline bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, false, nil
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err = r.Read()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header, last[0] != '\n', nil
}

// ReadAll returns the data rows of path keyed by header. A missing file yields no rows.
func ReadAll(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	rows := []map[string]string{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Header returns the column names of a record struct in declaration order,
// taken from the csv tag or the field name.
func Header(record any) ([]string, error) {
	t, err := structType(record)
	if err != nil {
		return nil, err
	}

	var header []string
	for i := 0; i < t.NumField(); i++ {
		if name, ok := columnName(t.Field(i)); ok {
			header = append(header, name)
		}
	}
	return header, nil
}

// Values returns the field values of a record struct in declaration order
func Values(record any) ([]string, error) {
	t, err := structType(record)
	if err != nil {
		return nil, err
	}
	v := reflect.Indirect(reflect.ValueOf(record))

	var values []string
	for i := 0; i < t.NumField(); i++ {
		if _, ok := columnName(t.Field(i)); !ok {
			continue
		}
		field := v.Field(i)
		if field.Kind() == reflect.String {
			values = append(values, field.String())
		} else {
			values = append(values, fmt.Sprint(field.Interface()))
		}
	}
	return values, nil
}

func structType(record any) (reflect.Type, error) {
	t := reflect.TypeOf(record)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csv record must be a struct, got %T", record)
	}
	return t, nil
}

func columnName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get("csv")
	if tag == "-" {
		return "", false
	}
	if tag != "" {
		return tag, true
	}
	return f.Name, true
}
