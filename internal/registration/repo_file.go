package registration

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// FileHeader is the fixed column layout of the flat-file store.
var FileHeader = []string{"id", "name", "mobile", "course", "extra", "timestamp"}

// FileRepository stores records as CSV rows in a single append-only file.
// The header is written once, when the file is created or found empty.
type FileRepository struct {
	path string
	mu   sync.RWMutex
}

// NewFileRepository creates the parent directory of path if needed.
// The file itself is created lazily on the first Append.
func NewFileRepository(path string) (*FileRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir store dir: %w", err)
		}
	}
	return &FileRepository{path: path}, nil
}

// Path returns the backing file path.
func (r *FileRepository) Path() string { return r.path }

// Append writes one row, preceded by the header when the file is new.
// The row is encoded up front and written with a single write on an
// O_APPEND descriptor, then synced.
func (r *FileRepository) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := encodeRow(rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat store: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if st.Size() == 0 {
		_ = w.Write(FileHeader)
	}
	_ = w.Write(row)
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	return nil
}

// LoadAll reads the whole file. A missing or empty file yields no records.
func (r *FileRepository) LoadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(FileHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrStoreCorrupt, err)
	}
	if !slices.Equal(header, FileHeader) {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrStoreCorrupt, header)
	}

	recs := []Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}
		rec, err := decodeRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrStoreCorrupt, line, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Ping checks that the store directory is reachable.
func (r *FileRepository) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(r.path))
	return err
}

func (r *FileRepository) Close() error { return nil }

// encodeRow refuses CRLF in the plain text columns: csv.Reader folds it to LF,
// so it could not be read back unchanged. extra is JSON and escapes it.
func encodeRow(rec Record) ([]string, error) {
	for _, v := range []string{rec.ID, rec.Name, rec.Mobile, rec.Course} {
		if strings.Contains(v, "\r\n") {
			return nil, fmt.Errorf("%w: CRLF in text field", ErrUnencodable)
		}
	}
	extra := ""
	if len(rec.Extra) > 0 {
		b, err := json.Marshal(rec.Extra)
		if err != nil {
			return nil, fmt.Errorf("encode extra: %w", err)
		}
		extra = string(b)
	}
	return []string{rec.ID, rec.Name, rec.Mobile, rec.Course, extra, rec.FormattedTimestamp()}, nil
}

func decodeRow(row []string) (Record, error) {
	ts, err := time.ParseInLocation(TimestampLayout, row[5], time.UTC)
	if err != nil {
		return Record{}, fmt.Errorf("parse timestamp: %w", err)
	}
	rec := Record{
		ID:        row[0],
		Name:      row[1],
		Mobile:    row[2],
		Course:    row[3],
		Timestamp: ts,
	}
	if row[4] != "" {
		if err := json.Unmarshal([]byte(row[4]), &rec.Extra); err != nil {
			return Record{}, fmt.Errorf("parse extra: %w", err)
		}
	}
	return rec, nil
}
