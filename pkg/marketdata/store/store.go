package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store persists series files.
type Store interface {
	// Path returns the JSON series file for key.
	Path(key types.SeriesKey) string
	// Load reads the JSON series file for key.
	Load(key types.SeriesKey) (types.Series, error)
	// Save replaces the series file for key, encoded with encoder, and returns its path.
	Save(key types.SeriesKey, series types.Series, encoder writer.SeriesEncoder) (string, error)
	// Append adds one bar to the end of the existing JSON series file for key.
	Append(key types.SeriesKey, bar types.Bar) error
	// WriteJSON stores v as indented JSON at name, relative to the store root.
	WriteJSON(name string, v any) (string, error)
}

// FileStore keeps series under root as {instrument_type}/{granularity}/{ticker}.{ext}.
//
// Every write goes to a temporary file in the target directory that is synced
// and renamed over the destination. Writes to the same path are serialized.
type FileStore struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(root string) *FileStore {
	return &FileStore{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// Root returns the data directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) Path(key types.SeriesKey) string {
	return filepath.Join(s.root, key.RelPath(string(writer.FormatJSON)))
}

func (s *FileStore) Load(key types.SeriesKey) (types.Series, error) {
	path := s.Path(key)

	unlock := s.lock(path)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodePersistenceFailed, err, "read %s", path)
	}

	var series types.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, errors.Wrapf(errors.ErrCodePersistenceFailed, err, "decode %s", path)
	}

	return series, nil
}

func (s *FileStore) Save(key types.SeriesKey, series types.Series, encoder writer.SeriesEncoder) (string, error) {
	path := filepath.Join(s.root, key.RelPath(encoder.Extension()))

	unlock := s.lock(path)
	defer unlock()

	err := writeAtomic(path, func(w io.Writer) error {
		return encoder.Encode(w, series)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// Append reads the existing array as raw elements, so bytes already on disk are
// kept as they are, and writes it back with bar added at the end. A missing or
// malformed file is an error; Append never creates a series.
func (s *FileStore) Append(key types.SeriesKey, bar types.Bar) error {
	path := s.Path(key)

	unlock := s.lock(path)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "read %s", path)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "decode %s", path)
	}

	encoded, err := json.Marshal(bar)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "encode bar", err)
	}

	elements = append(elements, encoded)

	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(joinArray(elements))

		return err
	})
}

func (s *FileStore) WriteJSON(name string, v any) (string, error) {
	path := filepath.Join(s.root, name)

	unlock := s.lock(path)
	defer unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodePersistenceFailed, err, "encode %s", name)
	}

	err = writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)

		return err
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// lock serializes writers of path. Entries are never removed; the map holds at
// most one mutex per file the store has touched.
func (s *FileStore) lock(path string) func() {
	s.mu.Lock()

	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}

	s.mu.Unlock()

	l.Lock()

	return l.Unlock
}

func joinArray(elements []json.RawMessage) []byte {
	var buf bytes.Buffer

	buf.WriteByte('[')

	for i, e := range elements {
		if i > 0 {
			buf.WriteString(", ")
		}

		buf.Write(e)
	}

	buf.WriteByte(']')

	return buf.Bytes()
}

func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "create temp file in %s", dir)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "write %s", path)
	}

	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "sync %s", tmp.Name())
	}

	if err = tmp.Chmod(filePerm); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "chmod %s", tmp.Name())
	}

	if err = tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "close %s", tmp.Name())
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "rename into %s", path)
	}

	return nil
}
