package gallery

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/wavein/internal/face"
)

// fileVersion is bumped whenever the on-disk layout changes.
const fileVersion = 1

// Store persists the gallery's (names, embeddings) pair list.
type Store interface {
	Load() ([]string, []face.Embedding, error)
	Save(names []string, embeddings []face.Embedding) error
}

// ErrCorrupt is returned when the stored gallery cannot be decoded.
var ErrCorrupt = errors.New("gallery file is corrupt")

type galleryFile struct {
	Version    int
	Names      []string
	Embeddings [][]float32
}

// FileStore keeps the gallery in a single gob-encoded file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the gallery. A missing or empty file is an empty gallery.
func (s *FileStore) Load() ([]string, []face.Embedding, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.Size() == 0 {
		return nil, nil, nil
	}

	var data galleryFile
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if data.Version != fileVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data.Version)
	}
	if len(data.Names) != len(data.Embeddings) {
		return nil, nil, fmt.Errorf("%w: %d names for %d embeddings", ErrCorrupt, len(data.Names), len(data.Embeddings))
	}

	embeddings := make([]face.Embedding, len(data.Embeddings))
	for i, e := range data.Embeddings {
		embeddings[i] = face.Embedding(e)
	}
	return data.Names, embeddings, nil
}

// Save overwrites the file. It writes to a temporary file first and renames it
// into place so readers never see a partial gallery.
func (s *FileStore) Save(names []string, embeddings []face.Embedding) error {
	if len(names) != len(embeddings) {
		return fmt.Errorf("gallery mismatch: %d names for %d embeddings", len(names), len(embeddings))
	}

	data := galleryFile{
		Version:    fileVersion,
		Names:      names,
		Embeddings: make([][]float32, len(embeddings)),
	}
	for i, e := range embeddings {
		data.Embeddings[i] = []float32(e)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create gallery dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode gallery: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace gallery: %w", err)
	}
	return nil
}
