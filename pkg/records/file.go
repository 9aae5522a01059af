package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
)

const attachmentsDir = "_attachments"

// FileStore keeps one indented JSON document per record under
// <root>/<category>/<id>.json. Attachments live under
// <root>/_attachments/<category>/<id>/.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileStore returns a FileStore rooted at dir, creating it when missing.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("records: store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("records: create store directory: %w", err)
	}
	return &FileStore{root: filepath.Clean(dir)}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) Read(_ context.Context, category, id string) Result {
	file, err := s.recordPath(category, id)
	if err != nil {
		return Fail(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := readRecord(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fail(fmt.Errorf("%w: %s/%s", ErrNotFound, category, id))
		}
		return Fail(err)
	}
	return Ok(id, data)
}

func (s *FileStore) Create(_ context.Context, category string, data map[string]any) Result {
	id := uuid.NewString()
	file, err := s.recordPath(category, id)
	if err != nil {
		return Fail(err)
	}
	stored, err := copyData(data)
	if err != nil {
		return Fail(err)
	}
	stored["id"] = id
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeRecord(file, stored); err != nil {
		return Fail(err)
	}
	return Ok(id, stored)
}

func (s *FileStore) Update(_ context.Context, category, id string, data map[string]any) Result {
	file, err := s.recordPath(category, id)
	if err != nil {
		return Fail(err)
	}
	stored, err := copyData(data)
	if err != nil {
		return Fail(err)
	}
	stored["id"] = id
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fail(fmt.Errorf("%w: %s/%s", ErrNotFound, category, id))
		}
		return Fail(fmt.Errorf("records: stat %s: %w", file, err))
	}
	if err := writeRecord(file, stored); err != nil {
		return Fail(err)
	}
	return Ok(id, stored)
}

// Search implements references.Lookup by scanning every record file.
// Unreadable files are skipped.
func (s *FileStore) Search(ctx context.Context, query, typeFilter string) ([]references.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("records: list categories: %w", err)
	}
	var hits []references.Hit
	for _, dir := range categories {
		if !dir.IsDir() || dir.Name() == attachmentsDir {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("records: list %s: %w", dir.Name(), err)
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			data, err := readRecord(filepath.Join(s.root, dir.Name(), entry.Name()))
			if err != nil {
				continue
			}
			if matchRecord(dir.Name(), data, query, typeFilter) {
				id := strings.TrimSuffix(entry.Name(), ".json")
				hits = append(hits, recordHit(dir.Name(), id, data))
			}
		}
	}
	return sortHits(hits, DefaultSearchLimit), nil
}

// Put implements AttachmentSink.
func (s *FileStore) Put(_ context.Context, category, id, field string, upload model.Upload) (string, error) {
	category, err := cleanCategory(category)
	if err != nil {
		return "", err
	}
	if id, err = cleanID(id); err != nil {
		return "", err
	}
	if field, err = cleanID(field); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, attachmentsDir, category, id)
	name := field + path.Ext(upload.Filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("records: create attachment directory: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, name), upload.Data); err != nil {
		return "", err
	}
	return attachmentURL(category, id, field, upload.Filename), nil
}

// Attachment loads a stored payload by the URL Put returned.
func (s *FileStore) Attachment(url string) (model.Upload, bool) {
	rest, ok := strings.CutPrefix(url, "/attachments/")
	if !ok {
		return model.Upload{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return model.Upload{}, false
	}
	category, errCat := cleanCategory(parts[0])
	id, errID := cleanID(parts[1])
	name, errName := cleanID(parts[2])
	if errCat != nil || errID != nil || errName != nil {
		return model.Upload{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(filepath.Join(s.root, attachmentsDir, category, id, name))
	if err != nil {
		return model.Upload{}, false
	}
	return model.Upload{
		Filename:    name,
		ContentType: mime.TypeByExtension(path.Ext(name)),
		Data:        data,
	}, true
}

func (s *FileStore) recordPath(category, id string) (string, error) {
	category, err := cleanCategory(category)
	if err != nil {
		return "", err
	}
	id, err = cleanID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, category, id+".json"), nil
}

func readRecord(file string) (map[string]any, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("records: parse %s: %w", file, err)
	}
	return data, nil
}

func writeRecord(file string, data map[string]any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("records: encode %s: %w", file, err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("records: create category directory: %w", err)
	}
	return writeFileAtomic(file, append(raw, '\n'))
}

func writeFileAtomic(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-*")
	if err != nil {
		return fmt.Errorf("records: write %s: %w", file, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("records: write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("records: write %s: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("records: write %s: %w", file, err)
	}
	return nil
}
