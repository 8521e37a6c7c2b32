// Package fs keeps blobs on the local filesystem. The content of key lives
// at <root>/data/<key> and its attributes at <root>/index/<key>.json; both
// are replaced by rename so a reader never sees a half-written object.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"timetracker/internal/blob/core"
)

const (
	dataDir   = "data"
	indexDir  = "index"
	indexExt  = ".json"
	dirPerm   = 0o750
	filePerm  = 0o600
	tmpPrefix = ".put-"
)

type Store struct {
	root string
}

// New opens the store at root, creating its directories when missing.
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("fs blob store: empty root")
	}
	for _, dir := range []string{dataDir, indexDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), dirPerm); err != nil {
			return nil, err
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory holding the store.
func (s *Store) Root() string { return s.root }

func (s *Store) paths(key string) (clean, data, index string, err error) {
	clean, err = core.CheckKey(key)
	if err != nil {
		return "", "", "", err
	}
	rel := filepath.FromSlash(clean)
	return clean, filepath.Join(s.root, dataDir, rel), filepath.Join(s.root, indexDir, rel+indexExt), nil
}

// Put writes the content first and the index entry second; an object is
// visible only once its index entry exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	key, dataPath, indexPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	info := core.Info{
		Key:         key,
		Size:        int64(len(content)),
		ContentType: opts.ContentType,
		Digest:      core.Digest(content),
		Metadata:    maps.Clone(opts.Metadata),
		Modified:    time.Now().UTC(),
	}
	entry, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := replaceFile(dataPath, content); err != nil {
		return core.Info{}, err
	}
	if err := replaceFile(indexPath, entry); err != nil {
		return core.Info{}, err
	}
	return info, nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	key, dataPath, indexPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := readIndex(indexPath, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	content, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, nil, core.ErrNotFound
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	return info, content, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	key, _, indexPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	return readIndex(indexPath, key)
}

// List walks the index rather than the data so objects whose Put did not
// finish are skipped.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	base := filepath.Join(s.root, indexDir)
	var out []core.Info
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, indexExt) || strings.HasPrefix(d.Name(), tmpPrefix) {
			return err
		}
		rel, err := filepath.Rel(base, strings.TrimSuffix(p, indexExt))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := readIndex(p, key)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b core.Info) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func replaceFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	_, err = io.Copy(tmp, bytes.NewReader(content))
	if err == nil {
		err = tmp.Chmod(filePerm)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readIndex(path, key string) (core.Info, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, core.ErrNotFound
	}
	if err != nil {
		return core.Info{}, err
	}
	var info core.Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return core.Info{}, err
	}
	info.Key = key
	return info, nil
}
