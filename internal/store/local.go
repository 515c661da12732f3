package store

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/sourcegraph/conc/pool"

	"github.com/aweris/dircache/internal/compression"
)

// DefaultConcurrency is the parallelism used by batch operations.
const DefaultConcurrency = 4

// LocalStore implements Store on the local filesystem.
//
// Storage layout (git-compatible):
//
//	basePath/
//	  ab/cd123...  (zlib-deflated "<type> <len>\0<content>" frames)
//
// A small in-memory cache holds recently decoded frames.
type LocalStore struct {
	basePath    string
	cache       Cache
	compressor  *compression.Compressor
	concurrency int
}

func NewLocalStore(basePath string, cacheSize int) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create object dir %s: %w", basePath, err)
	}
	compressor, err := compression.NewCompressor(zlib.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("create compressor: %w", err)
	}
	return &LocalStore{
		basePath:    basePath,
		cache:       newBoundedCache(cacheSize),
		compressor:  compressor,
		concurrency: DefaultConcurrency,
	}, nil
}

// SetConcurrency sets the parallelism for batch operations.
func (s *LocalStore) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// frame builds the loose-object byte frame for obj.
func frame(obj Object) []byte {
	header := obj.Type + " " + strconv.Itoa(len(obj.Content))
	buf := make([]byte, 0, len(header)+1+len(obj.Content))
	buf = append(buf, header...)
	buf = append(buf, 0)
	buf = append(buf, obj.Content...)
	return buf
}

// unframe splits a loose-object frame back into type and content.
func unframe(data []byte) (Object, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return Object{}, fmt.Errorf("object frame missing NUL terminator")
	}
	sp := bytes.IndexByte(data[:nul], ' ')
	if sp < 0 {
		return Object{}, fmt.Errorf("object frame missing type separator")
	}
	content := data[nul+1:]
	if size, err := strconv.Atoi(string(data[sp+1 : nul])); err != nil || size != len(content) {
		return Object{}, fmt.Errorf("object frame length mismatch")
	}
	return Object{Type: string(data[:sp]), Content: content}, nil
}

// Get retrieves an object by id.
func (s *LocalStore) Get(ctx context.Context, id string) (Object, error) {
	if data, ok := s.cache.Get(id); ok {
		return unframe(data)
	}

	compressed, err := os.ReadFile(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Object{}, fmt.Errorf("object not found: %s", id)
		}
		return Object{}, fmt.Errorf("read object %s: %w", id, err)
	}

	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return Object{}, fmt.Errorf("inflate object %s: %w", id, err)
	}

	s.cache.Add(id, data)
	return unframe(data)
}

// Put stores an object and returns its id. An object that already exists
// on disk is not rewritten.
func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	data := frame(obj)
	sum := sha1.Sum(data)
	id := hex.EncodeToString(sum[:])

	path := s.objectPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return "", fmt.Errorf("deflate object %s: %w", id, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, compressed, 0444); err != nil {
		return "", fmt.Errorf("write object %s: %w", id, err)
	}

	s.cache.Add(id, data)
	return id, nil
}

// Has checks whether an object exists.
func (s *LocalStore) Has(ctx context.Context, id string) (bool, error) {
	if s.cache.Has(id) {
		return true, nil
	}
	_, err := os.Stat(s.objectPath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// HasAll checks whether every listed object exists.
func (s *LocalStore) HasAll(ctx context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		ok, err := s.Has(ctx, id)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// GetMulti retrieves a batch of objects in parallel, keyed by id. A
// missing or unreadable object fails the whole batch.
func (s *LocalStore) GetMulti(ctx context.Context, ids []string) (map[string]Object, error) {
	objs := make(map[string]Object, len(ids))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx).WithCancelOnError()
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			obj, err := s.Get(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			objs[id] = obj
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return objs, nil
}

// PutMulti stores a batch of objects in parallel and returns their ids
// in input order.
func (s *LocalStore) PutMulti(ctx context.Context, objs []Object) ([]string, error) {
	ids := make([]string, len(objs))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx).WithCancelOnError()
	for i, obj := range objs {
		p.Go(func(ctx context.Context) error {
			id, err := s.Put(ctx, obj)
			if err != nil {
				return err
			}
			mu.Lock()
			ids[i] = id
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Evict removes an object from the read cache.
func (s *LocalStore) Evict(id string) {
	s.cache.Remove(id)
}

// Clear drops the read cache.
func (s *LocalStore) Clear() {
	s.cache.Clear()
}

// objectPath returns the sharded filesystem path for an object id.
func (s *LocalStore) objectPath(id string) string {
	if len(id) < 2 {
		return filepath.Join(s.basePath, id)
	}
	return filepath.Join(s.basePath, id[:2], id[2:])
}
