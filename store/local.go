package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/scgo/codec"
	"github.com/hupe1980/scgo/internal/compress"
	"github.com/hupe1980/scgo/model"
)

const (
	matrixFileName = "matrix.bin"
	sparseFileName = "sparse.bin"
	docFileName    = "doc.bin"
	attrsFileName  = "attrs.json"
)

// LocalOptions configures a LocalStore.
type LocalOptions struct {
	// Codec encodes payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compression wraps encoded payloads. Defaults to ZSTD.
	Compression compress.Type
}

// LocalStore implements Store over a local directory tree. Each node is a
// directory; payloads are codec-encoded files wrapped in a compression
// envelope, attributes live in a plain JSON sidecar.
type LocalStore struct {
	root        string
	codec       codec.Codec
	compression compress.Type
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...func(*LocalOptions)) *LocalStore {
	opts := LocalOptions{
		Codec:       codec.Default,
		Compression: compress.ZSTD,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return &LocalStore{
		root:        root,
		codec:       opts.Codec,
		compression: opts.Compression,
	}
}

func (s *LocalStore) dir(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.Trim(path, "/")))
}

// Exists reports whether a node exists at path.
func (s *LocalStore) Exists(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(s.dir(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// ListChildren returns the sorted child node names of path.
func (s *LocalStore) ListChildren(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var children []string
	for _, e := range entries {
		if e.IsDir() {
			children = append(children, e.Name())
		}
	}
	sort.Strings(children)
	return children, nil
}

func (s *LocalStore) readPayload(path, filename string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir(path), filename))
	if os.IsNotExist(err) {
		// Distinguish "wrong payload type" from "no node".
		if s.hasOtherPayload(path, filename) {
			return nil, fmt.Errorf("%s: %w", path, ErrTypeMismatch)
		}
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return compress.Decode(raw)
}

func (s *LocalStore) hasOtherPayload(path, except string) bool {
	for _, name := range []string{matrixFileName, sparseFileName, docFileName} {
		if name == except {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir(path), name)); err == nil {
			return true
		}
	}
	return false
}

// ReadMatrix reads the dense matrix payload at path.
func (s *LocalStore) ReadMatrix(_ context.Context, path string) (*model.Matrix, error) {
	data, err := s.readPayload(path, matrixFileName)
	if err != nil {
		return nil, err
	}
	var m model.Matrix
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: decode matrix: %w", path, err)
	}
	return &m, nil
}

// ReadSparse reads the CSR sparse matrix payload at path.
func (s *LocalStore) ReadSparse(_ context.Context, path string) (*model.SparseMatrix, error) {
	data, err := s.readPayload(path, sparseFileName)
	if err != nil {
		return nil, err
	}
	var sp model.SparseMatrix
	if err := s.codec.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("%s: decode sparse: %w", path, err)
	}
	return &sp, nil
}

// ReadJSON decodes the JSON document payload at path into v.
func (s *LocalStore) ReadJSON(_ context.Context, path string, v any) error {
	data, err := s.readPayload(path, docFileName)
	if err != nil {
		return err
	}
	if err := s.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decode document: %w", path, err)
	}
	return nil
}

// ReadAttr reads a node attribute from the sidecar file.
func (s *LocalStore) ReadAttr(_ context.Context, path, name string) (string, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir(path), attrsFileName))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var attrs map[string]string
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return "", false, fmt.Errorf("%s: decode attributes: %w", path, err)
	}
	v, ok := attrs[name]
	return v, ok, nil
}

func (s *LocalStore) writePayload(path, filename string, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return err
	}
	enveloped, err := compress.Encode(data, s.compression)
	if err != nil {
		return err
	}

	dir := s.dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dir, filename), enveloped)
}

// atomicWrite writes data via a temp file and rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// PutMatrix stores a dense matrix payload at path.
func (s *LocalStore) PutMatrix(_ context.Context, path string, m *model.Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.writePayload(path, matrixFileName, m)
}

// PutSparse stores a CSR sparse matrix payload at path.
func (s *LocalStore) PutSparse(_ context.Context, path string, sp *model.SparseMatrix) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	return s.writePayload(path, sparseFileName, sp)
}

// PutJSON stores a JSON document payload at path.
func (s *LocalStore) PutJSON(_ context.Context, path string, v any) error {
	return s.writePayload(path, docFileName, v)
}

// SetAttr sets a node attribute, creating the node if needed.
func (s *LocalStore) SetAttr(_ context.Context, path, name, value string) error {
	dir := s.dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	attrsPath := filepath.Join(dir, attrsFileName)
	attrs := make(map[string]string)
	if raw, err := os.ReadFile(attrsPath); err == nil {
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return fmt.Errorf("%s: decode attributes: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	attrs[name] = value
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	return atomicWrite(attrsPath, data)
}

// MkNode creates an empty node at path (useful for family roots).
func (s *LocalStore) MkNode(_ context.Context, path string) error {
	return os.MkdirAll(s.dir(path), 0o755)
}
