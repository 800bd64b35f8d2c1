package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/scgo/codec"
	"github.com/hupe1980/scgo/internal/compress"
	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/store"
)

const (
	matrixObjectName = "matrix.bin"
	sparseObjectName = "sparse.bin"
	docObjectName    = "doc.bin"
	attrsObjectName  = "attrs.json"
)

// Options configures a MinIO store.
type Options struct {
	// Prefix is prepended to all keys (e.g. "datasets/pbmc").
	Prefix string

	// Codec encodes payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compression wraps encoded payloads. Defaults to ZSTD.
	Compression compress.Type
}

// Store implements store.Store for MinIO and S3-compatible storage.
type Store struct {
	client      *minio.Client
	bucket      string
	prefix      string
	codec       codec.Codec
	compression compress.Type
}

var _ store.Store = (*Store)(nil)
var _ store.Writer = (*Store)(nil)

// NewStore creates a MinIO-backed store.
func NewStore(client *minio.Client, bucket string, optFns ...func(*Options)) *Store {
	opts := Options{
		Codec:       codec.Default,
		Compression: compress.ZSTD,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	return &Store{
		client:      client,
		bucket:      bucket,
		prefix:      strings.Trim(opts.Prefix, "/"),
		codec:       opts.Codec,
		compression: opts.Compression,
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) func(*Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the payload compression.
func WithCompression(t compress.Type) func(*Options) {
	return func(o *Options) {
		o.Compression = t
	}
}

// nodeKey returns the key prefix of a node, with trailing slash.
func (s *Store) nodeKey(p string) string {
	return path.Join(s.prefix, strings.Trim(p, "/")) + "/"
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// Exists reports whether any object lives under the node prefix.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.nodeKey(p),
		Recursive: true,
		MaxKeys:   1,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

// ListChildren returns the sorted child node names of p. A non-recursive
// listing yields directory-style entries one level below the node.
func (s *Store) ListChildren(ctx context.Context, p string) ([]string, error) {
	prefix := s.nodeKey(p)

	seen := make(map[string]struct{})
	found := false

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		found = true

		if !strings.HasSuffix(obj.Key, "/") {
			continue // payload or sidecar object, not a child node
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name != "" {
			seen[name] = struct{}{}
		}
	}

	if !found {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	sort.Strings(children)
	return children, nil
}

func (s *Store) readObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; errors surface on read.
	return io.ReadAll(obj)
}

func (s *Store) readPayload(ctx context.Context, p, objectName string) ([]byte, error) {
	prefix := s.nodeKey(p)

	raw, err := s.readObject(ctx, prefix+objectName)
	if err != nil {
		if isNotFound(err) {
			if s.hasOtherPayload(ctx, prefix, objectName) {
				return nil, fmt.Errorf("%s: %w", p, store.ErrTypeMismatch)
			}
			return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
		}
		return nil, err
	}
	return compress.Decode(raw)
}

func (s *Store) hasOtherPayload(ctx context.Context, prefix, except string) bool {
	for _, name := range []string{matrixObjectName, sparseObjectName, docObjectName} {
		if name == except {
			continue
		}
		if _, err := s.client.StatObject(ctx, s.bucket, prefix+name, minio.StatObjectOptions{}); err == nil {
			return true
		}
	}
	return false
}

// ReadMatrix reads the dense matrix payload at p.
func (s *Store) ReadMatrix(ctx context.Context, p string) (*model.Matrix, error) {
	data, err := s.readPayload(ctx, p, matrixObjectName)
	if err != nil {
		return nil, err
	}
	var m model.Matrix
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: decode matrix: %w", p, err)
	}
	return &m, nil
}

// ReadSparse reads the CSR sparse matrix payload at p.
func (s *Store) ReadSparse(ctx context.Context, p string) (*model.SparseMatrix, error) {
	data, err := s.readPayload(ctx, p, sparseObjectName)
	if err != nil {
		return nil, err
	}
	var sp model.SparseMatrix
	if err := s.codec.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("%s: decode sparse: %w", p, err)
	}
	return &sp, nil
}

// ReadJSON decodes the JSON document payload at p into v.
func (s *Store) ReadJSON(ctx context.Context, p string, v any) error {
	data, err := s.readPayload(ctx, p, docObjectName)
	if err != nil {
		return err
	}
	if err := s.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decode document: %w", p, err)
	}
	return nil
}

// ReadAttr reads a node attribute from the sidecar object.
func (s *Store) ReadAttr(ctx context.Context, p, name string) (string, bool, error) {
	raw, err := s.readObject(ctx, s.nodeKey(p)+attrsObjectName)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}

	var attrs map[string]string
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return "", false, fmt.Errorf("%s: decode attributes: %w", p, err)
	}
	v, ok := attrs[name]
	return v, ok, nil
}

func (s *Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (s *Store) writePayload(ctx context.Context, p, objectName string, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return err
	}
	enveloped, err := compress.Encode(data, s.compression)
	if err != nil {
		return err
	}
	return s.putObject(ctx, s.nodeKey(p)+objectName, enveloped)
}

// PutMatrix stores a dense matrix payload at p.
func (s *Store) PutMatrix(ctx context.Context, p string, m *model.Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.writePayload(ctx, p, matrixObjectName, m)
}

// PutSparse stores a CSR sparse matrix payload at p.
func (s *Store) PutSparse(ctx context.Context, p string, sp *model.SparseMatrix) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	return s.writePayload(ctx, p, sparseObjectName, sp)
}

// PutJSON stores a JSON document payload at p.
func (s *Store) PutJSON(ctx context.Context, p string, v any) error {
	return s.writePayload(ctx, p, docObjectName, v)
}

// SetAttr sets a node attribute via read-modify-write of the sidecar object.
func (s *Store) SetAttr(ctx context.Context, p, name, value string) error {
	key := s.nodeKey(p) + attrsObjectName

	attrs := make(map[string]string)
	raw, err := s.readObject(ctx, key)
	if err == nil {
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return fmt.Errorf("%s: decode attributes: %w", p, err)
		}
	} else if !isNotFound(err) {
		return err
	}

	attrs[name] = value
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	return s.putObject(ctx, key, data)
}
