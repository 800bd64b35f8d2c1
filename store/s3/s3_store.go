package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

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

// Client is the subset of the S3 API the store uses. Satisfied by
// *s3.Client; narrow so tests can mock it.
type Client interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Options configures an S3 store.
type Options struct {
	// Prefix is prepended to all keys (e.g. "datasets/pbmc").
	Prefix string

	// Region overrides the region from the default config chain.
	Region string

	// Codec encodes payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compression wraps encoded payloads. Defaults to ZSTD.
	Compression compress.Type
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) {
		o.Region = region
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

// Store implements store.Store over an S3 bucket.
type Store struct {
	client      Client
	bucket      string
	prefix      string
	codec       codec.Codec
	compression compress.Type
}

var _ store.Store = (*Store)(nil)
var _ store.Writer = (*Store)(nil)

// New creates an S3 store using the default AWS config chain.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	opts := applyOptions(optFns...)

	var cfgOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newStore(awss3.NewFromConfig(cfg), bucket, opts), nil
}

// NewFromClient creates an S3 store with an explicit client.
func NewFromClient(client Client, bucket string, optFns ...func(*Options)) *Store {
	return newStore(client, bucket, applyOptions(optFns...))
}

func applyOptions(optFns ...func(*Options)) Options {
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
	return opts
}

func newStore(client Client, bucket string, opts Options) *Store {
	return &Store{
		client:      client,
		bucket:      bucket,
		prefix:      strings.Trim(opts.Prefix, "/"),
		codec:       opts.Codec,
		compression: opts.Compression,
	}
}

// nodeKey returns the key prefix of a node, with trailing slash.
func (s *Store) nodeKey(p string) string {
	return path.Join(s.prefix, strings.Trim(p, "/")) + "/"
}

// Exists reports whether any object lives under the node prefix.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.nodeKey(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0, nil
}

// ListChildren returns the sorted child node names of p, derived from the
// common prefixes one level below the node.
func (s *Store) ListChildren(ctx context.Context, p string) ([]string, error) {
	prefix := s.nodeKey(p)

	seen := make(map[string]struct{})
	found := false

	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}

		if len(out.Contents) > 0 || len(out.CommonPrefixes) > 0 {
			found = true
		}
		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, prefix), "/")
			if name != "" {
				seen[name] = struct{}{}
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
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

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

func (s *Store) readObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(resp.Body)
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
		_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(prefix + name),
		})
		if err == nil {
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

func (s *Store) writePayload(ctx context.Context, p, objectName string, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return err
	}
	enveloped, err := compress.Encode(data, s.compression)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.nodeKey(p) + objectName),
		Body:   bytes.NewReader(enveloped),
	})
	return err
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

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}
