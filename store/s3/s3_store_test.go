package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scgo/internal/compress"
	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/store"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awss3.HeadObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awss3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awss3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*awss3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func encodedMatrix(t *testing.T, m *model.Matrix) []byte {
	t.Helper()

	data, err := json.Marshal(m)
	require.NoError(t, err)

	enveloped, err := compress.Encode(data, compress.ZSTD)
	require.NoError(t, err)
	return enveloped
}

func TestStore_Exists(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket", WithPrefix("datasets/pbmc"))

	t.Run("Present", func(t *testing.T) {
		mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *awss3.ListObjectsV2Input) bool {
			return *input.Bucket == "test-bucket" && *input.Prefix == "datasets/pbmc/assays/SCT/" && *input.MaxKeys == 1
		})).Return(&awss3.ListObjectsV2Output{
			Contents: []types.Object{{Key: aws.String("datasets/pbmc/assays/SCT/layers/counts/matrix.bin")}},
		}, nil).Once()

		ok, err := st.Exists(context.Background(), "assays/SCT")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Absent", func(t *testing.T) {
		mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *awss3.ListObjectsV2Input) bool {
			return *input.Prefix == "datasets/pbmc/reductions/tsne/"
		})).Return(&awss3.ListObjectsV2Output{}, nil).Once()

		ok, err := st.Exists(context.Background(), "reductions/tsne")
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_ListChildren(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket", WithPrefix("pbmc"))

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *awss3.ListObjectsV2Input) bool {
		return *input.Prefix == "pbmc/assays/" && *input.Delimiter == "/"
	})).Return(&awss3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("pbmc/assays/Spatial/")},
			{Prefix: aws.String("pbmc/assays/SCT/")},
		},
	}, nil).Once()

	children, err := st.ListChildren(context.Background(), "assays")
	assert.NoError(t, err)
	assert.Equal(t, []string{"SCT", "Spatial"}, children)
}

func TestStore_ListChildren_NotFound(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	mockClient.On("ListObjectsV2", mock.Anything, mock.Anything).
		Return(&awss3.ListObjectsV2Output{}, nil).Once()

	_, err := st.ListChildren(context.Background(), "graphs")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListChildren_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *awss3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil
	})).Return(&awss3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		CommonPrefixes:        []types.CommonPrefix{{Prefix: aws.String("assays/RNA/")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *awss3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&awss3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("assays/SCT/")}},
	}, nil).Once()

	children, err := st.ListChildren(context.Background(), "assays")
	assert.NoError(t, err)
	assert.Equal(t, []string{"RNA", "SCT"}, children)
}

func TestStore_ReadMatrix(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	want := &model.Matrix{
		Rows:     1,
		Cols:     2,
		RowNames: []string{"g1"},
		ColNames: []string{"c1", "c2"},
		Values:   []float64{1, 2},
	}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *awss3.GetObjectInput) bool {
		return *input.Key == "assays/SCT/layers/counts/matrix.bin"
	})).Return(&awss3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(encodedMatrix(t, want))),
	}, nil).Once()

	got, err := st.ReadMatrix(context.Background(), "assays/SCT/layers/counts")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ReadMatrix_NotFound(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	mockClient.On("GetObject", mock.Anything, mock.Anything).
		Return(nil, &types.NoSuchKey{}).Once()
	// No sibling payloads either.
	mockClient.On("HeadObject", mock.Anything, mock.Anything).
		Return(nil, &types.NotFound{}).Twice()

	_, err := st.ReadMatrix(context.Background(), "assays/SCT/layers/counts")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ReadMatrix_TypeMismatch(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *awss3.GetObjectInput) bool {
		return *input.Key == "meta/commands/matrix.bin"
	})).Return(nil, &types.NoSuchKey{}).Once()

	// The node holds a JSON document instead.
	mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *awss3.HeadObjectInput) bool {
		return *input.Key == "meta/commands/sparse.bin"
	})).Return(nil, &types.NotFound{}).Once()
	mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *awss3.HeadObjectInput) bool {
		return *input.Key == "meta/commands/doc.bin"
	})).Return(&awss3.HeadObjectOutput{}, nil).Once()

	_, err := st.ReadMatrix(context.Background(), "meta/commands")
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
}

func TestStore_ReadAttr(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	attrs, err := json.Marshal(map[string]string{"assay": "SCT", "global": "true"})
	require.NoError(t, err)

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *awss3.GetObjectInput) bool {
		return *input.Key == "reductions/umap/attrs.json"
	})).Return(&awss3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(attrs)),
	}, nil).Once()
	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *awss3.GetObjectInput) bool {
		return *input.Key == "reductions/umap/attrs.json"
	})).Return(&awss3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(attrs)),
	}, nil).Once()

	v, ok, err := st.ReadAttr(context.Background(), "reductions/umap", "assay")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SCT", v)

	_, ok, err = st.ReadAttr(context.Background(), "reductions/umap", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ReadAttr_MissingSidecar(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket")

	mockClient.On("GetObject", mock.Anything, mock.Anything).
		Return(nil, &types.NoSuchKey{}).Once()

	_, ok, err := st.ReadAttr(context.Background(), "graphs/nn", "assay")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutMatrix(t *testing.T) {
	mockClient := new(MockS3Client)
	st := NewFromClient(mockClient, "test-bucket", WithPrefix("pbmc"))

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *awss3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "pbmc/assays/RNA/layers/counts/matrix.bin"
	})).Return(&awss3.PutObjectOutput{}, nil).Once()

	err := st.PutMatrix(context.Background(), "assays/RNA/layers/counts", &model.Matrix{
		Rows: 1, Cols: 1, RowNames: []string{"g"}, ColNames: []string{"c"}, Values: []float64{1},
	})
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}
