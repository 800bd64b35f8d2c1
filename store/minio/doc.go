// Package minio provides a store.Store implementation for MinIO and other
// S3-compatible object storage, using the MinIO Go SDK directly.
//
// The object layout matches the s3 package: nodes map to key prefixes,
// payloads and the attribute sidecar are objects under the node prefix.
package minio
