// Package s3 provides an S3 implementation of the store.Store interface.
//
// # Usage
//
//	st, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/pbmc"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// Nodes map to key prefixes; payloads and the attribute sidecar are objects
// under the node prefix, using the same file layout as the local store.
package s3
