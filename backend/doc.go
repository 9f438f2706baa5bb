// Package backend defines the durable key/content store beneath the
// workspace file system.
//
// A Backend is a flat, whole-document string store: keys are canonical
// workspace paths (plus a few reserved bookkeeping keys such as snapshot
// lists), values are full file contents. There are no directories,
// permissions or byte-range operations at this layer.
//
// # Implementations
//
//   - [Memory]: in-process store for tests and ephemeral workspaces
//   - [Local]: file-per-key store on the local filesystem
//   - s3.Backend: AWS S3 (subpackage s3)
//   - minio.Backend: MinIO / S3-compatible storage (subpackage minio)
//   - dynamo.Backend: DynamoDB table (subpackage dynamo)
//
// Any engine with this contract is interchangeable; the file manager and
// snapshot store treat the backend as a black box.
package backend
