// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so registry inputs can be read from, and run
// outputs published to, AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Inputs
//
// Resolver accepts either local paths or "s3://bucket/key" URIs. A URI ending
// in "/" (or a local directory) is expanded to every ".csv" file beneath it,
// sorted by name, which is how a folder of captures is discovered.
//
// # Publishing
//
// Publish uploads a run's output files under a per-run prefix. If any upload
// fails, the objects already uploaded for that run are removed.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	resolver := storage.NewResolver(client)
//	paths, err := resolver.Expand(ctx, []string{"s3://registry/captures/"})
//	rc, err := resolver.Open(ctx, paths[0])
package storage
