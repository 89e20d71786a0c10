package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Scheme is the URI scheme of object storage inputs.
const Scheme = "s3://"

// ErrNotConfigured is returned when an s3:// URI is used without a client.
var ErrNotConfigured = errors.New("object storage is not configured")

// Location is a parsed s3:// URI.
type Location struct {
	Bucket string
	Key    string
}

// String renders the location as a URI.
func (l Location) String() string {
	return Scheme + l.Bucket + "/" + l.Key
}

// IsRemote reports whether path is an s3:// URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, Scheme)
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (Location, error) {
	if !IsRemote(uri) {
		return Location{}, fmt.Errorf("not an %s URI: %q", Scheme, uri)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("missing bucket in %q", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Resolver opens and discovers inputs on local disk or object storage.
type Resolver struct {
	client Client
	// Extension filters discovered inputs. Defaults to ".csv".
	Extension string
}

// NewResolver creates a resolver. client may be nil for local-only use.
func NewResolver(client Client) *Resolver {
	return &Resolver{client: client, Extension: ".csv"}
}

// Open opens a local path or s3:// URI.
func (r *Resolver) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !IsRemote(path) {
		return os.Open(path)
	}
	loc, err := ParseURI(path)
	if err != nil {
		return nil, err
	}
	if r.client == nil {
		return nil, ErrNotConfigured
	}
	obj, err := r.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", loc, err)
	}
	return obj, nil
}

// Expand replaces directories and s3:// prefixes ending in "/" with the input
// files they contain, sorted by name. Other paths are returned unchanged.
func (r *Resolver) Expand(ctx context.Context, paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		var (
			found []string
			err   error
		)
		switch {
		case IsRemote(p) && strings.HasSuffix(p, "/"):
			found, err = r.listRemote(ctx, p)
		case !IsRemote(p):
			found, err = r.listLocal(p)
		default:
			found = []string{p}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *Resolver) listLocal(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		// Missing files are reported by the loader, naming the path.
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), r.Extension) {
			found = append(found, filepath.Join(path, e.Name()))
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no %s files in %s", r.Extension, path)
	}
	sort.Strings(found)
	return found, nil
}

func (r *Resolver) listRemote(ctx context.Context, uri string) ([]string, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if r.client == nil {
		return nil, ErrNotConfigured
	}

	var found []string
	for obj := range r.client.ListObjects(ctx, loc.Bucket, minio.ListObjectsOptions{Prefix: loc.Key, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", uri, obj.Err)
		}
		if strings.EqualFold(filepath.Ext(obj.Key), r.Extension) {
			found = append(found, Location{Bucket: loc.Bucket, Key: obj.Key}.String())
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no %s objects under %s", r.Extension, uri)
	}
	sort.Strings(found)
	return found, nil
}
