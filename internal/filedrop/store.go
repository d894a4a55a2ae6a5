// Package filedrop imports batch files of customization records dropped into
// object storage. Files under the incoming prefix are claimed, parsed,
// published through the relay and then moved to processed/ or failed/.
package filedrop

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Object is one listed file.
type Object struct {
	Key     string
	Size    int64
	Updated time.Time
}

// ObjectStore is the storage contract shared by the local, S3 and GCS drivers.
// Keys always use forward slashes.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Move(ctx context.Context, from, to string) error
}

var ErrObjectNotFound = errors.New("object not found")

// rebase moves key from one prefix to another, keeping the relative path.
func rebase(key, fromPrefix, toPrefix string) string {
	return toPrefix + strings.TrimPrefix(key, fromPrefix)
}
