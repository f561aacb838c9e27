package storage

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// Store is the object storage used for recordings and synthesized audio.
type Store interface {
	Download(ctx context.Context, name string) ([]byte, error)
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	PublicURL(name string) string
	Bucket() string
}

// PublicName returns the object name as it appears at the end of its public
// URL, without any query string.
func PublicName(publicURL string) string {
	if u, err := url.Parse(publicURL); err == nil && u.Path != "" {
		name := path.Base(u.EscapedPath())
		if unescaped, err := url.PathUnescape(name); err == nil {
			return unescaped
		}
		return name
	}
	name := publicURL
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// URI returns a gs:// style URI for name. Names that already carry a
// scheme are returned untouched.
func URI(scheme, bucket, name string) string {
	if strings.Contains(name, "://") {
		return name
	}
	return scheme + "://" + bucket + "/" + strings.TrimPrefix(name, "/")
}

func escapeObjectName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
