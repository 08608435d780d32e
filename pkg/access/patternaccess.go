package access

import (
	"fmt"
	"net/url"
	"strings"
)

const pattern = "{key}"

// Access constructs public URLs for stored attachments.
type Access interface {
	// GetDownloadURL constructs a public download URL for the given object key.
	// Note: it does not verify the object exists.
	GetDownloadURL(key string) (url.URL, error)
}

type PatternAccess struct {
	urlPattern string
}

// GetDownloadURL implements Access.
func (p *PatternAccess) GetDownloadURL(key string) (url.URL, error) {
	u, err := url.ParseRequestURI(strings.ReplaceAll(p.urlPattern, pattern, url.PathEscape(key)))
	if err != nil {
		return url.URL{}, err
	}
	return *u, nil
}

var _ Access = (*PatternAccess)(nil)

// NewPatternAccess creates a new [Access] instance for accessing attachments
// where the URL is created from a string that contains the placeholder
// pattern: "{key}".
//
// e.g. "https://my-bucket.s3.amazonaws.com/{key}"
func NewPatternAccess(urlPattern string) (*PatternAccess, error) {
	if !strings.Contains(urlPattern, pattern) {
		return nil, fmt.Errorf(`URL string does not contain required pattern: "%s"`, pattern)
	}
	return &PatternAccess{urlPattern}, nil
}

// NewBucketAccess creates an [Access] for the public virtual-hosted URL of
// objects in an S3 bucket.
func NewBucketAccess(bucket string) (*PatternAccess, error) {
	return NewPatternAccess(fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, pattern))
}
