package s3

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const scheme = "s3"

// Bucket is the destination of archived files: s3://<name>/<prefix> in region.
type Bucket struct {
	Name   string
	Prefix string
	Region string
}

func (b Bucket) String() string {
	if b.Prefix == "" {
		return scheme + "://" + b.Name
	}
	return scheme + "://" + b.Name + "/" + b.Prefix
}

// Key returns the object key for a file called name, under the bucket prefix.
func (b Bucket) Key(name string) string {
	if b.Prefix == "" {
		return name
	}
	return path.Join(b.Prefix, name)
}

// ParseURL accepts [s3://]<bucket>[/<prefix>] and the bucket region.
func ParseURL(s string, region string) (Bucket, error) {
	if !strings.Contains(s, "://") {
		s = scheme + "://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return Bucket{}, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if u.Scheme != scheme {
		return Bucket{}, fmt.Errorf("expected S3 URL scheme %q but got %q", scheme, u.Scheme)
	}
	if u.Host == "" {
		return Bucket{}, fmt.Errorf("missing bucket name in %q", s)
	}
	if region == "" {
		return Bucket{}, fmt.Errorf("value expected for bucket region")
	}
	return Bucket{Name: u.Host, Prefix: strings.Trim(u.Path, "/"), Region: region}, nil
}
