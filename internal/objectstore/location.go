// Package objectstore lists and point-looks-up objects in the public S3
// buckets that back DANDI Archive Zarr assets, with a small cache of
// per-bucket clients.
package objectstore

import (
	"errors"
	"net/url"
	"strings"
)

// Location identifies an S3 object or prefix parsed out of an archive
// "content_url" or download URL.
type Location struct {
	Bucket string
	Region string // "" means "unknown, must be looked up"
	Key    string // never starts with "/"
}

// ErrNotHTTP, ErrNoDomain, and ErrInvalidDomain classify why a URL could not
// be parsed as an S3 virtual-hosted-style URL.
var (
	ErrNotHTTP      = errors.New("objectstore: URL is not HTTP(S)")
	ErrNoDomain     = errors.New("objectstore: URL lacks a domain name")
	ErrInvalidDomain = errors.New("objectstore: domain in URL is not S3")
)

// ParseLocation parses a virtual-hosted-style S3 URL of one of the forms
//
//	{bucket}.s3.{region}.amazonaws.com
//	{bucket}.s3-{region}.amazonaws.com
//	{bucket}.s3.amazonaws.com
//
// into its bucket, region (if present in the URL), and key.
func ParseLocation(raw *url.URL) (Location, error) {
	if raw.Scheme != "http" && raw.Scheme != "https" {
		return Location{}, ErrNotHTTP
	}
	fqdn := raw.Hostname()
	if fqdn == "" {
		return Location{}, ErrNoDomain
	}
	bucket, rest, ok := strings.Cut(fqdn, ".")
	if !ok {
		return Location{}, ErrInvalidDomain
	}
	rest, ok = strings.CutPrefix(rest, "s3")
	if !ok {
		return Location{}, ErrInvalidDomain
	}
	rest, ok = strings.CutSuffix(rest, ".amazonaws.com")
	if !ok {
		return Location{}, ErrInvalidDomain
	}
	var region string
	switch {
	case rest == "":
		region = ""
	case rest[0] == '.' || rest[0] == '-':
		region = rest[1:]
		if strings.Contains(region, ".") {
			return Location{}, ErrInvalidDomain
		}
	default:
		return Location{}, ErrInvalidDomain
	}
	key := strings.TrimPrefix(raw.Path, "/")
	return Location{Bucket: bucket, Region: region, Key: key}, nil
}

// BucketSpec is the cache key for a per-bucket S3 client: the bucket name
// plus an optional already-known region.
type BucketSpec struct {
	Bucket string
	Region string
}
