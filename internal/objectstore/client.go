package objectstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bluele/gcache"
	"github.com/rs/zerolog"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// ClientCacheSize is the number of per-bucket S3 clients kept alive at once.
// The archive currently serves Zarr assets out of a small, stable set of
// buckets, so an LRU of this size in practice never evicts a client still in
// use.
const ClientCacheSize = 8

// Client wraps the public, unsigned S3 API and caches one *BucketClient per
// (bucket, region) pair, coalescing concurrent misses for the same bucket
// into a single lookup+construction.
type Client struct {
	cache gcache.Cache
	log   zerolog.Logger
	hc    *http.Client
}

// New builds a Client.
func New(log zerolog.Logger) *Client {
	c := &Client{log: log, hc: &http.Client{Timeout: 30 * time.Second}}
	c.cache = gcache.New(ClientCacheSize).
		LRU().
		LoaderFunc(func(key any) (any, error) {
			spec := key.(BucketSpec)
			return c.buildBucketClient(context.Background(), spec)
		}).
		Build()
	return c
}

// BucketClient returns the cached *BucketClient for spec, building (and
// region-resolving, if spec.Region is empty) one on first use. Concurrent
// callers requesting the same spec share a single construction and either
// all get the same client or all get the same error.
func (c *Client) BucketClient(ctx context.Context, spec BucketSpec) (*BucketClient, error) {
	v, err := c.cache.Get(spec)
	if err != nil {
		return nil, err
	}
	return v.(*BucketClient), nil
}

func (c *Client) buildBucketClient(ctx context.Context, spec BucketSpec) (*BucketClient, error) {
	region := spec.Region
	if region == "" {
		var err error
		region, err = c.lookupBucketRegion(ctx, spec.Bucket)
		if err != nil {
			return nil, err
		}
	}
	c.log.Debug().Str("bucket", spec.Bucket).Str("region", region).Msg("constructing S3 client")
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(awsAnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to load AWS config: %w", err)
	}
	return &BucketClient{
		inner:  s3.NewFromConfig(cfg),
		bucket: spec.Bucket,
		region: region,
		log:    c.log,
	}, nil
}

// awsAnonymousCredentials disables request signing, matching the archive's
// buckets, which are public-read.
type awsAnonymousCredentials struct{}

func (awsAnonymousCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{}, nil
}

func (c *Client) lookupBucketRegion(ctx context.Context, bucket string) (string, error) {
	u := fmt.Sprintf("https://%s.amazonaws.com", bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("objectstore: bucket region lookup for %s failed: %w", bucket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusNotFound {
		return "", fmt.Errorf("objectstore: bucket region lookup for %s returned status %d", bucket, resp.StatusCode)
	}
	region := resp.Header.Get("x-amz-bucket-region")
	if region == "" {
		return "", fmt.Errorf("objectstore: response for bucket %s lacked x-amz-bucket-region header", bucket)
	}
	return region, nil
}

// BucketClient lists and point-looks-up objects within a single bucket.
type BucketClient struct {
	inner  *s3.Client
	bucket string
	region string
	log    zerolog.Logger
}

// WithPrefix returns a PrefixedClient that rebases every path it's given
// (and every entry it returns) onto prefix within this bucket.
func (bc *BucketClient) WithPrefix(prefix paths.PureDirPath) *PrefixedClient {
	return &PrefixedClient{inner: bc, prefix: prefix}
}

// listEntryPage is one page of a delimiter-scoped ListObjectsV2 call.
type listEntryPage struct {
	Folders []Folder
	Objects []Object
}

func (bc *BucketClient) listEntryPages(ctx context.Context, keyPrefix string, yield func(listEntryPage) (bool, error)) error {
	paginator := s3.NewListObjectsV2Paginator(bc.inner, &s3.ListObjectsV2Input{
		Bucket:    &bc.bucket,
		Prefix:    &keyPrefix,
		Delimiter: awsString("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("objectstore: failed to list bucket %s with prefix %q: %w", bc.bucket, keyPrefix, err)
		}
		pg, err := bc.convertPage(page)
		if err != nil {
			return err
		}
		cont, err := yield(pg)
		if err != nil || !cont {
			return err
		}
	}
	return nil
}

func (bc *BucketClient) convertPage(page *s3.ListObjectsV2Output) (listEntryPage, error) {
	var out listEntryPage
	for _, obj := range page.Contents {
		if obj.Key == nil || obj.LastModified == nil || obj.ETag == nil || obj.Size == nil {
			bc.log.Warn().Str("bucket", bc.bucket).Msg("S3 object missing required field; skipping")
			continue
		}
		key := strings.TrimPrefix(*obj.Key, "/")
		p, err := paths.NewPurePath(key)
		if err != nil {
			bc.log.Warn().Str("bucket", bc.bucket).Str("key", key).Err(err).Msg("S3 key is not a normalized relative path; skipping")
			continue
		}
		out.Objects = append(out.Objects, Object{
			Key:         p,
			Modified:    *obj.LastModified,
			Size:        *obj.Size,
			ETag:        strings.Trim(*obj.ETag, `"`),
			DownloadURL: fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bc.bucket, key),
		})
	}
	for _, cp := range page.CommonPrefixes {
		if cp.Prefix == nil {
			continue
		}
		d, err := paths.NewPureDirPath(*cp.Prefix)
		if err != nil {
			bc.log.Warn().Str("bucket", bc.bucket).Str("prefix", *cp.Prefix).Err(err).Msg("S3 common prefix is not a normalized relative dir path; skipping")
			continue
		}
		out.Folders = append(out.Folders, Folder{KeyPrefix: d})
	}
	return out, nil
}

// FolderEntries streams every entry (object or folder) directly under
// keyPrefix.
func (bc *BucketClient) FolderEntries(ctx context.Context, keyPrefix paths.PureDirPath, yield func(Entry) (bool, error)) error {
	return bc.listEntryPages(ctx, keyPrefix.String(), func(pg listEntryPage) (bool, error) {
		for _, f := range pg.Folders {
			f := f
			cont, err := yield(Entry{Folder: &f})
			if err != nil || !cont {
				return cont, err
			}
		}
		for _, o := range pg.Objects {
			o := o
			cont, err := yield(Entry{Object: &o})
			if err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	})
}

// GetPath performs a point lookup for path, exploiting the fact that S3
// lists keys and common prefixes in lexicographic order: once the listing
// passes where path would sort, it cannot appear later, so the scan can stop
// without reading every page. Returns (Entry{}, false, nil) if nothing
// exists at path.
func (bc *BucketClient) GetPath(ctx context.Context, path paths.PurePath) (Entry, bool, error) {
	folderCutoff := path.String() + "/"
	var (
		found            Entry
		ok               bool
		surpassedObjects bool
		surpassedFolders bool
	)
	err := bc.listEntryPages(ctx, path.String(), func(pg listEntryPage) (bool, error) {
		if !surpassedObjects {
			for _, obj := range pg.Objects {
				switch strings.Compare(path.String(), obj.Key.String()) {
				case 0:
					o := obj
					found, ok = Entry{Object: &o}, true
					return false, nil
				case -1:
					surpassedObjects = true
				default:
				}
				if surpassedObjects {
					break
				}
			}
		}
		if !surpassedFolders {
			for _, f := range pg.Folders {
				switch strings.Compare(folderCutoff, f.KeyPrefix.String()) {
				case 0:
					fo := f
					found, ok = Entry{Folder: &fo}, true
					return false, nil
				case -1:
					surpassedFolders = true
				default:
				}
				if surpassedFolders {
					break
				}
			}
		}
		return !(surpassedObjects && surpassedFolders), nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return found, ok, nil
}

func awsString(s string) *string { return &s }
