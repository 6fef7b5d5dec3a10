/*
Copyright © 2026 the JetWater authors.
This file is part of JetWater.

JetWater is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

JetWater is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with JetWater.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cloud persists JetWater projects in blob storage.
package cloud

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"
)

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// For cloud providers, any path after the bucket name is used as a
// key prefix within the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (the name is a directory, which is created if necessary), "mem" for an
// in-memory bucket (e.g., for testing), "gs" for Google Cloud Storage,
// and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("cloud.OpenBucket: %v", err)
	}
	var b *blob.Bucket
	switch u.Scheme {
	case "file":
		dir := u.Host + u.Path
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cloud.OpenBucket: %v", err)
		}
		return fileblob.OpenBucket(dir, nil)
	case "mem":
		return memblob.OpenBucket(nil), nil
	case "gs":
		b, err = gsBucket(ctx, u.Hostname())
	case "s3":
		b, err = s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("cloud.OpenBucket: invalid provider %s", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("cloud.OpenBucket: %v", err)
	}
	if prefix := keyPrefix(u); prefix != "" {
		b = blob.PrefixedBucket(b, prefix)
	}
	return b, nil
}

// keyPrefix returns the key prefix given by the path of a cloud bucket
// URL, ending in a slash, or "" if the URL has no path.
func keyPrefix(u *url.URL) string {
	prefix := strings.Trim(u.Path, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, c, name, nil)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name, nil)
}
