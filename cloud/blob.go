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

package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned when a requested project does not exist.
var ErrNotFound = errors.New("cloud: not found")

// maxRetries is the number of times a failed write is retried.
const maxRetries = 4

func isNotFound(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}

// readBlob reads the given blob from the given bucket. It returns
// ErrNotFound if the blob does not exist.
func readBlob(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
	var b bytes.Buffer
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	_, err = io.Copy(&b, r)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	return b.Bytes(), nil
}

// writeBlob writes the given data to the given bucket, retrying with
// exponential backoff if the write fails.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, data []byte, log logrus.FieldLogger) error {
	return backoff.RetryNotify(
		func() error {
			return writeBlobOnce(ctx, bucket, key, data)
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx),
		func(err error, d time.Duration) {
			log.WithFields(logrus.Fields{"key": key, "delay": d}).Warnf("%v: retrying", err)
		},
	)
}

func writeBlobOnce(ctx context.Context, bucket *blob.Bucket, key string, data []byte) error {
	b := bytes.NewBuffer(data)
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	_, err = io.Copy(w, b)
	if err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

// deleteBlob deletes the given blob. Deleting a blob that does not
// exist is not an error.
func deleteBlob(ctx context.Context, bucket *blob.Bucket, key string) error {
	if err := bucket.Delete(ctx, key); err != nil && !isNotFound(err) {
		return fmt.Errorf("cloud: deleting blob %s: %v", key, err)
	}
	return nil
}

// listKeys returns the keys of all blobs whose keys start with prefix.
func listKeys(ctx context.Context, bucket *blob.Bucket, prefix string) ([]string, error) {
	iter := bucket.List(&blob.ListOptions{Prefix: prefix})
	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cloud: listing blobs with prefix %s: %v", prefix, err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}
