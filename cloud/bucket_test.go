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
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestOpenBucket_file(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "projects")
	b, err := OpenBucket(ctx, "file://"+dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if err := writeBlob(ctx, b, "x.json", []byte(`{"a":1}`), logrus.StandardLogger()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "x.json")); err != nil {
		t.Errorf("blob not written to directory: %v", err)
	}
	data, err := readBlob(ctx, b, "x.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("have %s", data)
	}
	if _, err := readBlob(ctx, b, "y.json"); err != ErrNotFound {
		t.Errorf("have %v, want ErrNotFound", err)
	}
	if err := deleteBlob(ctx, b, "y.json"); err != nil {
		t.Errorf("deleting a missing blob: %v", err)
	}
}

func TestOpenBucket_errors(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"ftp://host/x", "://bad", "projects"} {
		if _, err := OpenBucket(ctx, name); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestKeyPrefix(t *testing.T) {
	for _, test := range []struct {
		url, host, prefix string
	}{
		{url: "s3://b/dir", host: "b", prefix: "dir/"},
		{url: "s3://b/dir/sub/", host: "b", prefix: "dir/sub/"},
		{url: "gs://b", host: "b", prefix: ""},
		{url: "gs://b/", host: "b", prefix: ""},
		{url: "gs://b//projects//", host: "b", prefix: "projects/"},
	} {
		u, err := url.Parse(test.url)
		if err != nil {
			t.Fatal(err)
		}
		if u.Hostname() != test.host {
			t.Errorf("%s: host: have %q, want %q", test.url, u.Hostname(), test.host)
		}
		if have := keyPrefix(u); have != test.prefix {
			t.Errorf("%s: prefix: have %q, want %q", test.url, have, test.prefix)
		}
	}
}

func TestOpenStore_mem(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, "mem://", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if list, err := s.List(ctx); err != nil || len(list) != 0 {
		t.Errorf("have %v, %v", list, err)
	}
}
