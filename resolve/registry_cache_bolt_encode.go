// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// cacheEncode serializes a registry value for storage.
func cacheEncode(val interface{}) ([]byte, error) {
	data, err := json.Marshal(val)
	return data, errors.Wrap(err, "failed to encode cache value")
}

// cacheDecode is the inverse of cacheEncode. data must not be retained past
// the enclosing transaction, and json.Unmarshal copies what it keeps.
func cacheDecode(data []byte, val interface{}) error {
	return errors.Wrap(json.Unmarshal(data, val), "failed to decode cache value")
}

// cacheTimestampedKey returns a prefixed key with a trailing timestamp.
func cacheTimestampedKey(pre string, t time.Time) []byte {
	b := make([]byte, len(pre)+8)
	copy(b, pre)
	binary.BigEndian.PutUint64(b[len(pre):], uint64(t.Unix()))
	return b
}

// cachePrefixDelete deletes every key in b that starts with pre.
func cachePrefixDelete(b *bolt.Bucket, pre string) error {
	p := []byte(pre)
	var doomed [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		doomed = append(doomed, append([]byte(nil), k...))
	}
	for _, k := range doomed {
		if err := b.Delete(k); err != nil {
			return errors.Wrapf(err, "failed to delete key: %s", k)
		}
	}
	return nil
}

// cacheFindLatestValid prefix scans for the latest value which is timestamped
// >= epoch, or returns nil if none exists.
func cacheFindLatestValid(b *bolt.Bucket, pre string, epoch int64) []byte {
	c := b.Cursor()
	p := []byte(pre)
	var latest, val []byte
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		latest, val = k, v
	}
	if latest == nil {
		return nil
	}
	ts := bytes.TrimPrefix(latest, p)
	if len(ts) != 8 {
		return nil
	}
	if int64(binary.BigEndian.Uint64(ts)) < epoch {
		return nil
	}
	return val
}
