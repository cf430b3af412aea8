// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// CacheFile is the name of the registry cache database inside the cache
// directory.
const CacheFile = "registry.db"

// BoltCache is a Registry that answers from a persistent BoltDB file when it
// can, and asks upstream otherwise. Stored values are timestamped, and the
// epoch limits the age of values returned. Cache failures are logged and
// otherwise ignored; upstream errors are returned as is.
//
// Layout:
//
//	Bucket: "ident:<slug or id>"
//	Keys:   "project:<timestamp>"
//	Values: JSON Project
//
//	Bucket: "project:<id>"
//	Keys:   "versions:<timestamp>"
//	Values: JSON []VersionRecord
//
//	Bucket: "version:<id>"
//	Keys:   "record:<timestamp>"
//	Values: JSON VersionRecord
//
// A cache returned by Sub prefixes every bucket name with its namespace.
//
// Methods are safe for concurrent use with each other, excluding Close.
type BoltCache struct {
	upstream Registry
	db       *bolt.DB
	ns       string      // bucket name prefix
	owner    bool        // whether Close closes db
	epoch    int64       // getters will not return values older than this unix timestamp
	logger   *log.Logger // info logging
}

var _ Registry = &BoltCache{}

// NewBoltCache opens (creating if needed) the cache database under dir and
// returns a BoltCache in front of upstream.
func NewBoltCache(dir string, epoch int64, logger *log.Logger, upstream Registry) (*BoltCache, error) {
	if fi, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModeDir|os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "failed to create registry cache directory: %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to check registry cache directory: %s", dir)
	} else if !fi.IsDir() {
		return nil, errors.Errorf("registry cache path is not a directory: %s", dir)
	}

	db, err := bolt.Open(filepath.Join(dir, CacheFile), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open registry cache in %s", dir)
	}
	return &BoltCache{
		upstream: upstream,
		db:       db,
		owner:    true,
		epoch:    epoch,
		logger:   logger,
	}, nil
}

// Sub returns a cache in front of upstream that shares c's database under the
// namespace ns, so that registries with overlapping ids do not collide. It is
// usable until c is closed.
func (c *BoltCache) Sub(ns string, upstream Registry) *BoltCache {
	return &BoltCache{
		upstream: upstream,
		db:       c.db,
		ns:       c.ns + ns + "/",
		epoch:    c.epoch,
		logger:   c.logger,
	}
}

// Close releases all database resources. Closing a cache returned by Sub does
// nothing.
func (c *BoltCache) Close() error {
	if !c.owner {
		return nil
	}
	return errors.Wrapf(c.db.Close(), "error closing Bolt database %q", c.db.String())
}

// ProjectsByIdentifier returns cached projects for the ids it knows and asks
// upstream, in one call, for the rest. Ids that upstream does not know are
// not remembered.
func (c *BoltCache) ProjectsByIdentifier(ctx context.Context, ids []string) ([]Project, error) {
	var (
		out   []Project
		miss  []string
		found = make(map[string]bool)
	)
	for _, id := range ids {
		p, ok := c.getProject(id)
		if !ok {
			miss = append(miss, id)
			continue
		}
		if !found[p.ID] {
			found[p.ID] = true
			out = append(out, p)
		}
	}
	if len(miss) == 0 {
		return out, nil
	}

	fetched, err := c.upstream.ProjectsByIdentifier(ctx, miss)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		c.setProject(p)
		if !found[p.ID] {
			found[p.ID] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// ListProjectVersions returns the cached version list of a project, or
// fetches and stores it.
func (c *BoltCache) ListProjectVersions(ctx context.Context, projectID string) ([]VersionRecord, error) {
	if vs, ok := c.getVersionList(projectID); ok {
		return vs, nil
	}

	vs, err := c.upstream.ListProjectVersions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.setVersionList(projectID, vs)
	return vs, nil
}

// VersionsByID returns cached versions for the ids it knows and asks
// upstream, in one call, for the rest.
func (c *BoltCache) VersionsByID(ctx context.Context, ids []string) ([]VersionRecord, error) {
	var (
		out  []VersionRecord
		miss []string
	)
	for _, id := range ids {
		if v, ok := c.getVersion(id); ok {
			out = append(out, v)
		} else {
			miss = append(miss, id)
		}
	}
	if len(miss) == 0 {
		return out, nil
	}

	fetched, err := c.upstream.VersionsByID(ctx, miss)
	if err != nil {
		return nil, err
	}
	for _, v := range fetched {
		c.setVersion(v)
	}
	return append(out, fetched...), nil
}

func (c *BoltCache) setProject(p Project) {
	keys := []string{p.ID}
	if p.Slug != "" && p.Slug != p.ID {
		keys = append(keys, p.Slug)
	}
	for _, k := range keys {
		c.put("ident:"+k, "project:", p)
	}
}

func (c *BoltCache) getProject(id string) (p Project, ok bool) {
	ok = c.get("ident:"+id, "project:", &p)
	return p, ok
}

func (c *BoltCache) setVersionList(projectID string, vs []VersionRecord) {
	c.put("project:"+projectID, "versions:", vs)
	for _, v := range vs {
		c.setVersion(v)
	}
}

func (c *BoltCache) getVersionList(projectID string) (vs []VersionRecord, ok bool) {
	ok = c.get("project:"+projectID, "versions:", &vs)
	return vs, ok
}

func (c *BoltCache) setVersion(v VersionRecord) {
	c.put("version:"+v.ID, "record:", v)
}

func (c *BoltCache) getVersion(id string) (v VersionRecord, ok bool) {
	ok = c.get("version:"+id, "record:", &v)
	return v, ok
}

// put replaces every value under pre in the named bucket with val, stamped
// with the current time.
func (c *BoltCache) put(bucket, pre string, val interface{}) {
	err := c.updateBucket(bucket, func(b *bolt.Bucket) error {
		data, err := cacheEncode(val)
		if err != nil {
			return err
		}
		if err := cachePrefixDelete(b, pre); err != nil {
			return err
		}
		return b.Put(cacheTimestampedKey(pre, time.Now()), data)
	})
	if err != nil {
		c.logger.Println(errors.Wrapf(err, "failed to cache %s%s", bucket, pre))
	}
}

// get decodes the newest value under pre in the named bucket into val,
// reporting false if there is none younger than the epoch.
func (c *BoltCache) get(bucket, pre string, val interface{}) bool {
	var ok bool
	err := c.viewBucket(bucket, func(b *bolt.Bucket) error {
		data := cacheFindLatestValid(b, pre, c.epoch)
		if data == nil {
			return nil
		}
		if err := cacheDecode(data, val); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		c.logger.Println(errors.Wrapf(err, "failed to read cached %s%s", bucket, pre))
		return false
	}
	return ok
}

// viewBucket executes view with the named bucket, if it exists.
func (c *BoltCache) viewBucket(name string, view func(b *bolt.Bucket) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c.ns + name))
		if b == nil {
			return nil
		}
		return view(b)
	})
}

// updateBucket executes update with the named bucket, creating it first if necessary.
func (c *BoltCache) updateBucket(name string, update func(b *bolt.Bucket) error) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(c.ns + name))
		if err != nil {
			return errors.Wrapf(err, "failed to create bucket: %s%s", c.ns, name)
		}
		return update(b)
	})
}
