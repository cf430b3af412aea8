// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
)

// CacheLockName is the file locked while a process owns the cache directory.
const CacheLockName = "cache.lock"

// CouldNotLockCacheError describes a failure to take the cache directory
// lock, either because another process holds it or because the lock file
// could not be created.
type CouldNotLockCacheError struct {
	Path string
	Err  error
}

func (e CouldNotLockCacheError) Error() string {
	return e.Err.Error()
}

// CacheLock is an exclusive advisory lock on a cache directory.
type CacheLock struct {
	fl *flock.Flock
}

// LockCache takes the lock on dir, creating the directory if needed. It does
// not wait: if another process holds the lock, a CouldNotLockCacheError is
// returned. A lock left by a crashed process is released by the OS, so no
// manual cleanup is ever required.
func LockCache(dir string) (*CacheLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", dir)
	}

	path := filepath.Join(dir, CacheLockName)
	fl := flock.NewFlock(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, CouldNotLockCacheError{
			Path: path,
			Err:  errors.Wrap(err, "err on attempting to lock the cache"),
		}
	}
	if !ok {
		return nil, CouldNotLockCacheError{
			Path: path,
			Err:  errors.Errorf("cache %s is locked by another packwright process", dir),
		}
	}
	return &CacheLock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *CacheLock) Path() string {
	return l.fl.Path()
}

// Unlock releases the lock. It is safe to call more than once.
func (l *CacheLock) Unlock() error {
	if !l.fl.Locked() {
		return nil
	}
	return errors.Wrap(l.fl.Unlock(), "failed to release the cache lock")
}
