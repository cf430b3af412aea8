// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registryhttp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sdboyer/constext"
)

type timeCount struct {
	count int
	start time.Time
}

type durCount struct {
	count int
	dur   time.Duration
}

// callManager tracks in-flight registry calls and ties each of them to a
// lifetime context that Release cancels.
type callManager struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.Mutex // Guards all maps.
	running    map[callInfo]timeCount
	ran        map[string]durCount
}

func newCallManager(ctx context.Context) *callManager {
	ctx, cf := context.WithCancel(ctx)
	return &callManager{
		ctx:        ctx,
		cancelFunc: cf,
		running:    make(map[callInfo]timeCount),
		ran:        make(map[string]durCount),
	}
}

// setUpCall registers a call, combines the caller's context with the lifetime
// context, and returns a func to be deferred that cleans it all up.
func (cm *callManager) setUpCall(inctx context.Context, name, kind string) (cctx context.Context, doneFunc func(), err error) {
	ci := callInfo{
		name: name,
		kind: kind,
	}

	octx, err := cm.run(ci)
	if err != nil {
		return nil, nil, err
	}

	cctx, cancelFunc := constext.Cons(inctx, octx)
	return cctx, func() {
		cm.done(ci)
		cancelFunc() // ensure constext cancel goroutine is cleaned up
	}, nil
}

func (cm *callManager) run(ci callInfo) (context.Context, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.ctx.Err() != nil {
		// Already released; error out.
		return nil, cm.ctx.Err()
	}

	if existing, has := cm.running[ci]; has {
		existing.count++
		cm.running[ci] = existing
	} else {
		cm.running[ci] = timeCount{
			count: 1,
			start: time.Now(),
		}
	}
	return cm.ctx, nil
}

func (cm *callManager) done(ci callInfo) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	existing, has := cm.running[ci]
	if !has {
		panic("registryhttp: tried to complete a call that had not registered via run()")
	}

	if existing.count > 1 {
		// More than one pending; don't stop the clock yet.
		existing.count--
		cm.running[ci] = existing
		return
	}

	durCnt := cm.ran[ci.kind]
	durCnt.count++
	durCnt.dur += time.Since(existing.start)
	cm.ran[ci.kind] = durCnt
	delete(cm.running, ci)
}

func (cm *callManager) release() {
	cm.cancelFunc()
}

// CallStats summarizes the completed calls of one kind.
type CallStats struct {
	Kind  string
	Count int
	Total time.Duration
}

func (cm *callManager) stats() []CallStats {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	out := make([]CallStats, 0, len(cm.ran))
	for kind, dc := range cm.ran {
		out = append(out, CallStats{Kind: kind, Count: dc.count, Total: dc.dur})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// callInfo provides metadata about an ongoing call.
type callInfo struct {
	name string
	kind string
}
