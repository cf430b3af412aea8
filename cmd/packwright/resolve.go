// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/packwright/packwright"
	"github.com/packwright/packwright/internal/curseforge"
	"github.com/packwright/packwright/internal/feedback"
	"github.com/packwright/packwright/internal/modrinth"
	"github.com/packwright/packwright/internal/registryhttp"
	"github.com/packwright/packwright/resolve"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const resolveShortHelp = `Resolve mods and their dependencies`
const resolveLongHelp = `
Resolve the latest compatible version of each requested mod and, transitively,
of every required dependency. Mods are named by registry slug or project id.

With no arguments the mods listed in packwright.toml are resolved. Arguments
replace the manifest's list; the manifest is optional when they are given.

The platform comes from the manifest, then $PACKWRIGHT_GAME_VERSION and
$PACKWRIGHT_LOADER, then the flags below, each overriding the last.

Mods the registry does not know are looked up on CurseForge when an API key
is stored with "packwright login -curseforge" or set in $CURSEFORGE_API_KEY.

The result is written to packwright.lock. The command fails if any requested
mod could not be resolved.
`

func (cmd *resolveCommand) Name() string      { return "resolve" }
func (cmd *resolveCommand) Args() string      { return "[mod...]" }
func (cmd *resolveCommand) ShortHelp() string { return resolveShortHelp }
func (cmd *resolveCommand) LongHelp() string  { return resolveLongHelp }
func (cmd *resolveCommand) Hidden() bool      { return false }

func (cmd *resolveCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.gameVersion, "game-version", "", "target game version")
	fs.StringVar(&cmd.loader, "loader", "", "target mod loader")
	fs.StringVar(&cmd.tier, "tier", "", "least stable release tier accepted: alpha, beta or release")
	fs.BoolVar(&cmd.noCache, "no-cache", false, "query the registry directly, bypassing the local cache")
	fs.DurationVar(&cmd.cacheAge, "cache-age", 24*time.Hour, "maximum age of cached registry responses")
	fs.IntVar(&cmd.concurrency, "j", resolve.DefaultConcurrency, "maximum concurrent registry requests per step")
	fs.BoolVar(&cmd.dryRun, "n", false, "dry run, don't write packwright.lock")
	fs.BoolVar(&cmd.yaml, "yaml", false, "print the result as YAML")
}

type resolveCommand struct {
	gameVersion string
	loader      string
	tier        string
	noCache     bool
	cacheAge    time.Duration
	concurrency int
	dryRun      bool
	yaml        bool
}

func (cmd *resolveCommand) Run(ctx *packwright.Ctx, args []string) error {
	m, err := cmd.manifest(ctx, args)
	if err != nil {
		return err
	}
	if len(m.Mods) == 0 {
		return errors.New("no mods to resolve")
	}

	req := resolve.Request{
		Identifiers: m.Mods,
		Platform:    resolve.Platform{GameVersion: m.GameVersion, Loader: m.Loader},
		MinTier:     m.MinTier,
	}

	regs, release, err := cmd.registries(ctx, req.Platform)
	if err != nil {
		return err
	}
	defer release()

	e := resolve.NewEngine(regs[0], engineLogger(ctx))
	e.SetFallbacks(regs[1:]...)
	e.SetConcurrency(cmd.concurrency)

	res, err := e.Resolve(context.Background(), req)
	if err != nil {
		return errors.Wrap(err, "resolution failed")
	}

	if cmd.yaml {
		if err := writeYAML(ctx.Out.Writer(), newResolveReport(req, res)); err != nil {
			return err
		}
	} else {
		printResolution(ctx, res)
	}

	if !cmd.dryRun {
		if err := writeLock(ctx, m, packwright.NewLock(m, res)); err != nil {
			return err
		}
	}

	if len(res.Unresolved) > 0 {
		return errors.Errorf("%d of %d mods could not be resolved: %s",
			len(res.Unresolved), len(m.Mods), strings.Join(res.Unresolved, ", "))
	}
	return nil
}

// manifest loads the project manifest and applies the command line on top.
// The manifest may be absent only when mods are named on the command line.
func (cmd *resolveCommand) manifest(ctx *packwright.Ctx, args []string) (*packwright.Manifest, error) {
	m, err := ctx.LoadManifest()
	if err != nil {
		if len(args) == 0 || !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		m = &packwright.Manifest{GameVersion: ctx.GameVersion, Loader: ctx.Loader}
	}

	if len(args) > 0 {
		m.Mods = args
	}
	if cmd.gameVersion != "" {
		m.GameVersion = cmd.gameVersion
	}
	if cmd.loader != "" {
		m.Loader = strings.ToLower(cmd.loader)
	}
	if cmd.tier != "" {
		m.MinTier = strings.ToLower(cmd.tier)
	}
	return m, nil
}

// registryClient is a remote registry with call accounting.
type registryClient interface {
	resolve.Registry
	Release()
	Stats() []registryhttp.CallStats
}

type namedClient struct {
	name string
	registryClient
}

// registries builds the registry stack: Modrinth first, then CurseForge when
// a key is available, each fronted by the persistent cache unless disabled.
// The returned func releases everything.
func (cmd *resolveCommand) registries(ctx *packwright.Ctx, p resolve.Platform) ([]resolve.Registry, func(), error) {
	rc, err := ctx.LoadRegistryConfig()
	if err != nil {
		return nil, nil, err
	}
	mr, err := modrinth.NewClient(rc.URL(), rc.Token(), nil)
	if err != nil {
		return nil, nil, err
	}
	clients := []namedClient{{"modrinth", mr}}

	key := rc.CurseForgeKey()
	if ctx.CurseForgeKey != "" {
		key = ctx.CurseForgeKey
	}
	if key != "" {
		cf, err := curseforge.NewClient(rc.CurseForgeURL(), key, nil)
		if err != nil {
			mr.Release()
			return nil, nil, err
		}
		cf.SetPlatform(p)
		clients = append(clients, namedClient{"curseforge", cf})
	}

	releaseClients := func() {
		for _, c := range clients {
			c.Release()
			if ctx.Verbose {
				for _, s := range c.Stats() {
					ctx.Err.Printf("%s %s: %d calls in %v\n", c.name, s.Kind, s.Count, s.Total)
				}
			}
		}
	}

	regs := make([]resolve.Registry, len(clients))
	if cmd.noCache {
		for k, c := range clients {
			regs[k] = c
		}
		return regs, releaseClients, nil
	}

	lk, err := packwright.LockCache(ctx.CacheDir)
	if err != nil {
		releaseClients()
		return nil, nil, err
	}

	epoch := time.Now().Add(-cmd.cacheAge).Unix()
	bc, err := resolve.NewBoltCache(ctx.CacheDir, epoch, ctx.Err, clients[0])
	if err != nil {
		lk.Unlock()
		releaseClients()
		return nil, nil, err
	}
	regs[0] = bc
	for k, c := range clients[1:] {
		// CurseForge filters by platform on the server, so its answers are
		// kept apart per platform.
		regs[k+1] = bc.Sub(c.name+"@"+p.GameVersion+"+"+strings.ToLower(p.Loader), c)
	}

	return regs, func() {
		releaseClients()
		if err := bc.Close(); err != nil {
			ctx.Err.Printf("failed to close the registry cache: %s\n", err)
		}
		lk.Unlock()
	}, nil
}

// writeLock replaces the lock and reports how it moved from the previous one.
// An unreadable previous lock is overwritten.
func writeLock(ctx *packwright.Ctx, m *packwright.Manifest, l *packwright.Lock) error {
	old, err := ctx.LoadLock()
	if err != nil {
		ctx.Err.Printf("warning: replacing unreadable lock: %s\n", err)
		old = nil
	}
	if err := ctx.WriteLock(l); err != nil {
		return err
	}
	if old == nil {
		ctx.Err.Printf("Wrote %s with %d mods\n", packwright.LockName, len(l.Mods))
		return nil
	}

	changes := feedback.DiffLocks(old, l)
	if len(changes) == 0 && old.Matches(m) {
		ctx.Err.Printf("%s is up to date\n", packwright.LockName)
		return nil
	}
	if !old.Matches(m) {
		ctx.Err.Printf("Manifest changed since %s was written\n", packwright.LockName)
	}
	feedback.LogChanges(ctx.Err, changes)
	return nil
}

func engineLogger(ctx *packwright.Ctx) *logrus.Logger {
	l := logrus.New()
	l.Out = ctx.Err.Writer()
	l.Level = logrus.WarnLevel
	if ctx.Verbose {
		l.Level = logrus.DebugLevel
	}
	return l
}

func printResolution(ctx *packwright.Ctx, res resolve.Result) {
	w := tabwriter.NewWriter(ctx.Out.Writer(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tVERSION\tTIER\tFILE")
	for _, v := range res.Resolved {
		f, _ := v.PrimaryFile()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ProjectID, v.VersionNumber, v.Tier, f.Filename)
	}
	w.Flush()
	for _, id := range res.Unresolved {
		ctx.Err.Printf("warning: no compatible version of %s\n", id)
	}
}
