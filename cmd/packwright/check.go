// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/packwright/packwright"
	"github.com/packwright/packwright/check"
	"github.com/packwright/packwright/internal/archive"
	"github.com/pkg/errors"
)

const checkShortHelp = `Check installed mods against each other`
const checkLongHelp = `
Read the metadata of every jar in the mods directory and verify that each
mod's mandatory dependencies on other mods are present at an acceptable
version. Mods bundled inside other jars count as present.

Requirements on the game, the loader and Java are not checked against
anything; they are summarized instead, with the version range that would
satisfy every mod.

The directory defaults to the manifest's mods-dir, or ./mods. The command
fails if any dependency is missing or incompatible.
`

func (cmd *checkCommand) Name() string      { return "check" }
func (cmd *checkCommand) Args() string      { return "[dir]" }
func (cmd *checkCommand) ShortHelp() string { return checkShortHelp }
func (cmd *checkCommand) LongHelp() string  { return checkLongHelp }
func (cmd *checkCommand) Hidden() bool      { return false }

func (cmd *checkCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.failed, "failed", false, "only print dependencies that are missing or incompatible")
	fs.BoolVar(&cmd.yaml, "yaml", false, "print the report as YAML")
}

type checkCommand struct {
	failed bool
	yaml   bool
}

func (cmd *checkCommand) Run(ctx *packwright.Ctx, args []string) error {
	if len(args) > 1 {
		return errors.Errorf("too many args (%d)", len(args))
	}

	dir, err := cmd.modsDir(ctx, args)
	if err != nil {
		return err
	}
	if _, err := packwright.IsDir(dir); err != nil {
		return errors.Wrap(err, "mods directory")
	}

	records, err := archive.ExtractAll(dir, ctx.Err)
	if err != nil {
		return err
	}

	c := check.New(records)
	rep := c.Check()
	virt := c.VirtualSummary()
	missing := c.Missing()

	if cmd.yaml {
		if err := writeYAML(ctx.Out.Writer(), newCheckReport(dir, records, rep, virt, missing, cmd.failed)); err != nil {
			return err
		}
	} else {
		cmd.print(ctx, dir, records, rep, virt, missing)
	}

	if !rep.Satisfied {
		return errors.Errorf("dependencies of %d mods in %s are not satisfied", countRequesters(rep), dir)
	}
	return nil
}

func (cmd *checkCommand) modsDir(ctx *packwright.Ctx, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	m, err := ctx.LoadManifest()
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return "", err
		}
		m = nil
	}
	return ctx.ModsDir(m), nil
}

func (cmd *checkCommand) print(ctx *packwright.Ctx, dir string, records []check.Record, rep check.Report, virt []check.VirtualRequirement, missing []string) {
	nested := 0
	for _, r := range records {
		if r.Nested {
			nested++
		}
	}
	ctx.Out.Printf("Found %d mods in %s (%d bundled)\n", len(records), dir, nested)

	ctx.Out.Println()
	ctx.Out.Println("Dependencies:")
	for _, f := range rep.Findings {
		if cmd.failed && !f.Kind.Failed() {
			continue
		}
		ctx.Out.Println(findingMark(f.Kind) + f.String())
	}

	if len(virt) > 0 {
		ctx.Out.Println()
		ctx.Out.Println("Requirements:")
	}
	for _, vr := range virt {
		ctx.Out.Println()
		ctx.Out.Printf("%s:\n", strings.ToUpper(vr.Target))
		if vr.Conflict {
			ctx.Out.Println("  ❌ NO COMPATIBLE VERSION (conflicting requirements)")
		} else {
			ctx.Out.Printf("  Required version: %s\n", vr.Combined)
		}
		if vr.Err != nil {
			ctx.Out.Printf("  ⚠️  Ignored in the intersection: %s\n", vr.Err)
		}
		ctx.Out.Println("  Individual requirements:")
		for _, g := range vr.Groups {
			ctx.Out.Printf("    %s - %s\n", g.Range, g.Requesters())
		}
		if vr.Conflict {
			ctx.Out.Println("  ⚠️  CONFLICT: No version satisfies all requirements!")
		} else if len(vr.Groups) > 1 {
			ctx.Out.Println("  ℹ️  Multiple requirements - using intersection")
		}
	}

	if len(missing) > 0 {
		ctx.Out.Println()
		ctx.Out.Printf("Missing: %s\n", strings.Join(missing, ", "))
	}
}

func findingMark(k check.FindingKind) string {
	switch k {
	case check.Pass:
		return "✓ "
	case check.Unverifiable:
		return "⚠️  "
	}
	return "❌ "
}

// countRequesters counts the distinct records with a failed finding.
func countRequesters(rep check.Report) int {
	seen := make(map[string]bool)
	for _, f := range rep.Findings {
		if f.Kind.Failed() {
			seen[f.RequesterID] = true
		}
	}
	return len(seen)
}
