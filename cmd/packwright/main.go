// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command packwright resolves and checks the mods of a Minecraft mod pack.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/packwright/packwright"
)

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Hidden() bool
	Run(*packwright.Ctx, []string) error
}

// commands lists the subcommands in the order usage shows them.
func commands() []command {
	return []command{
		&resolveCommand{},
		&checkCommand{},
		&loginCommand{},
		&versionCommand{},
	}
}

const usageHeader = `packwright picks the newest mod versions that fit a Minecraft version and
loader, pulls in their required dependencies, and checks an installed mods
directory for dependencies that are missing or out of range.

Usage: packwright <command> [flags] [args]

Commands:

`

const usageFooter = `
A typical session:

  packwright login -curseforge $KEY      remember a CurseForge API key
  packwright resolve                     pin the manifest's mods in packwright.lock
  packwright resolve -loader quilt iris  try one mod on another loader
  packwright check -failed               list only the broken dependencies

Environment:

  PACKWRIGHT_CACHE         cache and credentials directory (~/.cache/packwright)
  PACKWRIGHT_GAME_VERSION  game version, over the manifest's
  PACKWRIGHT_LOADER        mod loader, over the manifest's
  CURSEFORGE_API_KEY       CurseForge API key, over the stored one

Run "packwright help <command>" for the flags of a command.
`

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "packwright: cannot determine the working directory:", err)
		os.Exit(1)
	}
	c := &Config{
		WorkingDir: wd,
		Args:       os.Args,
		Env:        os.Environ(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	os.Exit(c.Run())
}

// A Config is everything a packwright invocation reads from its process.
type Config struct {
	WorkingDir     string
	Args           []string // including the program name
	Env            []string // key=value
	Stdout, Stderr io.Writer
}

// Run executes the command named by c.Args and returns the exit code.
func (c *Config) Run() int {
	name, help, ok := parseArgs(c.Args)
	if !ok {
		c.usage()
		return 1
	}

	cmd := findCommand(name)
	if cmd == nil {
		fmt.Fprintf(c.Stderr, "packwright: %s: no such command\n", name)
		c.usage()
		return 1
	}

	fs, verbose := newFlagSet(cmd, c.Stderr)
	if help {
		fs.Usage()
		return 1
	}
	// flag reports parse errors and -h itself.
	if err := fs.Parse(c.Args[2:]); err != nil {
		return 1
	}

	ctx := c.newCtx(*verbose)
	if err := cmd.Run(ctx, fs.Args()); err != nil {
		ctx.Err.Println(err)
		return 1
	}
	return 0
}

// newCtx builds the invocation context, taking the cache directory and the
// overrides from the environment.
func (c *Config) newCtx(verbose bool) *packwright.Ctx {
	env := func(key string) string { return getEnv(c.Env, key) }
	return &packwright.Ctx{
		WorkingDir:    c.WorkingDir,
		CacheDir:      packwright.DefaultCacheDir(env),
		Out:           log.New(c.Stdout, "", 0),
		Err:           log.New(c.Stderr, "", 0),
		Verbose:       verbose,
		GameVersion:   env("PACKWRIGHT_GAME_VERSION"),
		Loader:        env("PACKWRIGHT_LOADER"),
		CurseForgeKey: env("CURSEFORGE_API_KEY"),
	}
}

func (c *Config) usage() {
	w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, usageHeader)
	for _, cmd := range commands() {
		if !cmd.Hidden() {
			fmt.Fprintf(w, "  %s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
	}
	w.Flush()
	fmt.Fprint(c.Stderr, usageFooter)
}

func findCommand(name string) command {
	for _, cmd := range commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// newFlagSet returns the flags of cmd plus the shared -v, with usage that
// prints the command's help.
func newFlagSet(cmd command, out io.Writer) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(out)
	verbose := fs.Bool("v", false, "log each resolution step and registry call counts")
	cmd.Register(fs)
	fs.Usage = func() { commandHelp(out, cmd, fs) }
	return fs, verbose
}

func commandHelp(out io.Writer, cmd command, fs *flag.FlagSet) {
	fmt.Fprintf(out, "Usage: packwright %s %s\n\n%s\n\nFlags:\n\n", cmd.Name(), cmd.Args(), strings.TrimSpace(cmd.LongHelp()))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fs.VisitAll(func(f *flag.Flag) {
		def := f.DefValue
		if def == "" {
			def = "<none>"
		}
		fmt.Fprintf(w, "  -%s\t%s (default: %s)\n", f.Name, f.Usage, def)
	})
	w.Flush()
}

// parseArgs picks the command name out of args and reports whether its help
// was asked for. ok is false when only the general usage applies.
func parseArgs(args []string) (name string, help, ok bool) {
	if len(args) < 2 {
		return "", false, false
	}
	name = args[1]
	if !isHelp(name) {
		return name, false, true
	}
	if len(args) == 2 {
		return name, false, false
	}
	return args[2], true, true
}

func isHelp(arg string) bool {
	switch strings.ToLower(arg) {
	case "help", "-h", "-help", "--help":
		return true
	}
	return false
}

// getEnv returns the value of the last entry for key in env.
func getEnv(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if env[i] == key {
			return ""
		}
		if strings.HasPrefix(env[i], key+"=") {
			return env[i][len(key)+1:]
		}
	}
	return ""
}
