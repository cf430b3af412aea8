// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/packwright/packwright"
	"github.com/packwright/packwright/internal/curseforge"
	"github.com/packwright/packwright/internal/modrinth"
	"github.com/pkg/errors"
)

const loginShortHelp = `Save registry credentials`
const loginLongHelp = `
Save the registry URL and token used by resolve. The configuration is kept in
the cache directory ($PACKWRIGHT_CACHE, or ~/.cache/packwright).

The URL defaults to the public Modrinth API. A token is only needed for
registries or projects that require authentication; pass an empty -token to
clear a stored one.

With -curseforge, mods Modrinth does not know are also looked up on
CurseForge, which requires an API key. Stored CurseForge settings are kept
when neither -curseforge nor -curseforge-url is given.
`

func (cmd *loginCommand) Name() string      { return "login" }
func (cmd *loginCommand) Args() string      { return "[url]" }
func (cmd *loginCommand) ShortHelp() string { return loginShortHelp }
func (cmd *loginCommand) LongHelp() string  { return loginLongHelp }
func (cmd *loginCommand) Hidden() bool      { return false }

func (cmd *loginCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.token, "token", "", "registry token")
	fs.StringVar(&cmd.cfKey, "curseforge", "", "CurseForge API key")
	fs.StringVar(&cmd.cfURL, "curseforge-url", "", "CurseForge API URL")
}

type loginCommand struct {
	token string
	cfKey string
	cfURL string
}

func (cmd *loginCommand) Run(ctx *packwright.Ctx, args []string) error {
	if len(args) > 1 {
		return errors.Errorf("too many args (%d)", len(args))
	}

	url := ""
	if len(args) == 1 {
		url = args[0]
		// Validate the URL the same way resolve will use it.
		if _, err := modrinth.NewClient(url, "", nil); err != nil {
			return err
		}
	}

	rc := packwright.NewRegistryConfig(url, cmd.token)
	if cmd.cfKey != "" || cmd.cfURL != "" {
		if _, err := curseforge.NewClient(cmd.cfURL, cmd.cfKey, nil); err != nil {
			return err
		}
		rc.SetCurseForge(cmd.cfURL, cmd.cfKey)
	} else if old, err := ctx.LoadRegistryConfig(); err == nil {
		rc.SetCurseForge(old.CurseForgeURL(), old.CurseForgeKey())
	}
	if err := ctx.SaveRegistryConfig(rc); err != nil {
		return err
	}

	target := rc.URL()
	if target == "" {
		target = modrinth.DefaultURL
	}
	if rc.Token() == "" {
		ctx.Out.Printf("Using %s without a token\n", target)
	} else {
		ctx.Out.Printf("Saved token for %s\n", target)
	}
	if rc.CurseForgeKey() != "" {
		ctx.Out.Println("CurseForge fallback enabled")
	}
	return nil
}
