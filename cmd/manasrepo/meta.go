// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/manomayam/manas/internal/repo"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/spaceconfig"
)

const version = "0.1.0"

// Meta carries the facilities shared by all subcommands.
type Meta struct {
	UI     cli.Ui
	Logger hclog.Logger
}

// flagSet creates the base flag set every subcommand extends.
func (m *Meta) flagSet(name string, configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(configPath, "config", defaultConfigPath(), "path to the repository configuration file")
	return fs
}

func defaultConfigPath() string {
	if p := os.Getenv("MANAS_CONFIG"); p != "" {
		return p
	}
	return "manas.hcl"
}

// openRepo loads the configuration and assembles the repository.
func (m *Meta) openRepo(ctx context.Context, configPath string) (*repo.Repo, error) {
	cfg, err := spaceconfig.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	return repo.FromConfig(ctx, cfg, m.Logger)
}

// parseURI parses a command line resource URI argument.
func (m *Meta) parseURI(arg string) (resource.URI, error) {
	uri, err := resource.ParseURI(arg)
	if err != nil {
		return resource.URI{}, fmt.Errorf("invalid resource uri %q: %w", arg, err)
	}
	return uri, nil
}
