// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command manasrepo is an operational CLI over a configured resource
// repository: initialize the storage root, resolve resource status,
// and inspect or mutate stored resources.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "manasrepo",
		Level: hclog.LevelFromString(os.Getenv("MANAS_LOG_LEVEL")),
	})

	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	meta := Meta{UI: ui, Logger: logger}

	c := cli.NewCLI("manasrepo", version)
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"init": func() (cli.Command, error) {
			return &InitCommand{Meta: meta}, nil
		},
		"resolve": func() (cli.Command, error) {
			return &ResolveCommand{Meta: meta}, nil
		},
		"ls": func() (cli.Command, error) {
			return &ListCommand{Meta: meta}, nil
		},
		"get": func() (cli.Command, error) {
			return &GetCommand{Meta: meta}, nil
		},
		"put": func() (cli.Command, error) {
			return &PutCommand{Meta: meta}, nil
		},
		"rm": func() (cli.Command, error) {
			return &RemoveCommand{Meta: meta}, nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitStatus
}
