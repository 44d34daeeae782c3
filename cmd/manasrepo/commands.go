// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resource"
)

// InitCommand ensures the storage root is initialized.
type InitCommand struct {
	Meta
}

func (c *InitCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo init [-config=path]

  Ensure the storage root container exists in the configured backend.
  Safe to run repeatedly.
`)
}

func (c *InitCommand) Synopsis() string {
	return "Initialize the storage root"
}

func (c *InitCommand) Run(args []string) int {
	var configPath string
	fs := c.flagSet("init", &configPath)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if err := r.Initialize(ctx); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(fmt.Sprintf("Storage root %s is initialized.", r.Space().StorageSpace().Root()))
	return 0
}

// ResolveCommand prints the status of a resource.
type ResolveCommand struct {
	Meta
}

func (c *ResolveCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo resolve [-config=path] <uri>

  Resolve and print the existence status of the resource at the given
  URI.
`)
}

func (c *ResolveCommand) Synopsis() string {
	return "Resolve the status of a resource"
}

func (c *ResolveCommand) Run(args []string) int {
	var configPath string
	fs := c.flagSet("resolve", &configPath)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		c.UI.Error("resolve requires exactly one resource URI argument")
		return 1
	}
	uri, err := c.parseURI(fs.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	token, err := r.ResolveStatus(ctx, uri)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Output(token.String())
	if meta, ok := token.BaseMetadata(); ok {
		c.UI.Output(fmt.Sprintf("  size:          %d", meta.Size))
		if !meta.LastModified.IsZero() {
			c.UI.Output(fmt.Sprintf("  last modified: %s", meta.LastModified))
		}
		if meta.ETag != "" {
			c.UI.Output(fmt.Sprintf("  etag:          %s", meta.ETag))
		}
		if meta.ContentType != "" {
			c.UI.Output(fmt.Sprintf("  content type:  %s", meta.ContentType))
		}
	}
	return 0
}

// ListCommand lists the members of a container.
type ListCommand struct {
	Meta
}

func (c *ListCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo ls [-config=path] <container-uri>

  List the member resources of the container at the given URI.
`)
}

func (c *ListCommand) Synopsis() string {
	return "List the members of a container"
}

func (c *ListCommand) Run(args []string) int {
	var configPath string
	fs := c.flagSet("ls", &configPath)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		c.UI.Error("ls requires exactly one container URI argument")
		return 1
	}
	uri, err := c.parseURI(fs.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	members, err := r.ListContainer(ctx, uri)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	for _, member := range members {
		c.UI.Output(member.String())
	}
	return 0
}

// GetCommand writes a resource's representation to stdout.
type GetCommand struct {
	Meta
}

func (c *GetCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo get [-config=path] <uri>

  Read the representation of the resource at the given URI and write
  it to stdout.
`)
}

func (c *GetCommand) Synopsis() string {
	return "Read a resource representation"
}

func (c *GetCommand) Run(args []string) int {
	var configPath string
	fs := c.flagSet("get", &configPath)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		c.UI.Error("get requires exactly one resource URI argument")
		return 1
	}
	uri, err := c.parseURI(fs.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	res, err := r.Read(ctx, uri, objstore.FullRange)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if !res.Represented {
		c.UI.Error(fmt.Sprintf("resource %s exists but has no representation", uri))
		return 1
	}
	os.Stdout.Write(res.Data)
	return 0
}

// PutCommand creates or replaces a resource from stdin.
type PutCommand struct {
	Meta
}

func (c *PutCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo put [-config=path] [-content-type=type] <uri>

  Create or replace the resource at the given URI with the bytes read
  from stdin. A URI ending in a slash creates a container; containers
  take no input.
`)
}

func (c *PutCommand) Synopsis() string {
	return "Create or replace a resource"
}

func (c *PutCommand) Run(args []string) int {
	var configPath, contentType string
	fs := c.flagSet("put", &configPath)
	fs.StringVar(&contentType, "content-type", "", "media type of the supplied representation")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		c.UI.Error("put requires exactly one resource URI argument")
		return 1
	}
	uri, err := c.parseURI(fs.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	var data []byte
	if uri.Kind() == resource.NonContainer {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			c.UI.Error(fmt.Sprintf("reading stdin: %s", err))
			return 1
		}
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if uri.Kind() == resource.Container {
		err = r.Create(ctx, uri, nil, "")
	} else {
		err = r.Update(ctx, uri, data, contentType)
	}
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(fmt.Sprintf("Stored %s (%d bytes).", uri, len(data)))
	return 0
}

// RemoveCommand deletes a resource.
type RemoveCommand struct {
	Meta
}

func (c *RemoveCommand) Help() string {
	return strings.TrimSpace(`
Usage: manasrepo rm [-config=path] <uri>

  Delete the resource at the given URI. Containers must be empty.
`)
}

func (c *RemoveCommand) Synopsis() string {
	return "Delete a resource"
}

func (c *RemoveCommand) Run(args []string) int {
	var configPath string
	fs := c.flagSet("rm", &configPath)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		c.UI.Error("rm requires exactly one resource URI argument")
		return 1
	}
	uri, err := c.parseURI(fs.Arg(0))
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	r, err := c.openRepo(ctx, configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if err := r.Delete(ctx, uri); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(fmt.Sprintf("Deleted %s.", uri))
	return 0
}
