// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package spaceconfig loads the storage space and backend configuration
// from an HCL file.
//
// A configuration names exactly one storage space, one backend, and
// optionally a locking mode:
//
//	space {
//	  root_uri = "https://storage.example/"
//
//	  aux_rel_type "acl" {
//	    token = "acl"
//	  }
//	}
//
//	backend "s3" {
//	  bucket = "my-pod"
//	  prefix = "spaces/alice/"
//	  region = env.AWS_REGION
//	}
//
//	locking {
//	  mode   = "inmem"
//	  policy = "wait"
//	}
//
// Environment variables are exposed to expressions as attributes of the
// env object.
package spaceconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/manomayam/manas/internal/resource"
)

// Config is the decoded configuration.
type Config struct {
	// Space is the configured storage space.
	Space *resource.StorageSpace

	// Backend describes the object store backend to use.
	Backend BackendSpec

	// Locking describes the name locking facility to use.
	Locking LockingSpec
}

// BackendSpec is the backend selection, a small closed set dispatched on
// Type. Only the field matching Type carries data.
type BackendSpec struct {
	// Type is one of "fs", "inmem", "s3" or "gcs".
	Type string

	FS  FSOptions
	S3  S3Options
	GCS GCSOptions
}

// FSOptions configures the filesystem backend.
type FSOptions struct {
	// Dir is the storage root directory.
	Dir string
}

// S3Options configures the S3 backend.
type S3Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	SkipChecksum bool
}

// GCSOptions configures the GCS backend.
type GCSOptions struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// LockingSpec selects the name locking facility.
type LockingSpec struct {
	// Mode is "inmem" or "disabled". Disabled locking accepts a race
	// window between status resolution and mutation.
	Mode string

	// Policy is "wait" or "fail_fast"; only meaningful for inmem mode.
	Policy string
}

type rootSchema struct {
	Space   spaceSchema    `hcl:"space,block"`
	Backend backendSchema  `hcl:"backend,block"`
	Locking *lockingSchema `hcl:"locking,block"`
}

type spaceSchema struct {
	RootURI     string         `hcl:"root_uri"`
	AuxRelTypes []auxRelSchema `hcl:"aux_rel_type,block"`
}

type auxRelSchema struct {
	Rel       string `hcl:"rel,label"`
	Token     string `hcl:"token"`
	Container bool   `hcl:"container,optional"`
}

type backendSchema struct {
	Type   string   `hcl:"type,label"`
	Remain hcl.Body `hcl:",remain"`
}

type lockingSchema struct {
	Mode   string `hcl:"mode"`
	Policy string `hcl:"policy,optional"`
}

type fsSchema struct {
	Dir string `hcl:"dir"`
}

type s3Schema struct {
	Bucket       string `hcl:"bucket"`
	Prefix       string `hcl:"prefix,optional"`
	Region       string `hcl:"region,optional"`
	Endpoint     string `hcl:"endpoint,optional"`
	SkipChecksum bool   `hcl:"skip_checksum,optional"`
}

type gcsSchema struct {
	Bucket          string `hcl:"bucket"`
	Prefix          string `hcl:"prefix,optional"`
	CredentialsFile string `hcl:"credentials_file,optional"`
}

// LoadFile reads and decodes the configuration file at the given path.
func LoadFile(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes configuration source. The filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envValue(),
		},
	}

	var root rootSchema
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	cfg := &Config{}

	rootURI, err := resource.ParseURI(root.Space.RootURI)
	if err != nil {
		return nil, fmt.Errorf("invalid root_uri: %w", err)
	}
	if rootURI.Kind() != resource.Container {
		return nil, fmt.Errorf("root_uri %q must end in a slash", root.Space.RootURI)
	}

	auxRelTypes := auxRelTypesFromSchema(root.Space.AuxRelTypes)
	cfg.Space, err = resource.NewStorageSpace(rootURI, auxRelTypes)
	if err != nil {
		return nil, fmt.Errorf("invalid space configuration: %w", err)
	}

	cfg.Backend, err = backendSpecFromSchema(root.Backend, evalCtx)
	if err != nil {
		return nil, err
	}

	cfg.Locking, err = lockingSpecFromSchema(root.Locking)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func auxRelTypesFromSchema(schemas []auxRelSchema) []resource.AuxRelType {
	if len(schemas) == 0 {
		// Defaults are applied by NewStorageSpace.
		return nil
	}
	types := make([]resource.AuxRelType, len(schemas))
	for i, s := range schemas {
		kind := resource.NonContainer
		if s.Container {
			kind = resource.Container
		}
		types[i] = resource.AuxRelType{
			Rel:        s.Rel,
			Token:      s.Token,
			TargetKind: kind,
		}
	}
	return types
}

func backendSpecFromSchema(schema backendSchema, evalCtx *hcl.EvalContext) (BackendSpec, error) {
	spec := BackendSpec{Type: schema.Type}
	switch schema.Type {
	case "inmem":
		// No attributes.
	case "fs":
		var fs fsSchema
		if diags := gohcl.DecodeBody(schema.Remain, evalCtx, &fs); diags.HasErrors() {
			return spec, fmt.Errorf("decoding fs backend: %w", diags)
		}
		spec.FS = FSOptions{Dir: fs.Dir}
	case "s3":
		var s3 s3Schema
		if diags := gohcl.DecodeBody(schema.Remain, evalCtx, &s3); diags.HasErrors() {
			return spec, fmt.Errorf("decoding s3 backend: %w", diags)
		}
		spec.S3 = S3Options{
			Bucket:       s3.Bucket,
			Prefix:       s3.Prefix,
			Region:       s3.Region,
			Endpoint:     s3.Endpoint,
			SkipChecksum: s3.SkipChecksum,
		}
	case "gcs":
		var gcs gcsSchema
		if diags := gohcl.DecodeBody(schema.Remain, evalCtx, &gcs); diags.HasErrors() {
			return spec, fmt.Errorf("decoding gcs backend: %w", diags)
		}
		spec.GCS = GCSOptions{
			Bucket:          gcs.Bucket,
			Prefix:          gcs.Prefix,
			CredentialsFile: gcs.CredentialsFile,
		}
	default:
		return spec, fmt.Errorf("unknown backend type %q", schema.Type)
	}
	return spec, nil
}

func lockingSpecFromSchema(schema *lockingSchema) (LockingSpec, error) {
	if schema == nil {
		return LockingSpec{Mode: "inmem", Policy: "wait"}, nil
	}
	spec := LockingSpec{Mode: schema.Mode, Policy: schema.Policy}
	switch spec.Mode {
	case "inmem":
		if spec.Policy == "" {
			spec.Policy = "wait"
		}
		if spec.Policy != "wait" && spec.Policy != "fail_fast" {
			return spec, fmt.Errorf("unknown locking policy %q", spec.Policy)
		}
	case "disabled":
		if spec.Policy != "" {
			return spec, fmt.Errorf("locking policy has no effect with locking disabled")
		}
	default:
		return spec, fmt.Errorf("unknown locking mode %q", spec.Mode)
	}
	return spec, nil
}

// envValue exposes the process environment as a cty object value.
func envValue() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
