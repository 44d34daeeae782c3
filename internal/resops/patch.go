// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"github.com/manomayam/manas/internal/problem"
)

// PatchOp is an effective operation a patch performs on the target
// representation.
type PatchOp int

const (
	// PatchRead: the patch evaluation reads the current representation.
	PatchRead PatchOp = iota

	// PatchAppend: the patch adds statements without removing any.
	PatchAppend

	// PatchWrite: the patch removes or rewrites existing statements.
	PatchWrite
)

func (op PatchOp) String() string {
	switch op {
	case PatchRead:
		return "read"
	case PatchAppend:
		return "append"
	case PatchWrite:
		return "write"
	default:
		return "unknown"
	}
}

// PatchContext describes a proposed patch for precondition checking
// before any write commits: the patch source, the content types
// involved, and the operations the patch would effectively perform.
type PatchContext struct {
	// Source is the encoded patch document.
	Source []byte

	// SourceContentType is the media type of Source.
	SourceContentType string

	// TargetContentType is the media type of the representation the
	// patch applies to. Empty for a to-be-created resource.
	TargetContentType string

	// Ops are the effective operations of the patch.
	Ops []PatchOp
}

// PatchContentTypes maps a patch document media type to the target
// media types it can apply to.
var PatchContentTypes = map[string][]string{
	"application/sparql-update": {"text/turtle", "application/ld+json", ""},
	"text/n3":                   {"text/turtle", "application/ld+json", ""},
}

// Mutates reports whether the patch performs any append or write
// operation.
func (pc *PatchContext) Mutates() bool {
	for _, op := range pc.Ops {
		if op == PatchAppend || op == PatchWrite {
			return true
		}
	}
	return false
}

// Validate checks the patch context for well-formedness before the
// update path acts on it.
func (pc *PatchContext) Validate() error {
	if len(pc.Source) == 0 {
		return problem.New(problem.InvalidEncodedSourceRep, "patch source is empty")
	}

	targets, ok := PatchContentTypes[pc.SourceContentType]
	if !ok {
		return problem.New(problem.IncompatiblePatchSourceContentType, "unsupported patch content type %q", pc.SourceContentType)
	}
	compatible := false
	for _, t := range targets {
		if t == pc.TargetContentType {
			compatible = true
			break
		}
	}
	if !compatible {
		return problem.New(problem.IncompatiblePatchSourceContentType, "patch type %q cannot apply to representation type %q", pc.SourceContentType, pc.TargetContentType)
	}

	if !pc.Mutates() {
		return problem.New(problem.PatchSemantics, "patch performs no mutation")
	}
	return nil
}
