// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package problem defines the structured error taxonomy shared by the
// resource/object mapping core.
//
// Everything that crosses a component boundary in this core fails with a
// [Problem], which carries a [Kind] alongside a human-readable message and
// an optional wrapped cause. Callers branch on the kind (via [IsKind] or
// [KindOf]) rather than on error string contents, and the method-handler
// layer above this core maps kinds to wire-level status codes.
package problem

import (
	"errors"
	"fmt"
)

// Kind classifies a [Problem] into one of the failure categories that
// callers of the mapping core are expected to distinguish.
type Kind int

const (
	kindInvalid Kind = iota

	// NotFound indicates that the target object or resource is absent.
	// Backend-specific "not found" signals are always collapsed into this
	// one kind before they leave a backend implementation.
	NotFound

	// Conflict indicates that the requested mutation is blocked by an
	// existing resource: either the target itself already exists, or its
	// mutex sibling does.
	Conflict

	// Unsupported indicates that the operation is not implemented for this
	// configuration.
	Unsupported

	// BackendFailure indicates a transport, permission, or storage-engine
	// error from the backend, opaque beyond its cause chain.
	BackendFailure

	// PatchSemantics indicates that a proposed patch is semantically
	// invalid against the current representation.
	PatchSemantics

	// IncompatiblePatchSourceContentType indicates that the patch source
	// content type cannot be applied to the target representation.
	IncompatiblePatchSourceContentType

	// InvalidEncodedSourceRep indicates that the encoded source
	// representation supplied for an update could not be decoded.
	InvalidEncodedSourceRep
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Unsupported:
		return "unsupported"
	case BackendFailure:
		return "backend failure"
	case PatchSemantics:
		return "patch semantics"
	case IncompatiblePatchSourceContentType:
		return "incompatible patch source content type"
	case InvalidEncodedSourceRep:
		return "invalid encoded source representation"
	default:
		return "invalid"
	}
}

// Problem is a structured error carrying a [Kind] and an optional cause.
//
// Problem values are comparable with the standard errors helpers: Unwrap
// exposes the cause chain, and [IsKind] matches on the kind without regard
// to the message.
type Problem struct {
	kind  Kind
	msg   string
	cause error
}

var _ error = (*Problem)(nil)

// New returns a new [Problem] of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Problem {
	return &Problem{
		kind: kind,
		msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap returns a new [Problem] of the given kind whose cause is err.
//
// If err is already a Problem of the same kind it is returned unchanged,
// so repeated wrapping at layer boundaries doesn't pile up redundant
// frames.
func Wrap(kind Kind, err error, format string, args ...any) *Problem {
	if p, ok := err.(*Problem); ok && p.kind == kind {
		return p
	}
	return &Problem{
		kind:  kind,
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Kind returns the problem's kind.
func (p *Problem) Kind() Kind {
	return p.kind
}

func (p *Problem) Error() string {
	if p.cause != nil {
		return fmt.Sprintf("%s: %s: %s", p.kind, p.msg, p.cause)
	}
	return fmt.Sprintf("%s: %s", p.kind, p.msg)
}

// Unwrap returns the wrapped cause, if any.
func (p *Problem) Unwrap() error {
	return p.cause
}

// IsKind reports whether err is, or wraps, a [Problem] of the given kind.
func IsKind(err error, kind Kind) bool {
	var p *Problem
	return errors.As(err, &p) && p.kind == kind
}

// KindOf returns the kind of the outermost [Problem] in err's chain, or
// (kindInvalid, false) if there is none.
func KindOf(err error) (Kind, bool) {
	var p *Problem
	if errors.As(err, &p) {
		return p.kind, true
	}
	return kindInvalid, false
}
