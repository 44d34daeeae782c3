// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package resource defines the vocabulary types for Solid resources: the
// normalized resource URI, the container/non-container kind, the storage
// space, and the resource slot computed from a URI against a space.
//
// A resource's identity is its normalized URI string. Normalization is
// total: two semantically equal URIs always normalize to identical string
// forms, so every other component in the core can compare URIs as plain
// strings.
package resource

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Kind distinguishes container resources from non-container resources.
//
// The kind of a resource is fully determined by its URI: containers have a
// trailing slash, non-containers do not.
type Kind int

const (
	kindInvalid Kind = iota

	// Container is a resource representing a hierarchical grouping.
	Container

	// NonContainer is a resource holding direct content.
	NonContainer
)

func (k Kind) String() string {
	switch k {
	case Container:
		return "container"
	case NonContainer:
		return "non-container"
	default:
		return "invalid"
	}
}

// URI is a normalized, absolute HTTP(S) URI identifying a resource.
//
// The zero value is not a valid URI; valid values are obtained from
// [ParseURI] only. URIs never carry a query or fragment component.
type URI struct {
	s string
}

// ParseURI parses and normalizes the given raw URI string.
//
// Normalization lowercases the scheme and host, elides default ports,
// resolves dot segments, collapses non-trailing empty path segments, and
// canonicalizes percent-encoding. An empty path normalizes to "/".
//
// URIs with a query or fragment component are rejected: resource identity
// in a storage space is path-only.
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, fmt.Errorf("invalid resource uri %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return URI{}, fmt.Errorf("resource uri %q is not absolute", raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return URI{}, fmt.Errorf("resource uri %q has unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return URI{}, fmt.Errorf("resource uri %q has no host", raw)
	}
	if u.RawQuery != "" || u.ForceQuery {
		return URI{}, fmt.Errorf("resource uri %q has a query component", raw)
	}
	if u.Fragment != "" {
		return URI{}, fmt.Errorf("resource uri %q has a fragment component", raw)
	}

	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	return URI{s: scheme + "://" + host + normalizePath(u.EscapedPath())}, nil
}

// MustParseURI is like [ParseURI] but panics on error. For tests and
// static configuration only.
func MustParseURI(raw string) URI {
	u, err := ParseURI(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// normalizePath resolves dot segments and collapses duplicate slashes while
// preserving the trailing slash, which is load-bearing for resource kind.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	trailingSlash := strings.HasSuffix(p, "/")
	cleaned := path.Clean("/" + p)
	if trailingSlash && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func (u URI) String() string {
	return u.s
}

// IsZero reports whether u is the invalid zero value.
func (u URI) IsZero() bool {
	return u.s == ""
}

// Path returns the (escaped) path component of the URI.
func (u URI) Path() string {
	i := strings.Index(u.s, "://")
	rest := u.s[i+len("://"):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return rest[j:]
	}
	return "/"
}

// Kind returns the resource kind encoded in the URI form.
func (u URI) Kind() Kind {
	if strings.HasSuffix(u.s, "/") {
		return Container
	}
	return NonContainer
}

// MutexSibling returns the other-kind resource URI at the same path stem,
// obtained by toggling the trailing slash.
//
// A host-root container URI has no mutex sibling, in which case ok is
// false. For any URIs u, v with v = u.MutexSibling(), it holds that
// u == v.MutexSibling().
func (u URI) MutexSibling() (sibling URI, ok bool) {
	if u.Kind() == Container {
		if u.Path() == "/" {
			return URI{}, false
		}
		return URI{s: strings.TrimSuffix(u.s, "/")}, true
	}
	return URI{s: u.s + "/"}, true
}

// Parent returns the URI of the container that would contain this
// resource, or ok=false for a host-root container.
func (u URI) Parent() (parent URI, ok bool) {
	p := u.Path()
	if p == "/" {
		return URI{}, false
	}
	trimmed := strings.TrimSuffix(p, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	prefixLen := len(u.s) - len(p)
	return URI{s: u.s[:prefixLen] + trimmed[:idx+1]}, true
}

// IsAncestorOf reports whether u is a container whose namespace
// (transitively) contains other.
func (u URI) IsAncestorOf(other URI) bool {
	if u.Kind() != Container || u == other {
		return false
	}
	return strings.HasPrefix(other.s, u.s)
}
