// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import (
	"fmt"
	"net/url"
	"strings"
)

// PathEncoding selects how object paths translate to a backend's native
// keys. It is a small closed set dispatched by switch, so backends stay
// free of per-scheme callback plumbing.
type PathEncoding int

const (
	// EncodingIdentical uses object paths as backend keys verbatim.
	// Suitable for key/value stores without character restrictions, such
	// as S3, GCS, and the in-memory store.
	EncodingIdentical PathEncoding = iota

	// EncodingPctDecoded percent-decodes object path segments into
	// backend keys, and re-encodes on the way back. Suitable for
	// filesystem backends, where the decoded form gives human-readable
	// file names.
	EncodingPctDecoded
)

func (e PathEncoding) String() string {
	switch e {
	case EncodingIdentical:
		return "identical"
	case EncodingPctDecoded:
		return "pct-decoded"
	default:
		return "unknown"
	}
}

// BackendKey translates an object id into the backend's native key form.
func (e PathEncoding) BackendKey(id ObjectID) (string, error) {
	switch e {
	case EncodingIdentical:
		return id.Path(), nil
	case EncodingPctDecoded:
		return pctDecodePath(id.Path())
	default:
		return "", fmt.Errorf("unknown path encoding %d", e)
	}
}

// ObjectPath translates a backend key back into an object path. It is
// the inverse of BackendKey for keys that this core wrote.
func (e PathEncoding) ObjectPath(key string) (string, error) {
	switch e {
	case EncodingIdentical:
		return key, nil
	case EncodingPctDecoded:
		return pctEncodePath(key), nil
	default:
		return "", fmt.Errorf("unknown path encoding %d", e)
	}
}

func pctDecodePath(p string) (string, error) {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return "", fmt.Errorf("object path segment %q is not valid percent-encoding: %w", seg, err)
		}
		if strings.ContainsAny(dec, "/\x00") {
			// A decoded segment must not smuggle in a key separator.
			return "", fmt.Errorf("object path segment %q decodes to a reserved character", seg)
		}
		segs[i] = dec
	}
	return strings.Join(segs, "/"), nil
}

func pctEncodePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
