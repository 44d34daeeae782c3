// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import (
	"github.com/manomayam/manas/internal/problem"
)

// Found collapses the backend NotFound signal into an optional value.
//
// It is designed to wrap a backend call directly:
//
//	meta, ok, err := objstore.Found(backend.Stat(ctx, id))
//
// A NotFound problem yields (zero, false, nil); any other error
// propagates unchanged; a success yields (value, true, nil). This is the
// single point where "does not exist" stops being an error, so the
// status-token resolver never has to know how any particular backend
// spells absence.
func Found[T any](v T, err error) (T, bool, error) {
	if err == nil {
		return v, true, nil
	}
	var zero T
	if problem.IsKind(err, problem.NotFound) {
		return zero, false, nil
	}
	return zero, false, err
}
