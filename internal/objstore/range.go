// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import "fmt"

// ByteRange is a requested byte range: Size bytes starting at Offset.
//
// A negative Size means "to the end of the object". Ranges are lenient:
// they are never rejected for exceeding the object's actual size, only
// clamped (see [ByteRange.Clamp]).
type ByteRange struct {
	Offset int64
	Size   int64
}

// FullRange requests the entire object.
var FullRange = ByteRange{Offset: 0, Size: -1}

// IsFull reports whether the range requests the entire object from the
// start.
func (r ByteRange) IsFull() bool {
	return r.Offset == 0 && r.Size < 0
}

// Clamp resolves the request against an object of the given full size,
// per the lenient range semantics: the offset clamps to fullSize and the
// end to min(offset+size, fullSize). A request starting at or beyond the
// end of the object yields an empty effective range, never an error.
func (r ByteRange) Clamp(fullSize int64) EffectiveRange {
	offset := max(r.Offset, 0)
	offset = min(offset, fullSize)
	end := fullSize
	if r.Size >= 0 {
		end = min(offset+r.Size, fullSize)
	}
	return EffectiveRange{Offset: offset, End: end}
}

// EffectiveRange is a server-clamped byte range, half-open: [Offset, End).
//
// Callers constructing range-aware responses (e.g. HTTP 206
// Content-Range) must use the effective range returned by the backend,
// never the range they requested.
type EffectiveRange struct {
	Offset int64
	End    int64
}

// Len returns the number of bytes the range covers.
func (r EffectiveRange) Len() int64 {
	return r.End - r.Offset
}

// IsEmpty reports whether the range covers no bytes.
func (r EffectiveRange) IsEmpty() bool {
	return r.End <= r.Offset
}

func (r EffectiveRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Offset, r.End)
}
