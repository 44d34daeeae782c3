// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import "testing"

func TestByteRangeClamp(t *testing.T) {
	tests := []struct {
		name     string
		rng      ByteRange
		fullSize int64
		want     EffectiveRange
	}{
		{"within", ByteRange{Offset: 10, Size: 20}, 100, EffectiveRange{10, 30}},
		{"overhang", ByteRange{Offset: 90, Size: 50}, 100, EffectiveRange{90, 100}},
		{"past end", ByteRange{Offset: 150, Size: 10}, 100, EffectiveRange{100, 100}},
		{"at end", ByteRange{Offset: 100, Size: 10}, 100, EffectiveRange{100, 100}},
		{"full", FullRange, 100, EffectiveRange{0, 100}},
		{"tail", ByteRange{Offset: 40, Size: -1}, 100, EffectiveRange{40, 100}},
		{"zero size", ByteRange{Offset: 10, Size: 0}, 100, EffectiveRange{10, 10}},
		{"negative offset", ByteRange{Offset: -5, Size: 10}, 100, EffectiveRange{0, 10}},
		{"empty object", ByteRange{Offset: 0, Size: 10}, 0, EffectiveRange{0, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.rng.Clamp(test.fullSize)
			if got != test.want {
				t.Errorf("(%+v).Clamp(%d) = %v, want %v", test.rng, test.fullSize, got, test.want)
			}
		})
	}
}

func TestEffectiveRange(t *testing.T) {
	r := EffectiveRange{Offset: 100, End: 100}
	if !r.IsEmpty() {
		t.Errorf("empty range not reported as empty")
	}
	if r.Len() != 0 {
		t.Errorf("empty range Len = %d", r.Len())
	}
	r = EffectiveRange{Offset: 90, End: 100}
	if r.IsEmpty() || r.Len() != 10 {
		t.Errorf("range %v: IsEmpty=%v Len=%d", r, r.IsEmpty(), r.Len())
	}
}
