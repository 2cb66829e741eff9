// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package utf8s

import (
	"testing"

	"golang.org/x/text/transform"
)

func TestReplaceTransformer(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"valid ascii", []byte("hello"), "hello"},
		{"valid multibyte", []byte("héllo wörld 漢字"), "héllo wörld 漢字"},
		{"empty", []byte{}, ""},
		{"lone continuation", []byte{'a', 0x80, 'b'}, "a�b"},
		{"truncated sequence", []byte{'a', 0xc3}, "a�"},
		{"overlong", []byte{0xc0, 0xaf}, "��"},
		{"surrogate half", []byte{0xed, 0xa0, 0x80}, "���"},
		{"all invalid", []byte{0xff, 0xfe}, "��"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := transform.Bytes(DefaultDecoder(), tt.in)
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceTransformerSmallDst(t *testing.T) {
	// force ErrShortDst handling through a reader with a tiny buffer
	in := make([]byte, 0, 8192)
	for i := 0; i < 1024; i++ {
		in = append(in, 'x', 0x80, 0xe4, 0xb8, 0xad)
	}
	got, _, err := transform.Bytes(ReplaceTransformer{}, in)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	want := 0
	for i := 0; i < 1024; i++ {
		want += 1 + 3 + 3 // 'x', replacement, U+4E2D
	}
	if len(got) != want {
		t.Fatalf("output length %d, want %d", len(got), want)
	}
}
