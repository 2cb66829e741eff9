// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package utf8s provides a transform.Transformer that repairs invalid
// UTF-8 in server-supplied wire strings by replacing offending bytes
// with the Unicode replacement character.
package utf8s

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// DefaultDecoder returns the transformer used by the wire decoder for
// strings received from the service.
func DefaultDecoder() transform.Transformer { return ReplaceTransformer{} }

// ReplaceTransformer replaces every invalid UTF-8 sequence with
// utf8.RuneError. Valid input passes through unmodified.
type ReplaceTransformer struct{ transform.NopResetter }

// Transform implements the transform.Transformer interface.
func (t ReplaceTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				err = transform.ErrShortSrc
				break
			}
			if nDst+utf8.RuneLen(utf8.RuneError) > len(dst) {
				err = transform.ErrShortDst
				break
			}
			nDst += utf8.EncodeRune(dst[nDst:], utf8.RuneError)
			nSrc += size
			continue
		}
		if nDst+size > len(dst) {
			err = transform.ErrShortDst
			break
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, err
}
