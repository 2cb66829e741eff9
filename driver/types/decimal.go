// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package types

// DecimalAdapter lets callers carry arbitrary-precision decimals in
// their own representation. A value implementing it is serialized as a
// wire NUMBER from its StringValue. Decoded NUMBER values are returned
// as *big.Rat unless the caller converts them through a factory.
type DecimalAdapter interface {
	// StringValue returns the decimal string representation.
	StringValue() string
}

// DecimalFactory creates DecimalAdapter values from wire NUMBER
// strings, carrying the precision and rounding mode of the caller's
// decimal arithmetic.
type DecimalFactory interface {
	Create(s string) (DecimalAdapter, error)
	Precision() int
	RoundingMode() string
}
