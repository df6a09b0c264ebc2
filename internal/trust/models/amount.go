package models

import (
	"math/big"

	dErrors "briq/pkg/domain-errors"
)

// Amount is a non-negative integer quantity in currency minor units (wei for the
// HBAR network). It is kept as its canonical decimal string so persisted records
// stay exact and comparable; arithmetic goes through math/big.
type Amount string

// ZeroAmount is the canonical zero.
const ZeroAmount Amount = "0"

// ParseAmount validates s as a non-negative base-10 integer and returns its
// canonical form (no sign, no leading zeros).
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "amount %q is not an integer", s)
	}
	if v.Sign() < 0 {
		return "", dErrors.Newf(dErrors.CodeValidation, "amount %q is negative", s)
	}
	return Amount(v.String()), nil
}

// MustAmount is ParseAmount for literals in fixtures and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b. Invalid operands count as zero.
func (a Amount) Add(b Amount) Amount {
	return Amount(new(big.Int).Add(a.bigInt(), b.bigInt()).String())
}

// IsZero reports whether the amount is zero or unset.
func (a Amount) IsZero() bool {
	return a.bigInt().Sign() == 0
}

func (a Amount) String() string {
	if a == "" {
		return string(ZeroAmount)
	}
	return string(a)
}

func (a Amount) bigInt() *big.Int {
	v, ok := new(big.Int).SetString(string(a), 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
