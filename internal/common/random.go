package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// randReader is swapped in tests to simulate entropy failures.
var randReader = rand.Reader

// MakeRandDigits returns a string of n decimal digits drawn uniformly from
// crypto/rand. Leading zeros are kept, so "004211" is a valid 6-digit value.
func MakeRandDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(randReader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
