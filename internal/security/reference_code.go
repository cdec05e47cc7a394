package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// ReferenceAlphabet leaves out characters that are easy to misread (0/O, 1/I).
const ReferenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var errInvalidReferenceShape = errors.New("reference code needs at least one group of positive size")

// ReferenceCode returns prefix followed by groups random blocks of size
// characters, for example MM-7KQ2-XW9D.
func ReferenceCode(prefix string, groups int, size int) (string, error) {
	if groups < 1 || size < 1 {
		return "", errInvalidReferenceShape
	}

	parts := make([]string, 0, groups+1)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for i := 0; i < groups; i++ {
		block, err := referenceBlock(size)
		if err != nil {
			return "", err
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "-"), nil
}

// referenceBlock draws each character with crypto/rand so blocks are unbiased.
func referenceBlock(size int) (string, error) {
	limit := big.NewInt(int64(len(ReferenceAlphabet)))
	block := make([]byte, size)
	for index := range block {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		block[index] = ReferenceAlphabet[position.Int64()]
	}
	return string(block), nil
}
