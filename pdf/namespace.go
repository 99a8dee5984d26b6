package pdf

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const namespaceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Namespace is the random token that prefixes every temporary file of one run.
type Namespace string

// NewNamespace returns a token of the given length drawn uniformly from [a-z0-9].
// A length of zero selects DefaultNamespaceLength.
func NewNamespace(length int) (Namespace, error) {
	if length == 0 {
		length = DefaultNamespaceLength
	}
	if length < MinNamespaceLength {
		return "", fmt.Errorf("namespace length %d is below minimum %d", length, MinNamespaceLength)
	}

	max := big.NewInt(int64(len(namespaceAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		b[i] = namespaceAlphabet[n.Int64()]
	}
	return Namespace(b), nil
}
