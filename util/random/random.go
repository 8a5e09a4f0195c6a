// Package random provides crypto/rand backed string generation.
package random

import (
	"crypto/rand"
	"math/big"
)

var alphabet []rune

func init() {
	for i := 0; i < 10; i++ {
		alphabet = append(alphabet, rune('0'+i))
	}
	for i := 0; i < 26; i++ {
		alphabet = append(alphabet, rune('a'+i), rune('A'+i))
	}
}

// Seq generates a random alphanumeric string of length n.
func Seq(n int) string {
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		runes[i] = alphabet[idx.Int64()]
	}
	return string(runes)
}
