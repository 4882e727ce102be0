package humble

import (
	"crypto/rand"
	"math/big"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "Request-ID"

const (
	requestIDLength   = 30
	requestIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var alphabetSize = big.NewInt(int64(len(requestIDAlphabet)))

// newRequestID returns 30 random alphanumeric characters.
func newRequestID() string {
	b := make([]byte, requestIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("humble: reading random bytes: " + err.Error())
		}
		b[i] = requestIDAlphabet[n.Int64()]
	}
	return string(b)
}
