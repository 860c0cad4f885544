package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/arklim/user-auth-service/internal/core/port"
)

const (
	otpFloor              = 100000
	otpSpan               = 900000
	temporaryPasswordSize = 8
	temporaryAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// RandomCodeGenerator implements port.CodeGenerator on top of a cryptographic random source.
type RandomCodeGenerator struct {
	reader io.Reader
}

// NewRandomCodeGenerator returns a generator reading from crypto/rand.
func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{reader: rand.Reader}
}

// NewOTP returns a six digit code in [100000, 999999].
func (g *RandomCodeGenerator) NewOTP() (string, error) {
	n, err := rand.Int(g.reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(otpFloor+n.Int64(), 10), nil
}

// TemporaryPassword returns eight lowercase base-36 characters.
func (g *RandomCodeGenerator) TemporaryPassword() (string, error) {
	buf := make([]byte, temporaryPasswordSize)
	limit := big.NewInt(int64(len(temporaryAlphabet)))
	for i := range buf {
		n, err := rand.Int(g.reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		buf[i] = temporaryAlphabet[n.Int64()]
	}
	return string(buf), nil
}

var _ port.CodeGenerator = (*RandomCodeGenerator)(nil)
