package objid

import (
	"encoding/base32"
	"strings"
)

// crockfordAlphabet is the Crockford base32 symbol set (excludes
// I, L, O, U to avoid visual confusion). encoding/base32's
// NewEncoding does the actual bit-packing; only the alphabet is
// hand-specified.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordEncoding = base32.NewEncoding(crockfordAlphabet).WithPadding(base32.NoPadding)

// EncodeBase32 returns the lower-case, unpadded Crockford base32
// encoding of b.
func EncodeBase32(b []byte) string {
	return strings.ToLower(crockfordEncoding.EncodeToString(b))
}

// DecodeBase32 decodes a lower-case, unpadded Crockford base32 string.
func DecodeBase32(s string) ([]byte, error) {
	return crockfordEncoding.DecodeString(strings.ToUpper(s))
}
