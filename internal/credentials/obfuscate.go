package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Obfuscator hides credentials from casual inspection of the local
// database. It is a repeating-key XOR, not encryption.
type Obfuscator struct {
	key []byte
}

// NewObfuscator derives the key from the deployment origin and the first
// ten characters of a client identifier. Changing either makes previously
// stored values unreadable, so both must stay stable across releases.
func NewObfuscator(origin, clientID string) Obfuscator {
	if len(clientID) > 10 {
		clientID = clientID[:10]
	}
	return Obfuscator{key: []byte(fmt.Sprintf("%s-%s-pdf-quiz-app", origin, clientID))}
}

// Encode returns the stored form of plain.
func (o Obfuscator) Encode(plain string) string {
	return base64.StdEncoding.EncodeToString(o.xor([]byte(plain)))
}

var errNotText = errors.New("decoded credential is not valid text")

// Decode reverses Encode.
func (o Obfuscator) Decode(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	plain := o.xor(raw)
	if !utf8.Valid(plain) {
		return "", errNotText
	}
	return string(plain), nil
}

func (o Obfuscator) xor(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ o.key[i%len(o.key)]
	}
	return out
}
