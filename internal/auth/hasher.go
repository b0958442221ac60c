package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters shared by every stored digest.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	// upper bounds for parameters read back from stored digests
	maxDigestMemory uint32 = 1024 * 1024
	maxDigestTime   uint32 = 16
)

var ErrEmptyPepper = errors.New("password pepper must not be empty")

var b64 = base64.RawStdEncoding

// Hasher derives argon2id digests of password+pepper, encoded in the PHC
// string format.
type Hasher struct {
	pepper string
}

func NewHasher(pepper string) (*Hasher, error) {
	if pepper == "" {
		return nil, ErrEmptyPepper
	}
	return &Hasher{pepper: pepper}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password+h.pepper), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify never returns an error: a mismatch and a malformed digest both
// report false.
func (h *Hasher) Verify(digest, password string) bool {
	p, err := decodeDigest(digest)
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(password+h.pepper), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

type digestParts struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeDigest(digest string) (*digestParts, error) {
	fields := strings.Split(digest, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return nil, errors.New("not an argon2id digest")
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var p digestParts
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, errors.New("zero argon2 parameter")
	}
	if p.memory > maxDigestMemory || p.time > maxDigestTime {
		return nil, errors.New("argon2 parameters out of range")
	}

	var err error
	if p.salt, err = b64.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	if p.key, err = b64.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	if len(p.salt) == 0 || len(p.key) == 0 {
		return nil, errors.New("empty salt or key")
	}
	return &p, nil
}
