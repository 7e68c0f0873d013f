package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

type Algorithm string

const (
	PBKDF2 Algorithm = "pbkdf2"
	Bcrypt Algorithm = "bcrypt"
)

const (
	DefaultIterations = 600000

	saltLength = 8
	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Hasher produces and checks password hashes. PBKDF2 output uses the
// werkzeug encoding "pbkdf2:sha256:<iterations>$<salt>$<hex>" so hashes
// written by the previous Flask deployment keep verifying.
type Hasher struct {
	alg        Algorithm
	iterations int
	bcryptCost int
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case PBKDF2, Bcrypt:
		return a, nil
	}
	return "", fmt.Errorf("unknown password hash algorithm %q", s)
}

func NewHasher(alg Algorithm, iterations int) (*Hasher, error) {
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{alg: alg, iterations: iterations, bcryptCost: bcrypt.DefaultCost}, nil
}

func (h *Hasher) Hash(plain string) (string, error) {
	if h.alg == Bcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
		return string(b), err
	}
	salt, err := genSalt(saltLength)
	if err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(plain), []byte(salt), h.iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.iterations, salt, hex.EncodeToString(key)), nil
}

// Verify reports whether plain matches encoded. The format is taken from the
// stored value, not from the configured algorithm.
func (h *Hasher) Verify(encoded, plain string) bool {
	switch {
	case strings.HasPrefix(encoded, "pbkdf2:"):
		return verifyPBKDF2(encoded, plain, h.iterations)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	}
	return false
}

func verifyPBKDF2(encoded, plain string, defaultIter int) bool {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, digest := parts[0], parts[1], parts[2]

	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return false
	}
	newHash, size := hashFunc(fields[1])
	if newHash == nil {
		return false
	}
	iter := defaultIter
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return false
		}
		iter = n
	}

	want, err := hex.DecodeString(digest)
	if err != nil || len(want) != size {
		return false
	}
	got := pbkdf2.Key([]byte(plain), []byte(salt), iter, size, newHash)
	return hmac.Equal(got, want)
}

func hashFunc(name string) (func() hash.Hash, int) {
	switch name {
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	}
	return nil, 0
}

func genSalt(n int) (string, error) {
	max := big.NewInt(int64(len(saltChars)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = saltChars[idx.Int64()]
	}
	return string(b), nil
}
