package hasher

import (
	"crypto/md5"  //nolint:gosec // MD5 is a user-selectable report digest, not a security primitive
	"crypto/sha1" //nolint:gosec // same as above
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm is the canonical name of a supported digest.
type Algorithm string

// Supported digest algorithms.
const (
	MD5        Algorithm = "MD5"
	SHA1       Algorithm = "SHA1"
	SHA224     Algorithm = "SHA224"
	SHA256     Algorithm = "SHA256"
	SHA384     Algorithm = "SHA384"
	SHA512     Algorithm = "SHA512"
	SHA3256    Algorithm = "SHA3-256"
	SHA3512    Algorithm = "SHA3-512"
	BLAKE2B256 Algorithm = "BLAKE2B-256"
	BLAKE2B512 Algorithm = "BLAKE2B-512"
	BLAKE3     Algorithm = "BLAKE3"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

var registry = map[Algorithm]func() hash.Hash{
	MD5:        md5.New,
	SHA1:       sha1.New,
	SHA224:     sha256.New224,
	SHA256:     sha256.New,
	SHA384:     sha512.New384,
	SHA512:     sha512.New,
	SHA3256:    sha3.New256,
	SHA3512:    sha3.New512,
	BLAKE2B256: mustBlake2b(blake2b.New256),
	BLAKE2B512: mustBlake2b(blake2b.New512),
	BLAKE3:     func() hash.Hash { return blake3.New() },
}

// mustBlake2b adapts the keyed blake2b constructors. A nil key never fails.
func mustBlake2b(newHash func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := newHash(nil)
		if err != nil {
			panic("hasher: blake2b initialization failed: " + err.Error())
		}

		return h
	}
}

// ParseAlgorithm resolves a user-supplied name to a registered algorithm.
// Matching ignores case, dashes and underscores, so "sha-256", "Sha256"
// and "SHA_256" all resolve to SHA256.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := normalize(name)
	for algorithm := range registry {
		if normalize(string(algorithm)) == key {
			return algorithm, nil
		}
	}

	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedAlgorithm, name, strings.Join(names(), ", "))
}

// Algorithms returns the supported algorithms sorted by name.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for algorithm := range registry {
		out = append(out, algorithm)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	newHash, ok := registry[a]
	if !ok {
		return 0
	}

	return newHash().Size()
}

func names() []string {
	algorithms := Algorithms()
	out := make([]string, len(algorithms))

	for i, algorithm := range algorithms {
		out[i] = string(algorithm)
	}

	return out
}

func normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))

	return strings.NewReplacer("-", "", "_", "").Replace(name)
}
