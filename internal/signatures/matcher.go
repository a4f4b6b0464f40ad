package signatures

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"sync"

	"lukechampine.com/blake3"
)

const (
	hashBufferSmallSize      = 32 * 1024
	hashBufferLargeSize      = 128 * 1024
	hashLargeBufferThreshold = 256 * 1024
)

var hashBufferSmallPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, hashBufferSmallSize)
		return &buf
	},
}

var hashBufferLargePool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, hashBufferLargeSize)
		return &buf
	},
}

// Match is the outcome of hashing one file
type Match struct {
	Matched   bool
	Algorithm string
	Digest    string
	Name      string
	Digests   map[string]string
}

// HashMatcher computes digests of file contents and checks them against a HashDatabase
type HashMatcher struct {
	db         *HashDatabase
	algorithms []string
}

// NewHashMatcher creates a matcher computing the given algorithms plus every
// algorithm the database holds digests for.
func NewHashMatcher(db *HashDatabase, algorithms []string) (*HashMatcher, error) {
	seen := make(map[string]struct{})
	var algos []string
	for _, algo := range append(append([]string{}, algorithms...), db.Algorithms()...) {
		if !IsSupported(algo) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algo)
		}
		if _, ok := seen[algo]; ok {
			continue
		}
		seen[algo] = struct{}{}
		algos = append(algos, algo)
	}
	sort.Strings(algos)
	return &HashMatcher{db: db, algorithms: algos}, nil
}

// Algorithms returns the digests computed for every file
func (m *HashMatcher) Algorithms() []string {
	return m.algorithms
}

// Match hashes the file at path in one streaming pass and looks every digest up
func (m *HashMatcher) Match(ctx context.Context, path string) (Match, error) {
	file, err := os.Open(path)
	if err != nil {
		return Match{}, fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer file.Close()

	bufferPool := &hashBufferSmallPool
	if info, statErr := file.Stat(); statErr == nil && info.Size() >= hashLargeBufferThreshold {
		bufferPool = &hashBufferLargePool
	}
	bufferPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufferPtr)

	digests, err := m.sum(ctx, file, *bufferPtr)
	if err != nil {
		return Match{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	result := Match{Digests: digests}
	for _, algo := range m.algorithms {
		if sig, ok := m.db.Lookup(algo, digests[algo]); ok {
			result.Matched = true
			result.Algorithm = algo
			result.Digest = digests[algo]
			result.Name = sig.Name
			break
		}
	}
	return result, nil
}

func (m *HashMatcher) sum(ctx context.Context, r io.Reader, buffer []byte) (map[string]string, error) {
	type hasherEntry struct {
		name string
		h    hash.Hash
	}
	hashers := make([]hasherEntry, 0, len(m.algorithms))
	for _, algo := range m.algorithms {
		hashers = append(hashers, hasherEntry{name: algo, h: newHash(algo)})
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, readErr := r.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			for i := range hashers {
				// hash.Hash writes never fail
				hashers[i].h.Write(chunk)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	digests := make(map[string]string, len(hashers))
	for i := range hashers {
		digests[hashers[i].name] = hex.EncodeToString(hashers[i].h.Sum(nil))
	}
	return digests, nil
}

func newHash(algo string) hash.Hash {
	switch algo {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha256":
		return sha256.New()
	case "blake3":
		return blake3.New(32, nil)
	}
	return nil
}
