package signatures

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/FastFilter/xorfilter"
	"github.com/cespare/xxhash/v2"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// ErrUnsupportedAlgorithm is returned for digest algorithms the matcher cannot compute
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// digestSizes maps supported algorithms to their digest length in bytes
var digestSizes = map[string]int{
	"md5":    16,
	"sha1":   20,
	"sha256": 32,
	"blake3": 32,
}

// builtinHashes are known-bad MD5 digests shipped with the scanner
var builtinHashes = []models.HashSignature{
	{Algorithm: "md5", Digest: "5f4dcc3b5aa765d61d8327deb882cf99", Name: "known-bad sample 1"},
	{Algorithm: "md5", Digest: "e10adc3949ba59abbe56e057f20f883e", Name: "known-bad sample 2"},
	{Algorithm: "md5", Digest: "25f9e794323b453885f5181f1b624d0b", Name: "known-bad sample 3"},
}

// SupportedAlgorithms returns the sorted list of digest algorithms
func SupportedAlgorithms() []string {
	algos := make([]string, 0, len(digestSizes))
	for algo := range digestSizes {
		algos = append(algos, algo)
	}
	sort.Strings(algos)
	return algos
}

// IsSupported reports whether algo can be computed by the matcher
func IsSupported(algo string) bool {
	_, ok := digestSizes[algo]
	return ok
}

// HashDatabase is the set of known-bad digests.
// After Seal, negative lookups are answered by a xor filter.
type HashDatabase struct {
	entries map[string]models.HashSignature
	counts  map[string]int
	filter  *xorfilter.Xor8
	sealed  bool
}

// NewHashDatabase creates an empty database
func NewHashDatabase() *HashDatabase {
	return &HashDatabase{
		entries: make(map[string]models.HashSignature),
		counts:  make(map[string]int),
	}
}

// NewBuiltinDatabase creates a database holding the built-in digests
func NewBuiltinDatabase() *HashDatabase {
	db := NewHashDatabase()
	for _, sig := range builtinHashes {
		// built-ins are well formed
		_ = db.Add(sig)
	}
	return db
}

// Add inserts a digest. Adding to a sealed database drops the filter.
func (db *HashDatabase) Add(sig models.HashSignature) error {
	sig.Normalize()
	size, ok := digestSizes[sig.Algorithm]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, sig.Algorithm)
	}
	raw, err := hex.DecodeString(sig.Digest)
	if err != nil {
		return fmt.Errorf("invalid %s digest: %w", sig.Algorithm, err)
	}
	if len(raw) != size {
		return fmt.Errorf("invalid %s digest length %d, want %d", sig.Algorithm, len(raw), size)
	}

	key := entryKey(sig.Algorithm, sig.Digest)
	if _, exists := db.entries[key]; !exists {
		db.counts[sig.Algorithm]++
	}
	db.entries[key] = sig
	db.filter = nil
	db.sealed = false
	return nil
}

// Seal builds the membership filter. An empty database needs no filter.
func (db *HashDatabase) Seal() {
	db.sealed = true
	db.filter = nil
	if len(db.entries) == 0 {
		return
	}

	seen := make(map[uint64]struct{}, len(db.entries))
	keys := make([]uint64, 0, len(db.entries))
	for key := range db.entries {
		h := xxhash.Sum64String(key)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		keys = append(keys, h)
	}

	filter, err := xorfilter.Populate(keys)
	if err != nil {
		// exact map lookups still work without the filter
		return
	}
	db.filter = filter
}

// Lookup returns the signature for a digest
func (db *HashDatabase) Lookup(algo, digest string) (models.HashSignature, bool) {
	sig := models.HashSignature{Algorithm: algo, Digest: digest}
	sig.Normalize()
	key := entryKey(sig.Algorithm, sig.Digest)

	if db.sealed {
		if len(db.entries) == 0 {
			return models.HashSignature{}, false
		}
		if db.filter != nil && !db.filter.Contains(xxhash.Sum64String(key)) {
			return models.HashSignature{}, false
		}
	}

	found, ok := db.entries[key]
	return found, ok
}

// Contains reports whether the digest is known-bad
func (db *HashDatabase) Contains(algo, digest string) bool {
	_, ok := db.Lookup(algo, digest)
	return ok
}

// Len returns the number of digests
func (db *HashDatabase) Len() int {
	return len(db.entries)
}

// Count returns the number of digests for one algorithm
func (db *HashDatabase) Count(algo string) int {
	return db.counts[algo]
}

// Algorithms returns the algorithms that have at least one digest
func (db *HashDatabase) Algorithms() []string {
	algos := make([]string, 0, len(db.counts))
	for algo, n := range db.counts {
		if n > 0 {
			algos = append(algos, algo)
		}
	}
	sort.Strings(algos)
	return algos
}

func entryKey(algo, digest string) string {
	return algo + ":" + digest
}
