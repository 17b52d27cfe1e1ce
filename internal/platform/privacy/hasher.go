package privacy

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher derives the stored form of consumer identifiers and calculation
// inputs. It is a keyed BLAKE2b-256: deterministic for a given key, and
// without a decode operation. The key (pepper) keeps low-entropy identifiers
// such as SSNs from being recovered by dictionary attack on leaked audit rows.
type Hasher struct {
	key []byte
}

// NewHasher builds a Hasher keyed with pepper. An empty pepper yields an
// unkeyed hash, which config only permits outside production.
func NewHasher(pepper string) (*Hasher, error) {
	if len(pepper) > blake2b.Size {
		return nil, fmt.Errorf("pepper must be at most %d bytes, got %d", blake2b.Size, len(pepper))
	}
	return &Hasher{key: []byte(pepper)}, nil
}

// Hash returns the hex-encoded digest of raw. The same raw input always
// yields the same output, so repeated accesses to one consumer stay linkable.
func (h *Hasher) Hash(raw string) string {
	d, err := blake2b.New256(h.key)
	if err != nil {
		// key length is checked in NewHasher
		panic(fmt.Sprintf("privacy: blake2b init: %v", err))
	}
	_, _ = d.Write([]byte(raw))
	return hex.EncodeToString(d.Sum(nil))
}

// Scrub replaces every occurrence of raw in msg with its hash. Use it on text
// produced by collaborators (transport errors can echo request URLs) before
// the text reaches a log line.
func (h *Hasher) Scrub(msg, raw string) string {
	if raw == "" || !strings.Contains(msg, raw) {
		return msg
	}
	return strings.ReplaceAll(msg, raw, h.Hash(raw))
}
