// Package digest computes content digests of catalog files.
package digest

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Supported algorithm names.
const (
	XXHash = "xxhash"
	MD5    = "md5"
	SHA256 = "sha256"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = XXHash

const chunkSize = 64 * 1024

// Hasher produces lowercase hex digests with one fixed algorithm.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// New returns a Hasher for algorithm. An empty name selects DefaultAlgorithm.
func New(algorithm string) (*Hasher, error) {
	name := strings.ToLower(strings.TrimSpace(algorithm))
	if name == "" {
		name = DefaultAlgorithm
	}

	var factory func() hash.Hash
	switch name {
	case XXHash:
		factory = func() hash.Hash { return xxhash.New() }
	case MD5:
		factory = md5.New
	case SHA256:
		factory = sha256.New
	default:
		return nil, fmt.Errorf("digest: unsupported algorithm %q", algorithm)
	}
	return &Hasher{algorithm: name, newHash: factory}, nil
}

// Algorithm reports the algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// HashFile digests the file at path. The context is checked between chunks.
func (h *Hasher) HashFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest: open %s: %w", path, err)
	}
	defer file.Close()

	sum, err := h.HashReader(ctx, file)
	if err != nil {
		return "", fmt.Errorf("digest: read %s: %w", path, err)
	}
	return sum, nil
}

// HashReader digests everything read from r.
func (h *Hasher) HashReader(ctx context.Context, r io.Reader) (string, error) {
	hasher := h.newHash()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify reports whether the file at path still has the expected digest. A
// missing file is reported as a mismatch, not an error.
func (h *Hasher) Verify(ctx context.Context, path, expected string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("digest: stat %s: %w", path, err)
	}

	actual, err := h.HashFile(ctx, path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
