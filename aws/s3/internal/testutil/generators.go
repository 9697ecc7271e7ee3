package testutil

import (
	"fmt"
	"math/rand"
	"path"
	"sort"

	"github.com/input-output-hk/s3mv/fs"
)

// TestDataGenerator produces reproducible file trees and object sets.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible test data
	}
}

// Data returns size pseudo-random bytes.
func (g *TestDataGenerator) Data(size int) []byte {
	data := make([]byte, size)
	_, _ = g.rand.Read(data)
	return data
}

// Tree returns count relative paths spread over nested directories, sorted.
// Every third file lives one level deeper and every fifth ends in ".log".
func (g *TestDataGenerator) Tree(count int) []string {
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ext := ".txt"
		if i%5 == 4 {
			ext = ".log"
		}
		name := fmt.Sprintf("file-%03d%s", i, ext)
		switch {
		case i%3 == 2:
			name = path.Join(fmt.Sprintf("dir-%d", i%2), "nested", name)
		case i%2 == 1:
			name = path.Join(fmt.Sprintf("dir-%d", i%2), name)
		}
		paths = append(paths, name)
	}
	sort.Strings(paths)
	return paths
}

// WriteTree writes the given relative paths below root in filesystem, each
// with between 1 and maxSize random bytes. It returns the contents by path.
func (g *TestDataGenerator) WriteTree(
	filesystem fs.Filesystem,
	root string,
	paths []string,
	maxSize int,
) (map[string][]byte, error) {
	contents := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data := g.Data(g.rand.Intn(maxSize) + 1)
		full := path.Join(root, p)
		if err := filesystem.MkdirAll(path.Dir(full), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", p, err)
		}
		if err := filesystem.WriteFile(full, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
		contents[p] = data
	}
	return contents, nil
}

// FillBucket stores one object per path under prefix in m and returns the
// contents by path.
func (g *TestDataGenerator) FillBucket(m *MemoryS3, bucket, prefix string, paths []string, maxSize int) map[string][]byte {
	contents := make(map[string][]byte, len(paths))
	m.WithBucket(bucket)
	for _, p := range paths {
		data := g.Data(g.rand.Intn(maxSize) + 1)
		m.WithObject(bucket, prefix+p, data)
		contents[p] = data
	}
	return contents
}
