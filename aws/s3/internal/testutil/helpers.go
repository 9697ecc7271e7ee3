package testutil

import (
	"crypto/md5" //nolint:gosec // ETags are MD5 digests
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateRandomData generates random bytes of the specified size.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256)) //nolint:gosec // test data
	}
	return data
}

// GenerateTestKey generates a unique object key under prefix.
func GenerateTestKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%sobject-%d-%d", prefix, time.Now().UnixNano(), rand.Int63n(100000)) //nolint:gosec // test data
}

// GenerateTestBucketName generates a DNS-compliant bucket name.
func GenerateTestBucketName(prefix string) string {
	name := fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), rand.Int31n(10000)) //nolint:gosec // test data
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateETag returns the quoted MD5 ETag S3 reports for a single-part object.
func CalculateETag(data []byte) string {
	h := md5.Sum(data) //nolint:gosec // ETags are MD5 digests
	return fmt.Sprintf(`"%x"`, h)
}
