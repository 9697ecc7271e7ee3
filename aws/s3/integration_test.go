//go:build integration
// +build integration

package s3_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/s3mv/aws/s3"
	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/testutil"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

func newIntegrationClient(t *testing.T, stack *testutil.LocalStack) *s3.Client {
	t.Helper()

	client, err := s3.New(
		s3.WithRegion(stack.Region),
		s3.WithEndpoint(stack.Endpoint),
		s3.WithStaticCredentials("test", "test", ""),
		s3.WithForcePathStyle(true),
		s3.WithPartSize(5*1024*1024),
		s3.WithMultipartThreshold(5*1024*1024),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func getObject(t *testing.T, client *awss3.Client, bucket, key string) []byte {
	t.Helper()

	out, err := client.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	require.NoError(t, err)
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	return data
}

// TestIntegrationMoveRoundTrip moves a directory up to S3, across buckets and
// back down, checking that every hop removes its source.
func TestIntegrationMoveRoundTrip(t *testing.T) {
	stack, raw := testutil.SetupLocalStackTest(t)
	client := newIntegrationClient(t, stack)
	ctx := context.Background()

	first := testutil.GenerateTestBucketName("mv-first")
	second := testutil.GenerateTestBucketName("mv-second")
	testutil.CreateTestBucketInLocalStack(t, raw, first)
	testutil.CreateTestBucketInLocalStack(t, raw, second)

	src := t.TempDir()
	large := testutil.GenerateRandomData(11 * 1024 * 1024)
	files := map[string][]byte{
		"small.txt":       []byte("hello"),
		"nested/deep.txt": []byte("deep"),
		"nested/big.bin":  large,
		"skip.jpg":        []byte("jpg"),
	}
	for rel, data := range files {
		path := filepath.Join(src, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}

	reporter := &testutil.MockReporter{}
	result, err := client.Move(ctx, src, "s3://"+first+"/up/",
		s3.WithRecursive(true),
		s3.WithExclude("*.jpg"),
		s3.WithACL(s3types.ACLPublicRead),
		s3.WithReporter(reporter),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 3, reporter.PlannedFiles)
	assert.Equal(t, 5, reporter.PlannedParts, "the 11 MiB file is sent in three parts")
	assert.Equal(t, reporter.PlannedParts, reporter.PartsDone())

	assert.Equal(t, large, getObject(t, raw, first, "up/nested/big.bin"))
	_, err = os.Stat(filepath.Join(src, "small.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(src, "skip.jpg"))
	assert.NoError(t, err, "excluded file stays in place")

	result, err = client.Move(ctx, "s3://"+first+"/up", "s3://"+second+"/copied/", s3.WithRecursive(true))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, large, getObject(t, raw, second, "copied/nested/big.bin"))

	listed, err := raw.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{Bucket: aws.String(first)})
	require.NoError(t, err)
	assert.Empty(t, listed.Contents)

	dest := t.TempDir()
	result, err = client.Move(ctx, "s3://"+second+"/copied/", dest+string(filepath.Separator), s3.WithRecursive(true))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)

	data, err := os.ReadFile(filepath.Join(dest, "nested", "big.bin"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(large, data))
}

// TestIntegrationMoveSingleObject covers renaming a single object and the
// missing key error.
func TestIntegrationMoveSingleObject(t *testing.T) {
	stack, raw := testutil.SetupLocalStackTest(t)
	client := newIntegrationClient(t, stack)
	ctx := context.Background()

	bucket := testutil.GenerateTestBucketName("mv-single")
	testutil.CreateTestBucketInLocalStack(t, raw, bucket)

	key := testutil.GenerateTestKey("single")
	_, err := raw.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader([]byte("payload")),
	})
	require.NoError(t, err)

	result, err := client.Move(ctx, "s3://"+bucket+"/"+key, "s3://"+bucket+"/renamed.txt",
		s3.WithObjectParams(s3types.ObjectParams{ContentType: "text/plain", Metadata: map[string]string{"origin": "test"}}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	head, err := raw.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String("renamed.txt")})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", aws.ToString(head.ContentType))
	assert.Equal(t, "test", head.Metadata["origin"])

	_, err = client.Move(ctx, "s3://"+bucket+"/"+key, t.TempDir()+"/")
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
	assert.Equal(t, `Key "`+key+`" does not exist`, errors.Describe(err))
}
