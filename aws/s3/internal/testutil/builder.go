package testutil

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// StoredObject is an object held by a MemoryS3.
type StoredObject struct {
	Data               []byte
	ContentType        string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	Expires            *time.Time
	Metadata           map[string]string
	ACL                types.ObjectCannedACL
	GrantRead          string
	GrantFullControl   string
	StorageClass       types.StorageClass
	SSE                types.ServerSideEncryption
	SSEKMSKeyID        string
	WebsiteRedirect    string
	LastModified       time.Time
	ETag               string
}

type pendingUpload struct {
	bucket string
	key    string
	object StoredObject
	parts  map[int32][]byte
}

// MemoryS3 is a small S3 emulation covering the calls a move makes.
// Build returns a MockS3Client backed by it.
type MemoryS3 struct {
	mu       sync.Mutex
	buckets  map[string]map[string]*StoredObject
	uploads  map[string]*pendingUpload
	nextID   int
	calls    map[string]int
	failures map[string]error
	now      time.Time
}

// NewMemoryS3 creates an empty backend.
func NewMemoryS3() *MemoryS3 {
	return &MemoryS3{
		buckets:  make(map[string]map[string]*StoredObject),
		uploads:  make(map[string]*pendingUpload),
		calls:    make(map[string]int),
		failures: make(map[string]error),
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// WithBucket creates an empty bucket.
func (m *MemoryS3) WithBucket(bucket string) *MemoryS3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]*StoredObject)
	}
	return m
}

// WithObject stores data at bucket/key, creating the bucket if needed.
func (m *MemoryS3) WithObject(bucket, key string, data []byte) *MemoryS3 {
	m.WithBucket(bucket)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket][key] = &StoredObject{
		Data:         append([]byte(nil), data...),
		LastModified: m.now,
		ETag:         CalculateETag(data),
	}
	return m
}

// FailOn makes op ("PutObject", "DeleteObject", ...) on bucket/key return err.
func (m *MemoryS3) FailOn(op, bucket, key string, err error) *MemoryS3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+" "+bucket+"/"+key] = err
	return m
}

// Object returns a copy of the object at bucket/key.
func (m *MemoryS3) Object(bucket, key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return StoredObject{}, false
	}
	return *obj, true
}

// Keys returns the sorted keys of bucket.
func (m *MemoryS3) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how often op was called.
func (m *MemoryS3) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// PendingUploads returns the number of multipart uploads neither completed
// nor aborted.
func (m *MemoryS3) PendingUploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

// begin records a call and returns the configured failure, if any.
// The caller must hold m.mu.
func (m *MemoryS3) begin(op, bucket, key string) error {
	m.calls[op]++
	if err, ok := m.failures[op+" "+bucket+"/"+key]; ok {
		return err
	}
	if _, ok := m.buckets[bucket]; !ok {
		return &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	return nil
}

func (m *MemoryS3) store(bucket, key string, obj StoredObject) *StoredObject {
	m.now = m.now.Add(time.Second)
	obj.LastModified = m.now
	if obj.ETag == "" {
		obj.ETag = CalculateETag(obj.Data)
	}
	m.buckets[bucket][key] = &obj
	return &obj
}

// Build returns a MockS3Client whose calls operate on m.
//
//nolint:gocognit,funlen // one closure per S3 call
func (m *MemoryS3) Build() *MockS3Client {
	return &MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			var data []byte
			if in.Body != nil {
				var err error
				if data, err = io.ReadAll(in.Body); err != nil {
					return nil, err
				}
			}

			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("PutObject", bucket, key); err != nil {
				return nil, err
			}
			obj := m.store(bucket, key, StoredObject{
				Data:               data,
				ContentType:        aws.ToString(in.ContentType),
				CacheControl:       aws.ToString(in.CacheControl),
				ContentDisposition: aws.ToString(in.ContentDisposition),
				ContentEncoding:    aws.ToString(in.ContentEncoding),
				ContentLanguage:    aws.ToString(in.ContentLanguage),
				Expires:            in.Expires,
				Metadata:           in.Metadata,
				ACL:                in.ACL,
				GrantRead:          aws.ToString(in.GrantRead),
				GrantFullControl:   aws.ToString(in.GrantFullControl),
				StorageClass:       in.StorageClass,
				SSE:                in.ServerSideEncryption,
				SSEKMSKeyID:        aws.ToString(in.SSEKMSKeyId),
				WebsiteRedirect:    aws.ToString(in.WebsiteRedirectLocation),
			})
			return &s3.PutObjectOutput{ETag: aws.String(obj.ETag)}, nil
		},

		GetObjectFunc: func(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("GetObject", bucket, key); err != nil {
				return nil, err
			}
			obj, ok := m.buckets[bucket][key]
			if !ok {
				return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
			}
			data := append([]byte(nil), obj.Data...)
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader(string(data))),
				ContentLength: aws.Int64(int64(len(data))),
				ContentType:   aws.String(obj.ContentType),
				ETag:          aws.String(obj.ETag),
				LastModified:  aws.Time(obj.LastModified),
			}, nil
		},

		HeadObjectFunc: func(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("HeadObject", bucket, key); err != nil {
				return nil, err
			}
			obj, ok := m.buckets[bucket][key]
			if !ok {
				return nil, &types.NotFound{}
			}
			return &s3.HeadObjectOutput{
				ContentLength:   aws.Int64(int64(len(obj.Data))),
				ContentType:     aws.String(obj.ContentType),
				CacheControl:    optionalString(obj.CacheControl),
				ContentEncoding: optionalString(obj.ContentEncoding),
				ETag:            aws.String(obj.ETag),
				LastModified:    aws.Time(obj.LastModified),
				Metadata:        obj.Metadata,
			}, nil
		},

		DeleteObjectFunc: func(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("DeleteObject", bucket, key); err != nil {
				return nil, err
			}
			delete(m.buckets[bucket], key)
			return &s3.DeleteObjectOutput{}, nil
		},

		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket := aws.ToString(in.Bucket)
			if err := m.begin("ListObjectsV2", bucket, ""); err != nil {
				return nil, err
			}
			return m.list(bucket, in), nil
		},

		CopyObjectFunc: func(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("CopyObject", bucket, key); err != nil {
				return nil, err
			}
			src, err := m.source(aws.ToString(in.CopySource))
			if err != nil {
				return nil, err
			}

			obj := *src
			obj.Data = append([]byte(nil), src.Data...)
			obj.ETag = ""
			if in.MetadataDirective == types.MetadataDirectiveReplace {
				obj.ContentType = aws.ToString(in.ContentType)
				obj.CacheControl = aws.ToString(in.CacheControl)
				obj.ContentDisposition = aws.ToString(in.ContentDisposition)
				obj.ContentEncoding = aws.ToString(in.ContentEncoding)
				obj.ContentLanguage = aws.ToString(in.ContentLanguage)
				obj.Expires = in.Expires
				obj.Metadata = in.Metadata
			}
			obj.ACL = in.ACL
			obj.StorageClass = in.StorageClass
			obj.SSE = in.ServerSideEncryption
			stored := m.store(bucket, key, obj)
			return &s3.CopyObjectOutput{
				CopyObjectResult: &types.CopyObjectResult{ETag: aws.String(stored.ETag)},
			}, nil
		},

		CreateMultipartUploadFunc: func(
			_ context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.CreateMultipartUploadOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("CreateMultipartUpload", bucket, key); err != nil {
				return nil, err
			}
			m.nextID++
			id := fmt.Sprintf("upload-%d", m.nextID)
			m.uploads[id] = &pendingUpload{
				bucket: bucket,
				key:    key,
				object: StoredObject{
					ContentType:  aws.ToString(in.ContentType),
					CacheControl: aws.ToString(in.CacheControl),
					Metadata:     in.Metadata,
					ACL:          in.ACL,
					StorageClass: in.StorageClass,
					SSE:          in.ServerSideEncryption,
				},
				parts: make(map[int32][]byte),
			}
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
		},

		UploadPartFunc: func(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			data, err := io.ReadAll(in.Body)
			if err != nil {
				return nil, err
			}

			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("UploadPart", bucket, key); err != nil {
				return nil, err
			}
			upload, ok := m.uploads[aws.ToString(in.UploadId)]
			if !ok {
				return nil, &types.NoSuchUpload{}
			}
			upload.parts[aws.ToInt32(in.PartNumber)] = data
			return &s3.UploadPartOutput{ETag: aws.String(CalculateETag(data))}, nil
		},

		UploadPartCopyFunc: func(
			_ context.Context, in *s3.UploadPartCopyInput, _ ...func(*s3.Options),
		) (*s3.UploadPartCopyOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("UploadPartCopy", bucket, key); err != nil {
				return nil, err
			}
			upload, ok := m.uploads[aws.ToString(in.UploadId)]
			if !ok {
				return nil, &types.NoSuchUpload{}
			}
			src, err := m.source(aws.ToString(in.CopySource))
			if err != nil {
				return nil, err
			}

			var first, last int64
			if _, err := fmt.Sscanf(aws.ToString(in.CopySourceRange), "bytes=%d-%d", &first, &last); err != nil {
				return nil, fmt.Errorf("invalid copy range: %w", err)
			}
			if last >= int64(len(src.Data)) || first > last {
				return nil, fmt.Errorf("copy range %d-%d outside object of %d bytes", first, last, len(src.Data))
			}

			data := append([]byte(nil), src.Data[first:last+1]...)
			upload.parts[aws.ToInt32(in.PartNumber)] = data
			return &s3.UploadPartCopyOutput{
				CopyPartResult: &types.CopyPartResult{ETag: aws.String(CalculateETag(data))},
			}, nil
		},

		CompleteMultipartUploadFunc: func(
			_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.CompleteMultipartUploadOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
			if err := m.begin("CompleteMultipartUpload", bucket, key); err != nil {
				return nil, err
			}
			id := aws.ToString(in.UploadId)
			upload, ok := m.uploads[id]
			if !ok {
				return nil, &types.NoSuchUpload{}
			}

			var data []byte
			for _, part := range in.MultipartUpload.Parts {
				body, ok := upload.parts[aws.ToInt32(part.PartNumber)]
				if !ok {
					return nil, fmt.Errorf("part %d was not uploaded", aws.ToInt32(part.PartNumber))
				}
				data = append(data, body...)
			}
			delete(m.uploads, id)

			obj := upload.object
			obj.Data = data
			obj.ETag = fmt.Sprintf(`"%s-%d"`, strings.Trim(CalculateETag(data), `"`), len(in.MultipartUpload.Parts))
			stored := m.store(upload.bucket, upload.key, obj)
			return &s3.CompleteMultipartUploadOutput{ETag: aws.String(stored.ETag)}, nil
		},

		AbortMultipartUploadFunc: func(
			_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.AbortMultipartUploadOutput, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.calls["AbortMultipartUpload"]++
			delete(m.uploads, aws.ToString(in.UploadId))
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}
}

// list pages through bucket in key order. The caller must hold m.mu.
func (m *MemoryS3) list(bucket string, in *s3.ListObjectsV2Input) *s3.ListObjectsV2Output {
	prefix := aws.ToString(in.Prefix)
	after := aws.ToString(in.StartAfter)
	if token := aws.ToString(in.ContinuationToken); token != "" {
		after = token
	}
	maxKeys := int(aws.ToInt32(in.MaxKeys))
	if maxKeys <= 0 || maxKeys > 1000 {
		maxKeys = 1000
	}

	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		if strings.HasPrefix(k, prefix) && k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	truncated := len(keys) > maxKeys
	if truncated {
		keys = keys[:maxKeys]
	}

	out := &s3.ListObjectsV2Output{
		Name:        aws.String(bucket),
		Prefix:      aws.String(prefix),
		KeyCount:    aws.Int32(int32(len(keys))), //nolint:gosec // at most 1000
		IsTruncated: aws.Bool(truncated),
	}
	for _, k := range keys {
		obj := m.buckets[bucket][k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.Data))),
			ETag:         aws.String(obj.ETag),
			LastModified: aws.Time(obj.LastModified),
		})
	}
	if truncated {
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	return out
}

// source resolves an x-amz-copy-source value. The caller must hold m.mu.
func (m *MemoryS3) source(copySource string) (*StoredObject, error) {
	unescaped, err := url.PathUnescape(copySource)
	if err != nil {
		return nil, fmt.Errorf("invalid copy source %q: %w", copySource, err)
	}
	bucket, key, _ := strings.Cut(strings.TrimPrefix(unescaped, "/"), "/")
	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	obj, ok := objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return obj, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
