// Package s3types provides shared type definitions for the S3 module.
package s3types

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/s3mv/fs"
)

// StorageClass represents the S3 storage class for objects.
type StorageClass string

// Predefined S3 storage classes
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// StorageClasses lists every storage class accepted for a destination object.
var StorageClasses = []StorageClass{
	StorageClassStandard,
	StorageClassReducedRedundancy,
	StorageClassStandardIA,
	StorageClassOneZoneIA,
	StorageClassIntelligentTiering,
	StorageClassGlacier,
	StorageClassDeepArchive,
	StorageClassGlacierIR,
}

// SSEType represents the server-side encryption type for objects.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses S3-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses AWS KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"
)

// ObjectACL represents the canned access control list for S3 objects.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access (default)
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerRead grants bucket owner read access
	ACLOwnerRead ObjectACL = "bucket-owner-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"

	// ACLAWSExecRead grants EC2 read access to AMI bundles
	ACLAWSExecRead ObjectACL = "aws-exec-read"
)

// ACLs lists every canned ACL accepted for a destination object.
var ACLs = []ObjectACL{
	ACLPrivate,
	ACLPublicRead,
	ACLPublicReadWrite,
	ACLAuthenticatedRead,
	ACLOwnerRead,
	ACLOwnerFullControl,
	ACLAWSExecRead,
}

// MetadataDirective controls whether a server-side copy keeps or replaces
// the source object's metadata.
type MetadataDirective string

const (
	// MetadataDirectiveCopy keeps the source metadata
	MetadataDirectiveCopy MetadataDirective = "COPY"

	// MetadataDirectiveReplace uses the metadata supplied with the request
	MetadataDirectiveReplace MetadataDirective = "REPLACE"
)

// PathType identifies which side of a transfer a path lives on.
type PathType string

const (
	// PathLocal is a path on the local filesystem
	PathLocal PathType = "local"

	// PathS3 is a bucket/key path in S3
	PathS3 PathType = "s3"
)

// TransferOperation is the concrete transfer a move performs before removing
// its source.
type TransferOperation string

const (
	// TransferUpload moves a local file into S3
	TransferUpload TransferOperation = "upload"

	// TransferDownload moves an S3 object onto the local filesystem
	TransferDownload TransferOperation = "download"

	// TransferCopy moves an S3 object to another S3 location
	TransferCopy TransferOperation = "copy"
)

// FilterType is the kind of an include/exclude rule.
type FilterType string

const (
	// FilterInclude re-includes matching paths
	FilterInclude FilterType = "include"

	// FilterExclude removes matching paths
	FilterExclude FilterType = "exclude"
)

// FilterRule is a single include or exclude pattern. Rules are evaluated in
// order and the last matching rule decides.
type FilterRule struct {
	Type    FilterType
	Pattern string
}

// SourceFile is a file or object enumerated from the move source.
type SourceFile struct {
	// Path is an absolute local path or a "bucket/key" path
	Path string

	// Type is the side the path lives on
	Type PathType

	// Size is the size in bytes
	Size int64

	// LastModified is the modification time of the file or object
	LastModified time.Time

	// ETag is set for S3 objects
	ETag string
}

// SSEConfig contains server-side encryption configuration.
type SSEConfig struct {
	// Type is the encryption type (S3 or KMS)
	Type SSEType

	// KMSKeyID is the KMS key ID, only used with SSE-KMS
	KMSKeyID string
}

// Grants holds explicit grantee lists per permission, in the header format
// S3 expects (e.g. `uri="http://acs.amazonaws.com/groups/global/AllUsers"`).
type Grants struct {
	Read        string
	ReadACP     string
	WriteACP    string
	FullControl string
}

// IsZero reports whether no grant is set.
func (g Grants) IsZero() bool {
	return g == Grants{}
}

// ObjectParams are the attributes applied to a destination S3 object.
type ObjectParams struct {
	ACL                ObjectACL
	Grants             Grants
	SSE                *SSEConfig
	StorageClass       StorageClass
	WebsiteRedirect    string
	ContentType        string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	Expires            *time.Time
	Metadata           map[string]string
	MetadataDirective  MetadataDirective
}

// HasReplacementHeaders reports whether any content header or metadata was
// supplied, which makes a server-side copy replace the source metadata.
func (p *ObjectParams) HasReplacementHeaders() bool {
	return p.ContentType != "" ||
		p.CacheControl != "" ||
		p.ContentDisposition != "" ||
		p.ContentEncoding != "" ||
		p.ContentLanguage != "" ||
		p.Expires != nil ||
		len(p.Metadata) > 0
}

// MoveEvent describes the outcome of a single planned move.
type MoveEvent struct {
	Operation TransferOperation
	Src       string
	Dest      string
	SrcType   PathType
	DestType  PathType
	Size      int64
	DryRun    bool

	// Err is set when the move failed
	Err error

	// Warning is set when the move was skipped
	Warning string
}

// MoveReporter receives progress and results while a move runs.
// Implementations must be safe for concurrent use.
type MoveReporter interface {
	// Planned is called once enumeration finished with the totals
	Planned(files, parts int)

	// PartDone is called whenever one part of a transfer completes
	PartDone()

	// Done is called once per planned move
	Done(event MoveEvent)
}

// MoveError represents a move that failed.
type MoveError struct {
	Src  string
	Dest string
	Err  error
}

// MoveResult contains the result of a move operation.
type MoveResult struct {
	// Succeeded is the number of files or objects moved
	Succeeded int

	// Failed is the number of moves that failed
	Failed int

	// Skipped is the number of moves skipped with a warning
	Skipped int

	// BytesTransferred is the total size of the moved files
	BytesTransferred int64

	// Errors contains one entry per failed move
	Errors []MoveError

	// Duration is how long the operation took
	Duration time.Duration
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the S3 object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// ETag is the S3 entity tag for the uploaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the S3 object key that was downloaded
	Key string

	// Size is the size of the downloaded object in bytes
	Size int64

	// ETag is the S3 entity tag for the downloaded object
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the S3 client.
type ClientConfig struct {
	Region             string
	Endpoint           string
	Profile            string
	Credentials        aws.CredentialsProvider
	MaxRetries         int
	Timeout            time.Duration
	Concurrency        int
	PartSize           int64
	MultipartThreshold int64
	RequestsPerSecond  float64
	ForcePathStyle     bool
	CustomAWSConfig    *aws.Config
	InsecureSkipVerify bool
	CustomHTTPClient   *http.Client
	Logger             *slog.Logger
	Filesystem         fs.Filesystem // Filesystem abstraction for file operations
}

// MoveOptionConfig holds configuration for move operations via functional options.
type MoveOptionConfig struct {
	Recursive   bool
	DryRun      bool
	Filters     []FilterRule
	Params      ObjectParams
	Reporter    MoveReporter
	Concurrency int
}

// Option is a functional option for configuring the S3 client.
type (
	Option func(*ClientConfig)
	// MoveOption is a functional option for configuring S3 move operations.
	MoveOption func(*MoveOptionConfig)
)
