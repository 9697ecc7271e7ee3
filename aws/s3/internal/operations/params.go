package operations

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// TransferConfig carries the settings shared by every transfer operation.
type TransferConfig struct {
	// Params are applied to the destination object
	Params *s3types.ObjectParams

	// MultipartThreshold is the size at which transfers switch to multipart
	MultipartThreshold int64

	// PartSize is the configured multipart chunk size
	PartSize int64

	// Concurrency bounds the parts of one transfer in flight at once
	Concurrency int

	// Limiter bounds in-flight requests across transfers; nil is unlimited
	Limiter *pool.RequestLimiter

	// OnPart is called whenever one part of the transfer completes
	OnPart func()
}

// PartDone invokes OnPart if set.
func (c *TransferConfig) PartDone() {
	if c != nil && c.OnPart != nil {
		c.OnPart()
	}
}

// ObjectParams returns the configured params, never nil.
func (c *TransferConfig) ObjectParams() *s3types.ObjectParams {
	if c == nil || c.Params == nil {
		return &s3types.ObjectParams{}
	}
	return c.Params
}

// RequestLimiter returns the configured limiter; nil is unlimited.
func (c *TransferConfig) RequestLimiter() *pool.RequestLimiter {
	if c == nil {
		return nil
	}
	return c.Limiter
}

func sse(cfg *s3types.SSEConfig) (awstypes.ServerSideEncryption, *string) {
	if cfg == nil {
		return "", nil
	}
	switch cfg.Type {
	case s3types.SSES3:
		return awstypes.ServerSideEncryptionAes256, nil
	case s3types.SSEKMS:
		if cfg.KMSKeyID != "" {
			return awstypes.ServerSideEncryptionAwsKms, aws.String(cfg.KMSKeyID)
		}
		return awstypes.ServerSideEncryptionAwsKms, nil
	}
	return "", nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// ApplyPut applies p to a PutObject request.
func ApplyPut(input *s3.PutObjectInput, p *s3types.ObjectParams) {
	if p == nil {
		return
	}
	if p.ACL != "" {
		input.ACL = awstypes.ObjectCannedACL(p.ACL)
	}
	input.GrantRead = optional(p.Grants.Read)
	input.GrantReadACP = optional(p.Grants.ReadACP)
	input.GrantWriteACP = optional(p.Grants.WriteACP)
	input.GrantFullControl = optional(p.Grants.FullControl)
	input.ServerSideEncryption, input.SSEKMSKeyId = sse(p.SSE)
	if p.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(p.StorageClass)
	}
	input.WebsiteRedirectLocation = optional(p.WebsiteRedirect)
	if p.ContentType != "" {
		input.ContentType = aws.String(p.ContentType)
	}
	input.CacheControl = optional(p.CacheControl)
	input.ContentDisposition = optional(p.ContentDisposition)
	input.ContentEncoding = optional(p.ContentEncoding)
	input.ContentLanguage = optional(p.ContentLanguage)
	input.Expires = p.Expires
	if len(p.Metadata) > 0 {
		input.Metadata = p.Metadata
	}
}

// ApplyCreateMultipart applies p to a CreateMultipartUpload request.
func ApplyCreateMultipart(input *s3.CreateMultipartUploadInput, p *s3types.ObjectParams) {
	if p == nil {
		return
	}
	if p.ACL != "" {
		input.ACL = awstypes.ObjectCannedACL(p.ACL)
	}
	input.GrantRead = optional(p.Grants.Read)
	input.GrantReadACP = optional(p.Grants.ReadACP)
	input.GrantWriteACP = optional(p.Grants.WriteACP)
	input.GrantFullControl = optional(p.Grants.FullControl)
	input.ServerSideEncryption, input.SSEKMSKeyId = sse(p.SSE)
	if p.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(p.StorageClass)
	}
	input.WebsiteRedirectLocation = optional(p.WebsiteRedirect)
	if p.ContentType != "" {
		input.ContentType = aws.String(p.ContentType)
	}
	input.CacheControl = optional(p.CacheControl)
	input.ContentDisposition = optional(p.ContentDisposition)
	input.ContentEncoding = optional(p.ContentEncoding)
	input.ContentLanguage = optional(p.ContentLanguage)
	input.Expires = p.Expires
	if len(p.Metadata) > 0 {
		input.Metadata = p.Metadata
	}
}

// ApplyCopy applies p to a CopyObject request. The metadata directive
// defaults to REPLACE when any content header or metadata is set.
func ApplyCopy(input *s3.CopyObjectInput, p *s3types.ObjectParams) {
	if p == nil {
		return
	}
	if p.ACL != "" {
		input.ACL = awstypes.ObjectCannedACL(p.ACL)
	}
	input.GrantRead = optional(p.Grants.Read)
	input.GrantReadACP = optional(p.Grants.ReadACP)
	input.GrantWriteACP = optional(p.Grants.WriteACP)
	input.GrantFullControl = optional(p.Grants.FullControl)
	input.ServerSideEncryption, input.SSEKMSKeyId = sse(p.SSE)
	if p.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(p.StorageClass)
	}
	input.WebsiteRedirectLocation = optional(p.WebsiteRedirect)

	directive := EffectiveDirective(p)
	input.MetadataDirective = awstypes.MetadataDirective(directive)
	if directive != s3types.MetadataDirectiveReplace {
		return
	}

	input.ContentType = optional(p.ContentType)
	input.CacheControl = optional(p.CacheControl)
	input.ContentDisposition = optional(p.ContentDisposition)
	input.ContentEncoding = optional(p.ContentEncoding)
	input.ContentLanguage = optional(p.ContentLanguage)
	input.Expires = p.Expires
	if len(p.Metadata) > 0 {
		input.Metadata = p.Metadata
	}
}

// EffectiveDirective resolves the metadata directive of a server-side copy.
func EffectiveDirective(p *s3types.ObjectParams) s3types.MetadataDirective {
	if p == nil {
		return s3types.MetadataDirectiveCopy
	}
	if p.MetadataDirective != "" {
		return p.MetadataDirective
	}
	if p.HasReplacementHeaders() {
		return s3types.MetadataDirectiveReplace
	}
	return s3types.MetadataDirectiveCopy
}

// MergeSourceHeaders fills the content headers and metadata of p that are
// unset from a HeadObject response. Multipart copies use it to carry the
// source attributes over, since UploadPartCopy does not copy them.
func MergeSourceHeaders(p *s3types.ObjectParams, head *s3.HeadObjectOutput) *s3types.ObjectParams {
	merged := *p
	if head == nil {
		return &merged
	}
	if merged.ContentType == "" {
		merged.ContentType = aws.ToString(head.ContentType)
	}
	if merged.CacheControl == "" {
		merged.CacheControl = aws.ToString(head.CacheControl)
	}
	if merged.ContentDisposition == "" {
		merged.ContentDisposition = aws.ToString(head.ContentDisposition)
	}
	if merged.ContentEncoding == "" {
		merged.ContentEncoding = aws.ToString(head.ContentEncoding)
	}
	if merged.ContentLanguage == "" {
		merged.ContentLanguage = aws.ToString(head.ContentLanguage)
	}
	if merged.Expires == nil {
		merged.Expires = head.Expires
	}
	if len(merged.Metadata) == 0 && len(head.Metadata) > 0 {
		merged.Metadata = head.Metadata
	}
	return &merged
}
