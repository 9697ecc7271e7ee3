// Package validation provides input validation for S3 move parameters.
package validation

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

const (
	maxBucketNameLength    = 255
	maxObjectKeyLength     = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

var (
	// Legacy buckets may carry uppercase letters and underscores, so only
	// characters that can never appear in a bucket name are rejected here.
	bucketNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	contentTypeRegex = regexp.MustCompile(
		`^[a-zA-Z0-9][a-zA-Z0-9!#$&\-\^_.+]*/[a-zA-Z0-9][a-zA-Z0-9!#$&\-\^_.+]*(\s*;.*)?$`,
	)

	reservedMetadataPrefixes = []string{"x-amz-", "aws:"}

	grantPermissions = []string{"read", "readacl", "writeacl", "full"}

	expiresLayouts = []string{
		time.RFC3339,
		time.RFC1123,
		time.RFC1123Z,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
)

// ValidateBucketName rejects bucket names S3 can never accept.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return s3errors.NewError("validate", s3errors.ErrInvalidBucketName).
			WithMessage("bucket name cannot be empty")
	}

	if len(bucket) > maxBucketNameLength {
		return s3errors.NewError("validate", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(fmt.Sprintf("bucket name must be at most %d characters long", maxBucketNameLength))
	}

	if !bucketNameRegex.MatchString(bucket) {
		return s3errors.NewError("validate", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage("bucket name can only contain letters, numbers, dots, hyphens, and underscores")
	}

	if net.ParseIP(bucket) != nil {
		return s3errors.NewError("validate", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage("bucket name cannot be formatted as an IP address")
	}

	return nil
}

// ValidateObjectKey validates a destination object key.
func ValidateObjectKey(key string) error {
	if key == "" {
		return invalidKey("", "object key cannot be empty")
	}

	if len(key) > maxObjectKeyLength {
		return invalidKey(key, fmt.Sprintf("object key must be at most %d bytes long", maxObjectKeyLength))
	}

	if !utf8.ValidString(key) {
		return invalidKey(key, "object key must be valid UTF-8")
	}

	for _, r := range key {
		if r < 32 || r == 127 {
			return invalidKey(key, "object key cannot contain control characters")
		}
	}

	return nil
}

// invalidKey reports key as invalid. Describe returns message.
func invalidKey(key, message string) error {
	return s3errors.NewError("validate", s3errors.Describef(s3errors.ErrInvalidObjectKey, "%s", message)).
		WithKey(key)
}

// ValidateRelativePath checks that a path derived from an object key stays
// inside the directory it is joined onto.
func ValidateRelativePath(rel string) error {
	if rel == "" {
		return nil
	}

	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") || hasDriveLetter(rel) {
		return invalidKey(rel, "path traversal detected: absolute path")
	}

	for _, segment := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return invalidKey(rel, "path traversal detected: parent directory reference")
		}
	}

	return nil
}

func hasDriveLetter(path string) bool {
	return len(path) >= 2 && path[1] == ':' && unicode.IsLetter(rune(path[0]))
}

// SanitizeMetadata returns a copy of metadata with control characters
// stripped from keys and values. Tabs and newlines in values are kept.
func SanitizeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}

	sanitized := make(map[string]string, len(metadata))
	for k, v := range metadata {
		key := strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, k)
		value := strings.Map(func(r rune) rune {
			if unicode.IsControl(r) && r != '\n' && r != '\t' {
				return -1
			}
			return r
		}, v)
		sanitized[key] = value
	}

	return sanitized
}

// ValidateMetadata validates user metadata keys and values.
func ValidateMetadata(metadata map[string]string) error {
	for k, v := range metadata {
		if k == "" {
			return s3errors.NewValidationError("metadata key cannot be empty")
		}

		if len(k) > maxMetadataKeyLength {
			return s3errors.NewValidationError(
				fmt.Sprintf("metadata key %q must be at most %d characters long", k, maxMetadataKeyLength),
			)
		}

		lower := strings.ToLower(k)
		for _, prefix := range reservedMetadataPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return s3errors.NewValidationError(
					fmt.Sprintf("metadata key %q cannot start with reserved prefix %q", k, prefix),
				)
			}
		}

		for _, r := range k {
			if r < 33 || r > 126 || r == ':' {
				return s3errors.NewValidationError(
					fmt.Sprintf("metadata key %q contains invalid characters", k),
				)
			}
		}

		if len(v) > maxMetadataValueLength {
			return s3errors.NewValidationError(
				fmt.Sprintf("metadata value for key %q must be at most %d characters long", k, maxMetadataValueLength),
			)
		}
	}

	return nil
}

// ParseMetadata parses "key=value" pairs separated by commas.
func ParseMetadata(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	metadata := make(map[string]string)
	for _, entry := range raw {
		for _, pair := range strings.Split(entry, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, s3errors.NewValidationError(
					fmt.Sprintf("metadata must be of the form key=value: %q", pair),
				)
			}
			metadata[strings.TrimSpace(key)] = value
		}
	}

	metadata = SanitizeMetadata(metadata)
	if err := ValidateMetadata(metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// ValidateContentType checks that contentType looks like a MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	if !contentTypeRegex.MatchString(contentType) {
		return s3errors.NewValidationError(
			fmt.Sprintf("content type must be a valid MIME type: %q", contentType),
		)
	}

	return nil
}

// ValidateACL checks acl against the canned ACLs S3 accepts.
func ValidateACL(acl string) error {
	if acl == "" {
		return nil
	}

	if slices.Contains(s3types.ACLs, s3types.ObjectACL(acl)) {
		return nil
	}

	names := make([]string, len(s3types.ACLs))
	for i, a := range s3types.ACLs {
		names[i] = string(a)
	}
	return s3errors.NewValidationError(
		fmt.Sprintf("ACL must be one of: %s", strings.Join(names, ", ")),
	)
}

// ValidateStorageClass checks class against the supported storage classes.
func ValidateStorageClass(class string) error {
	if class == "" {
		return nil
	}

	if slices.Contains(s3types.StorageClasses, s3types.StorageClass(class)) {
		return nil
	}

	names := make([]string, len(s3types.StorageClasses))
	for i, c := range s3types.StorageClasses {
		names[i] = string(c)
	}
	return s3errors.NewValidationError(
		fmt.Sprintf("storage class must be one of: %s", strings.Join(names, ", ")),
	)
}

// ValidateSSE checks the server-side encryption settings.
func ValidateSSE(sse *s3types.SSEConfig) error {
	if sse == nil {
		return nil
	}

	switch sse.Type {
	case s3types.SSES3:
		if sse.KMSKeyID != "" {
			return s3errors.NewValidationError("a KMS key id requires aws:kms server-side encryption")
		}
	case s3types.SSEKMS:
	default:
		return s3errors.NewValidationError(
			fmt.Sprintf("server-side encryption must be one of: %s, %s", s3types.SSES3, s3types.SSEKMS),
		)
	}

	return nil
}

// ParseGrants parses grants of the form "permission=grantee[,grantee...]".
// Grantees given for the same permission more than once are joined.
func ParseGrants(raw []string) (s3types.Grants, error) {
	var grants s3types.Grants

	for _, entry := range raw {
		permission, grantee, ok := strings.Cut(entry, "=")
		if !ok || grantee == "" {
			return s3types.Grants{}, s3errors.NewValidationError(
				"grants should be of the form permission=principal",
			)
		}

		var target *string
		switch permission {
		case "read":
			target = &grants.Read
		case "readacl":
			target = &grants.ReadACP
		case "writeacl":
			target = &grants.WriteACP
		case "full":
			target = &grants.FullControl
		default:
			return s3types.Grants{}, s3errors.NewValidationError(
				fmt.Sprintf("permission must be one of: %s", strings.Join(grantPermissions, "|")),
			)
		}

		if *target != "" {
			*target += ","
		}
		*target += grantee
	}

	return grants, nil
}

// ParseExpires parses an Expires header value. RFC 3339, RFC 1123 and plain
// dates are accepted; the result is in UTC.
func ParseExpires(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, s3errors.NewValidationError(
		fmt.Sprintf("invalid expires timestamp %q", value),
	)
}

// ValidateMetadataDirective checks the directive used for server-side copies.
func ValidateMetadataDirective(directive string) error {
	switch s3types.MetadataDirective(directive) {
	case "", s3types.MetadataDirectiveCopy, s3types.MetadataDirectiveReplace:
		return nil
	}
	return s3errors.NewValidationError(
		fmt.Sprintf("metadata directive must be one of: %s, %s",
			s3types.MetadataDirectiveCopy, s3types.MetadataDirectiveReplace),
	)
}

// ValidateParams validates every attribute that will be applied to a
// destination object.
func ValidateParams(params *s3types.ObjectParams) error {
	if params == nil {
		return nil
	}
	if err := ValidateACL(string(params.ACL)); err != nil {
		return err
	}
	if err := ValidateStorageClass(string(params.StorageClass)); err != nil {
		return err
	}
	if err := ValidateSSE(params.SSE); err != nil {
		return err
	}
	if err := ValidateContentType(params.ContentType); err != nil {
		return err
	}
	if err := ValidateMetadata(params.Metadata); err != nil {
		return err
	}
	return ValidateMetadataDirective(string(params.MetadataDirective))
}
