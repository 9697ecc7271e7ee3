package s3

import (
	"github.com/input-output-hk/s3mv/aws/s3/internal/move/location"
	"github.com/input-output-hk/s3mv/aws/s3/internal/validation"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// RawObjectParams holds object parameters as they are written on a command
// line, before parsing.
type RawObjectParams struct {
	ACL                string
	Grants             []string
	SSE                string
	SSEKMSKeyID        string
	StorageClass       string
	WebsiteRedirect    string
	ContentType        string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	Expires            string
	Metadata           []string
	MetadataDirective  string
}

// ParseObjectParams parses and validates raw into the parameters applied to
// destination objects. Every error is an ErrInvalidInput.
func ParseObjectParams(raw RawObjectParams) (s3types.ObjectParams, error) {
	params := s3types.ObjectParams{
		ACL:                s3types.ObjectACL(raw.ACL),
		StorageClass:       s3types.StorageClass(raw.StorageClass),
		WebsiteRedirect:    raw.WebsiteRedirect,
		ContentType:        raw.ContentType,
		CacheControl:       raw.CacheControl,
		ContentDisposition: raw.ContentDisposition,
		ContentEncoding:    raw.ContentEncoding,
		ContentLanguage:    raw.ContentLanguage,
		MetadataDirective:  s3types.MetadataDirective(raw.MetadataDirective),
	}

	grants, err := validation.ParseGrants(raw.Grants)
	if err != nil {
		return s3types.ObjectParams{}, err //nolint:wrapcheck // already an *errors.Error
	}
	params.Grants = grants

	switch {
	case raw.SSE != "":
		params.SSE = &s3types.SSEConfig{Type: s3types.SSEType(raw.SSE), KMSKeyID: raw.SSEKMSKeyID}
	case raw.SSEKMSKeyID != "":
		params.SSE = &s3types.SSEConfig{Type: s3types.SSEKMS, KMSKeyID: raw.SSEKMSKeyID}
	}

	if params.Expires, err = validation.ParseExpires(raw.Expires); err != nil {
		return s3types.ObjectParams{}, err //nolint:wrapcheck // already an *errors.Error
	}
	if params.Metadata, err = validation.ParseMetadata(raw.Metadata); err != nil {
		return s3types.ObjectParams{}, err //nolint:wrapcheck // already an *errors.Error
	}

	if err := validation.ValidateParams(&params); err != nil {
		return s3types.ObjectParams{}, err //nolint:wrapcheck // already an *errors.Error
	}
	return params, nil
}

// DisplayPath renders a path from a MoveEvent the way it is printed: S3
// paths with the s3:// scheme, local paths relative to cwd when possible.
func DisplayPath(path string, pathType s3types.PathType, cwd string) string {
	return location.Display(path, pathType, cwd)
}
