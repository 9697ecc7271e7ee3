package s3

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
)

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the region from the credential chain, then us-east-1.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithProfile selects a named profile from the shared AWS config files.
func WithProfile(profile string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Profile = profile
	}
}

// WithStaticCredentials uses fixed credentials instead of the default chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed requests.
// Default is 3 retries. Set to 0 to disable retries.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual HTTP requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the maximum number of S3 requests in flight. It is
// also the default number of files moved at once.
// Default is 10.
func WithConcurrency(concurrency int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithRequestsPerSecond caps the rate of S3 requests. Zero disables the cap.
func WithRequestsPerSecond(perSecond float64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.RequestsPerSecond = perSecond
	}
}

// WithPartSize sets the chunk size for multipart transfers.
// Default is 8MB. S3 requires at least 5MB for every part but the last.
func WithPartSize(partSize int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithMultipartThreshold sets the size from which transfers use multipart.
// Default is 8MB.
func WithMultipartThreshold(threshold int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.InsecureSkipVerify = skip
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
// Timeout and TLS options are ignored when it is set.
func WithCustomHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithLogger sets the logger for the client. A nil logger disables logging.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets a custom filesystem implementation for the local side
// of a move. If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithRecursive moves every file or object under the source.
func WithRecursive(recursive bool) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Recursive = recursive
	}
}

// WithDryRun reports the moves that would be performed without performing them.
func WithDryRun(dryRun bool) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.DryRun = dryRun
	}
}

// WithInclude appends an include rule. Rules are applied in the order given.
func WithInclude(pattern string) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Filters = append(c.Filters, s3types.FilterRule{Type: s3types.FilterInclude, Pattern: pattern})
	}
}

// WithExclude appends an exclude rule. Rules are applied in the order given.
func WithExclude(pattern string) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Filters = append(c.Filters, s3types.FilterRule{Type: s3types.FilterExclude, Pattern: pattern})
	}
}

// WithFilters appends rules in order.
func WithFilters(rules ...s3types.FilterRule) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Filters = append(c.Filters, rules...)
	}
}

// WithObjectParams sets the attributes applied to S3 destination objects.
func WithObjectParams(params s3types.ObjectParams) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Params = params
	}
}

// WithACL sets the canned ACL of S3 destination objects.
func WithACL(acl s3types.ObjectACL) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Params.ACL = acl
	}
}

// WithReporter receives progress and per-file results.
func WithReporter(reporter s3types.MoveReporter) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		c.Reporter = reporter
	}
}

// WithMoveConcurrency sets how many files are moved at once, overriding the
// client concurrency for this move.
func WithMoveConcurrency(concurrency int) s3types.MoveOption {
	return func(c *s3types.MoveOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}
