package s3

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/internal/pool"
	"github.com/input-output-hk/s3mv/aws/s3/internal/s3api"
	"github.com/input-output-hk/s3mv/aws/s3/internal/transfer/multipart"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/fs"
	"github.com/input-output-hk/s3mv/fs/billy"
)

const (
	defaultRegion      = "us-east-1"
	defaultMaxRetries  = 3
	defaultConcurrency = 10
)

// Client represents an S3 client with configurable options.
// It provides thread-safe access to move operations with built-in
// retry logic, request limiting and progress reporting.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// config holds the resolved client configuration
	config s3types.ClientConfig

	// limiter bounds the S3 requests in flight across every move
	limiter *pool.RequestLimiter

	// httpClient is set when the client owns its transport
	httpClient *http.Client

	logger *slog.Logger

	// mu protects concurrent access to client configuration
	mu sync.RWMutex

	// fs is the filesystem abstraction for the local side of a move
	fs fs.Filesystem
}

// New creates a new S3 client with the provided options.
// It loads AWS credentials using the default credential chain
// and applies the specified configuration options.
//
// Example:
//
//	client, err := s3.New(
//	    s3.WithRegion("us-west-2"),
//	    s3.WithMaxRetries(3),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := newClientConfig(opts)

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.Profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(clientCfg.Profile))
		}
		if clientCfg.Credentials != nil {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(clientCfg.Credentials))
		}

		var err error
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	maxRetries := clientCfg.MaxRetries
	cfg.Retryer = func() aws.Retryer {
		return newRetryer(maxRetries)
	}
	transport := httpClient(clientCfg)
	cfg.HTTPClient = transport

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = clientCfg.ForcePathStyle
		if clientCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(clientCfg.Endpoint)
		}
	})

	client := newClient(s3Client, clientCfg)
	client.httpClient = transport
	client.debug("s3 client created",
		"region", cfg.Region,
		"endpoint", clientCfg.Endpoint,
		"concurrency", clientCfg.Concurrency,
	)
	return client, nil
}

// NewWithClient creates a new S3 client with a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	return newClient(s3Client, newClientConfig(opts))
}

func newClientConfig(opts []s3types.Option) *s3types.ClientConfig {
	clientCfg := &s3types.ClientConfig{
		MaxRetries:         defaultMaxRetries,
		Concurrency:        defaultConcurrency,
		PartSize:           multipart.DefaultPartSize,
		MultipartThreshold: multipart.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}
	return clientCfg
}

func newClient(s3Client s3api.S3API, clientCfg *s3types.ClientConfig) *Client {
	filesystem := clientCfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewBaseOSFS()
	}

	return &Client{
		s3Client: s3Client,
		config:   *clientCfg,
		limiter:  pool.NewRequestLimiter(clientCfg.Concurrency, clientCfg.RequestsPerSecond),
		logger:   clientCfg.Logger,
		fs:       filesystem,
	}
}

// httpClient returns the client the SDK sends requests with: the configured
// one, or a pooled cleanhttp client sized for the configured concurrency.
func httpClient(clientCfg *s3types.ClientConfig) *http.Client {
	if clientCfg.CustomHTTPClient != nil {
		return clientCfg.CustomHTTPClient
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = clientCfg.Timeout
	if transport, ok := client.Transport.(*http.Transport); ok {
		transport.MaxIdleConnsPerHost = clientCfg.Concurrency
		if clientCfg.InsecureSkipVerify {
			//nolint:gosec // explicitly requested with --no-verify-ssl
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return client
}

// Filesystem returns the filesystem local paths are resolved against.
func (c *Client) Filesystem() fs.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// SetFilesystem sets the filesystem implementation for the client.
// This is useful for testing or when the filesystem needs to be changed after creation.
func (c *Client) SetFilesystem(filesystem fs.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

func (c *Client) getClientConfig() s3types.ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
