package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/input-output-hk/s3mv/aws/s3"
	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
	"github.com/input-output-hk/s3mv/cli/output"
)

type moveFlags struct {
	recursive      bool
	dryRun         bool
	quiet          bool
	onlyShowErrors bool
	noProgress     bool
	filters        []s3types.FilterRule
	params         s3.RawObjectParams
}

// filterValue appends rules of one type to a list shared by --include and
// --exclude, so the order across both flags is kept.
type filterValue struct {
	rules      *[]s3types.FilterRule
	filterType s3types.FilterType
}

var _ pflag.Value = (*filterValue)(nil)

func (f *filterValue) String() string {
	var patterns []string
	for _, r := range *f.rules {
		if r.Type == f.filterType {
			patterns = append(patterns, r.Pattern)
		}
	}
	return "[" + strings.Join(patterns, ",") + "]"
}

func (f *filterValue) Set(pattern string) error {
	*f.rules = append(*f.rules, s3types.FilterRule{Type: f.filterType, Pattern: pattern})
	return nil
}

func (f *filterValue) Type() string {
	return "pattern"
}

func MoveCommand() *cobra.Command {
	var f moveFlags

	cmd := &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move a local file or S3 object to another location",
		Long: `Moves a local file or S3 object to another location locally or in S3.
Remote locations are written as s3://bucket/key or s3://bucket/prefix/.`,
		Example: `  s3mv mv test.txt s3://mybucket/test2.txt
  s3mv mv s3://mybucket/test.txt s3://mybucket2/
  s3mv mv s3://mybucket/logs/ ./logs --recursive --exclude "*" --include "*.log"
  s3mv mv ./photos s3://mybucket/photos/ --recursive --exclude "*.jpg" --acl public-read`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, args[0], args[1], &f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.recursive, "recursive", false, "Move all files or objects under the specified directory or prefix")
	flags.Var(&filterValue{rules: &f.filters, filterType: s3types.FilterExclude}, "exclude",
		"Exclude all files or objects that match the pattern (repeatable)")
	flags.Var(&filterValue{rules: &f.filters, filterType: s3types.FilterInclude}, "include",
		"Don't exclude files or objects that match the pattern (repeatable)")
	flags.BoolVar(&f.dryRun, "dryrun", false, "Display the operations that would be performed without running them")
	flags.BoolVar(&f.quiet, "quiet", false, "Do not display the operations performed")
	flags.BoolVar(&f.onlyShowErrors, "only-show-errors", false, "Only display errors and warnings")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Do not display the progress line")

	flags.StringVar(&f.params.ACL, "acl", "", "Canned ACL to apply to the destination objects")
	flags.StringArrayVar(&f.params.Grants, "grants", nil,
		"Grant permissions to users, as Permission=Grantee_Type=Grantee_ID (repeatable)")
	flags.StringVar(&f.params.SSE, "sse", "", "Server-side encryption, AES256 or aws:kms")
	flags.Lookup("sse").NoOptDefVal = string(s3types.SSES3)
	flags.StringVar(&f.params.SSEKMSKeyID, "sse-kms-key-id", "", "KMS key id used for aws:kms encryption")
	flags.StringVar(&f.params.StorageClass, "storage-class", "", "Storage class of the destination objects")
	flags.StringVar(&f.params.WebsiteRedirect, "website-redirect", "", "Redirect requests for the object to this location")
	flags.StringVar(&f.params.ContentType, "content-type", "", "Content type of the destination objects")
	flags.StringVar(&f.params.CacheControl, "cache-control", "", "Cache-Control header of the destination objects")
	flags.StringVar(&f.params.ContentDisposition, "content-disposition", "", "Content-Disposition header of the destination objects")
	flags.StringVar(&f.params.ContentEncoding, "content-encoding", "", "Content-Encoding header of the destination objects")
	flags.StringVar(&f.params.ContentLanguage, "content-language", "", "Content-Language header of the destination objects")
	flags.StringVar(&f.params.Expires, "expires", "", "Expires header of the destination objects (RFC3339, RFC1123 or YYYY-MM-DD)")
	flags.StringArrayVar(&f.params.Metadata, "metadata", nil, "User metadata as key=value[,key=value]")
	flags.StringVar(&f.params.MetadataDirective, "metadata-directive", "",
		"COPY or REPLACE the source metadata on S3 to S3 moves")

	return cmd
}

func runMove(cmd *cobra.Command, src, dest string, f *moveFlags) error {
	app := getAppData(cmd)
	if app == nil {
		return &ExitError{Code: ExitUsage, Err: errors.New("configuration not loaded")}
	}
	defer app.close()

	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cwd, output.Options{
		Quiet:          f.quiet,
		OnlyShowErrors: f.onlyShowErrors,
		NoProgress:     f.noProgress,
	})

	params, err := s3.ParseObjectParams(f.params)
	if err != nil {
		return fail(ctx, printer, err)
	}

	client, err := newClient(app)
	if err != nil {
		printer.Fatal(s3errors.Describe(err))
		return &ExitError{Code: ExitUsage, Err: err, Silent: true}
	}
	defer func() { _ = client.Close() }()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			printer.Message("Cleaning up. Please wait...")
		case <-finished:
		}
	}()

	result, err := client.Move(ctx, src, dest,
		s3.WithRecursive(f.recursive),
		s3.WithDryRun(f.dryRun),
		s3.WithFilters(f.filters...),
		s3.WithObjectParams(params),
		s3.WithReporter(printer),
	)
	printer.Finish()

	if err != nil {
		return fail(ctx, printer, err)
	}
	if ctx.Err() != nil {
		return &ExitError{Code: ExitInterrupted, Err: ctx.Err(), Silent: true}
	}
	if result.Failed > 0 {
		return &ExitError{Code: ExitFailed, Err: fmt.Errorf("%d move(s) failed", result.Failed), Silent: true}
	}
	return nil
}

// fail prints err the way its exit code is reported and returns the
// matching ExitError.
func fail(ctx context.Context, printer *output.Printer, err error) error {
	code := classify(ctx, err)
	switch code {
	case ExitInterrupted:
	case ExitUsage:
		printer.Message(s3errors.Describe(err))
	default:
		printer.Fatal(s3errors.Describe(err))
	}
	return &ExitError{Code: code, Err: err, Silent: true}
}

// newClient creates the S3 client for the loaded configuration.
func newClient(app *appData) (*s3.Client, error) {
	cfg := app.config

	threshold, chunksize, err := cfg.Sizes()
	if err != nil {
		return nil, err
	}

	opts := []s3types.Option{
		s3.WithLogger(app.logger),
		s3.WithMaxRetries(cfg.MaxRetries),
		s3.WithConcurrency(cfg.MaxConcurrentRequests),
		s3.WithRequestsPerSecond(cfg.MaxRequestsPerSecond),
		s3.WithMultipartThreshold(threshold),
		s3.WithPartSize(chunksize),
		s3.WithForcePathStyle(cfg.ForcePathStyle),
		s3.WithInsecureSkipVerify(cfg.NoVerifySSL),
	}
	if cfg.Region != "" {
		opts = append(opts, s3.WithRegion(cfg.Region))
	}
	if cfg.EndpointURL != "" {
		opts = append(opts, s3.WithEndpoint(cfg.EndpointURL))
	}
	if cfg.Profile != "" {
		opts = append(opts, s3.WithProfile(cfg.Profile))
	}

	return s3.New(opts...)
}
