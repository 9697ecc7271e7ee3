package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

type rule struct {
	include bool
	pattern string
	glob    glob.Glob
}

// Filter matches source files against compiled rules.
// A zero Filter includes everything.
type Filter struct {
	rules []rule
}

// Root returns the directory patterns are evaluated from: the bucket of an
// S3 source, the source directory of a recursive local move, or the
// directory holding a single local file.
func Root(src string, srcType s3types.PathType, recursive bool) string {
	if srcType == s3types.PathS3 {
		bucket, _, _ := strings.Cut(src, "/")
		return bucket
	}
	if recursive {
		return strings.TrimSuffix(src, string(filepath.Separator))
	}
	return filepath.Dir(src)
}

// New compiles rules relative to root. Local sources use the OS separator,
// S3 sources use "/".
func New(rules []s3types.FilterRule, root string, srcType s3types.PathType) (*Filter, error) {
	f := &Filter{rules: make([]rule, 0, len(rules))}

	for _, r := range rules {
		full := join(root, r.Pattern, srcType)

		g, err := glob.Compile(escape(full))
		if err != nil {
			return nil, s3errors.NewValidationError(
				fmt.Sprintf("invalid %s pattern %q: %v", r.Type, r.Pattern, err))
		}

		f.rules = append(f.rules, rule{
			include: r.Type != s3types.FilterExclude,
			pattern: full,
			glob:    g,
		})
	}

	return f, nil
}

// Include reports whether path passes the rules.
func (f *Filter) Include(path string) bool {
	if f == nil {
		return true
	}
	included := true
	for _, r := range f.rules {
		if r.glob.Match(path) {
			included = r.include
		}
	}
	return included
}

// Patterns returns the full path patterns in evaluation order.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	patterns := make([]string, 0, len(f.rules))
	for _, r := range f.rules {
		patterns = append(patterns, r.pattern)
	}
	return patterns
}

// join joins pattern onto root with the separator of srcType. An absolute
// pattern replaces the root.
func join(root, pattern string, srcType s3types.PathType) string {
	sep := string(filepath.Separator)
	if srcType == s3types.PathS3 {
		pattern = strings.ReplaceAll(pattern, sep, "/")
		if strings.HasPrefix(pattern, "/") {
			return pattern
		}
		return strings.TrimSuffix(root, "/") + "/" + pattern
	}

	pattern = strings.ReplaceAll(pattern, "/", sep)
	if filepath.IsAbs(pattern) {
		return pattern
	}
	return strings.TrimSuffix(root, sep) + sep + pattern
}

// escape quotes the characters glob treats specially but shell-style
// matching takes literally: braces and backslashes.
func escape(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, c := range pattern {
		switch c {
		case '{', '}', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
