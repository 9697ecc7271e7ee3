package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/input-output-hk/s3mv/aws/s3"
	s3errors "github.com/input-output-hk/s3mv/aws/s3/errors"
	"github.com/input-output-hk/s3mv/aws/s3/s3types"
)

// Options selects what the printer writes.
type Options struct {
	// Quiet suppresses every line
	Quiet bool

	// OnlyShowErrors keeps failures and warnings only
	OnlyShowErrors bool

	// NoProgress disables the progress line
	NoProgress bool
}

// Printer writes move results as they complete. Result lines go to stdout,
// failures and warnings to stderr. While stdout is a terminal a progress line
// is redrawn below the results.
type Printer struct {
	mu sync.Mutex

	out      io.Writer
	errOut   io.Writer
	cwd      string
	opts     Options
	progress bool
	color    bool

	planned    bool
	totalFiles int
	totalParts int
	doneFiles  int
	doneParts  int

	// width of the progress line on screen, 0 when none is drawn
	drawn int
}

var _ s3types.MoveReporter = (*Printer)(nil)

// NewPrinter creates a printer. Local paths are shown relative to cwd.
func NewPrinter(stdout, stderr io.Writer, cwd string, opts Options) *Printer {
	return &Printer{
		out:      stdout,
		errOut:   stderr,
		cwd:      cwd,
		opts:     opts,
		progress: !opts.Quiet && !opts.OnlyShowErrors && !opts.NoProgress && isTerminal(stdout),
		color:    isTerminal(stderr),
	}
}

// Planned records the totals once the source has been enumerated.
func (p *Printer) Planned(files, parts int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.planned = true
	p.totalFiles = files
	p.totalParts = parts
	p.drawProgress()
}

// PartDone counts one completed part.
func (p *Printer) PartDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneParts++
	p.drawProgress()
}

// Done prints the outcome of one move.
func (p *Printer) Done(event s3types.MoveEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneFiles++

	src := s3.DisplayPath(event.Src, event.SrcType, p.cwd)
	dest := s3.DisplayPath(event.Dest, event.DestType, p.cwd)

	switch {
	case event.Err != nil:
		p.writeErr(p.label("move failed:", pterm.FgRed), fmt.Sprintf("%s to %s %s", src, dest, s3errors.Describe(event.Err)))
	case event.Warning != "":
		p.writeErr(p.label("warning:", pterm.FgYellow), event.Warning)
	case p.opts.Quiet || p.opts.OnlyShowErrors:
	default:
		prefix := "move:"
		if event.DryRun {
			prefix = "(dryrun) move:"
		}
		p.clearProgress()
		fmt.Fprintf(p.out, "%s %s to %s\n", prefix, src, dest)
	}

	p.drawProgress()
}

// Warn prints a warning line on stderr.
func (p *Printer) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeErr(p.label("warning:", pterm.FgYellow), msg)
	p.drawProgress()
}

// Fatal prints an error that ends the command on stderr.
func (p *Printer) Fatal(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeErr(p.label("fatal error:", pterm.FgRed), msg)
}

// Message prints msg on stderr unstyled. Quiet does not suppress it.
func (p *Printer) Message(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearProgress()
	fmt.Fprintln(p.errOut, msg)
	p.drawProgress()
}

// Finish removes the progress line.
func (p *Printer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearProgress()
}

func (p *Printer) writeErr(label, msg string) {
	if p.opts.Quiet {
		return
	}
	p.clearProgress()
	fmt.Fprintf(p.errOut, "%s %s\n", label, msg)
}

func (p *Printer) label(text string, color pterm.Color) string {
	if !p.color {
		return text
	}
	return color.Sprint(text)
}

// progressLine renders the current totals.
func (p *Printer) progressLine() string {
	if !p.planned {
		return fmt.Sprintf("Completed %d part(s) with ... file(s) remaining", p.doneParts)
	}
	return fmt.Sprintf("Completed %d of %d part(s) with %d file(s) remaining",
		p.doneParts, p.totalParts, p.totalFiles-p.doneFiles)
}

func (p *Printer) drawProgress() {
	if !p.progress {
		return
	}
	line := p.progressLine()
	pad := ""
	if p.drawn > len(line) {
		pad = strings.Repeat(" ", p.drawn-len(line))
	}
	fmt.Fprintf(p.out, "\r%s%s\r", line, pad)
	p.drawn = len(line)
}

func (p *Printer) clearProgress() {
	if p.drawn == 0 {
		return
	}
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", p.drawn))
	p.drawn = 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
