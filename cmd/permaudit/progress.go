package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// progressPrinter renders pipeline progress as a single rewritten line.
// It writes to stderr so report output on stdout stays machine-readable.
type progressPrinter struct {
	// out receives the progress line.
	out io.Writer

	// mu serializes updates; steps may report from worker goroutines.
	mu sync.Mutex

	// lastLen is the length of the previously printed line, used to
	// blank out leftover characters from a longer line.
	lastLen int
}

// newProgressPrinter creates a progress printer writing to out.
func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

// Update rewrites the progress line. It satisfies pipeline.ProgressFunc.
func (p *progressPrinter) Update(step string, completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("[%d/%d] %s", completed, total, step)
	padding := ""
	if pad := p.lastLen - len(line); pad > 0 {
		padding = strings.Repeat(" ", pad)
	}
	fmt.Fprintf(p.out, "\r%s%s", line, padding)
	p.lastLen = len(line)
}

// Done clears the progress line so following output starts clean.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastLen == 0 {
		return
	}
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", p.lastLen))
	p.lastLen = 0
}
