package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const barWidth = 30

// Progress renders export progress. On a terminal it redraws one bar in
// place; otherwise it prints a line at every quarter.
type Progress struct {
	w           io.Writer
	label       string
	interactive bool
	lastQuarter int
}

// NewProgress creates a progress renderer for w. Only an *os.File that is
// a terminal gets the redrawn bar.
func NewProgress(w io.Writer, label string) *Progress {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Progress{w: w, label: label, interactive: interactive, lastQuarter: -1}
}

// Set draws fraction, clamped to [0, 1].
func (p *Progress) Set(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	if p.interactive {
		filled := int(fraction * barWidth)
		fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%%", p.label, strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), fraction*100)
		return
	}

	quarter := int(fraction * 4)
	if quarter > p.lastQuarter {
		p.lastQuarter = quarter
		fmt.Fprintf(p.w, "%s %d%%\n", p.label, quarter*25)
	}
}

// Follow renders every value from ch until it is closed.
func (p *Progress) Follow(ch <-chan float64) {
	for v := range ch {
		p.Set(v)
	}
	p.Done()
}

// Done ends the bar's line.
func (p *Progress) Done() {
	if p.interactive {
		fmt.Fprintln(p.w)
	}
}
