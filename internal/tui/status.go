package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Status line texts shared by the plain and animated views.
const (
	startedFormat     = "Downloading and processing data from: %s"
	initializedStatus = "Table initialized and first chunk inserted."
	chunkFormat       = "Chunk %d appended: %d rows, %d total"
)

// StatusPrinter reports progress as plain lines, one per event. The final
// summary is not its business; see RenderSummary.
type StatusPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewStatusPrinter(out io.Writer) *StatusPrinter {
	if out == nil {
		panic("out cannot be nil")
	}
	return &StatusPrinter{out: out}
}

func (p *StatusPrinter) println(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *StatusPrinter) Started(source, _ string) {
	p.println(startedFormat, source)
}

func (p *StatusPrinter) TableInitialized(string, int64) {
	p.println(initializedStatus)
}

func (p *StatusPrinter) ChunkAppended(index int, rows, total int64) {
	p.println(chunkFormat, index, rows, total)
}

func (p *StatusPrinter) Finished(*pgingest.Report) {}

// RenderSummary styles report.Summary by outcome. When styled is false the
// line is returned as is.
func RenderSummary(report *pgingest.Report, styled bool) string {
	line := report.Summary()
	if !styled {
		return line
	}

	switch report.State {
	case pgingest.StateDone:
		return SuccessStyle.Render(SymbolCheck + " " + line)
	case pgingest.StateEmptySource:
		return WarningStyle.Render(SymbolWarning + " " + line)
	default:
		return ErrorStyle.Render(SymbolCross + " " + line)
	}
}

var _ pgingest.ProgressObserver = (*StatusPrinter)(nil)
