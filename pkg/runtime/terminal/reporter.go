package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"text/template"

	"github.com/de-tools/line-report/pkg/models/domain"
)

const progressTmpl = `{{if .Err}}  ✗ [{{.Process}}] {{.Section}}: {{.Err}}{{else}}  ✓ [{{.Process}}] {{.Section}}{{end}}
`

// Reporter prints section events as they arrive.
type Reporter struct {
	mu     sync.Mutex
	writer io.Writer
	tmpl   *template.Template
}

// NewReporter creates a new progress reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		tmpl:   template.Must(template.New("progress").Parse(progressTmpl)),
	}
}

func (c *Reporter) SectionReady(_ context.Context, ev domain.SectionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.tmpl.Execute(c.writer, ev)
}

func (c *Reporter) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, format, args...)
}
