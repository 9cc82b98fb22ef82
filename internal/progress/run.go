package progress

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
)

// eventBuffer bounds how far the view may lag behind the pipeline.
const eventBuffer = 256

// Enabled reports whether w is a terminal the view can draw on.
func Enabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run shows the progress view while fn executes and returns fn's error.
// Quitting the view cancels the context passed to fn; Run still waits for
// fn to return so the run can record its skipped tasks.
func Run(ctx context.Context, bus *event.Bus, out io.Writer, fn func(ctx context.Context) error, opts ...tea.ProgramOption) error {
	events, unsubscribe := bus.SubscribeChan(eventBuffer)
	defer unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	p := tea.NewProgram(New(events), opts...)

	result := make(chan error, 1)
	go func() {
		err := fn(runCtx)
		p.Send(doneMsg{})
		result <- err
	}()

	final, err := p.Run()
	if m, ok := final.(Model); err != nil || (ok && m.Aborted()) {
		cancel()
	}
	fnErr := <-result
	if fnErr != nil {
		return fnErr
	}
	return err
}
