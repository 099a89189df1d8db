package display

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"chesstempo/internal/client/game"

	"golang.org/x/term"
)

// Sink renders game snapshots to a terminal.
type Sink struct {
	out   io.Writer
	clear bool
	color bool

	clearScreen func(io.Writer) error
}

// NewSink returns a sink writing to out. Clearing and colors only apply
// when out is a terminal.
func NewSink(out io.Writer, clear bool) *Sink {
	tty := IsTerminal(out)
	return &Sink{
		out:         out,
		clear:       clear && tty,
		color:       tty,
		clearScreen: ClearScreen,
	}
}

// Render clears the screen if enabled and prints the board.
func (s *Sink) Render(snap *game.Snapshot) error {
	if s.clear {
		if err := s.clearScreen(s.out); err != nil {
			return fmt.Errorf("failed to clear screen: %w", err)
		}
	}

	if s.color {
		RenderBoard(s.out, snap.Board)
		return nil
	}
	_, err := fmt.Fprintln(s.out, snap.Board)
	return err
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ClearScreen runs the platform clear command against w.
func ClearScreen(w io.Writer) error {
	cmd := exec.Command("clear")
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	}
	cmd.Stdout = w
	return cmd.Run()
}
