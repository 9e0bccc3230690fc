package notifier

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// TerminalNotifier renders markdown messages to a terminal.
type TerminalNotifier struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *glamour.TermRenderer // nil writes markdown as is
}

// NewTerminalNotifier creates a notifier writing to out. With plain set, or if
// the renderer cannot be built, messages are written unstyled.
func NewTerminalNotifier(out io.Writer, width int, plain bool) *TerminalNotifier {
	t := &TerminalNotifier{out: out}
	if plain {
		return t
	}
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("[WARN] markdown renderer unavailable, using plain output: %v", err)
		return t
	}
	t.renderer = r
	return t
}

func (t *TerminalNotifier) Notify(_ context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := text
	if t.renderer != nil {
		rendered, err := t.renderer.Render(text)
		if err != nil {
			log.Printf("[WARN] render markdown: %v", err)
		} else {
			out = rendered
		}
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(t.out, out)
	return err
}

// Serve reads commands line by line from in and prints each reply. Blocks
// until quit or exit is entered, in is exhausted, or ctx is cancelled.
func (t *TerminalNotifier) Serve(ctx context.Context, in io.Reader, prompt string, handler CommandHandler) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		t.prompt(prompt)
		select {
		case <-ctx.Done():
			log.Println("[INFO] console stopped")
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read command: %w", err)
			}
			return nil
		case line := <-lines:
			cmd := strings.TrimSpace(line)
			if cmd == "" {
				continue
			}
			if cmd == "quit" || cmd == "exit" {
				return nil
			}
			if reply := handler(cmd); reply != "" {
				if err := t.Notify(ctx, reply); err != nil {
					return err
				}
			}
		}
	}
}

func (t *TerminalNotifier) prompt(p string) {
	if p == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.out, p)
}
