package delivery

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/user/arena/internal/pages"
)

// ConsoleTarget is the target that writes to the terminal.
const ConsoleTarget = "console"

// Console returns a handler that writes each message on its own line.
func Console(w io.Writer) Handler {
	var mu sync.Mutex
	return func(_, message string) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintln(w, message)
		return err
	}
}

// Notifier fans each notice out to every target. A failing target is logged
// and does not stop the others.
type Notifier struct {
	registry *Registry
	targets  []string
	format   func(pages.Notice) string
	formats  map[string]func(pages.Notice) string
}

var _ pages.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier. A nil format prints "kind: message".
func NewNotifier(registry *Registry, format func(pages.Notice) string, targets ...string) *Notifier {
	if format == nil {
		format = func(n pages.Notice) string { return string(n.Kind) + ": " + n.Message }
	}
	return &Notifier{registry: registry, targets: targets, format: format}
}

// FormatFor overrides the format for targets starting with prefix. The
// longest matching prefix wins. Call it before the first Notify.
func (n *Notifier) FormatFor(prefix string, format func(pages.Notice) string) {
	if n.formats == nil {
		n.formats = make(map[string]func(pages.Notice) string)
	}
	n.formats[prefix] = format
}

func (n *Notifier) formatFor(target string) func(pages.Notice) string {
	format, best := n.format, -1
	for prefix, f := range n.formats {
		if strings.HasPrefix(target, prefix) && len(prefix) > best {
			format, best = f, len(prefix)
		}
	}
	return format
}

func (n *Notifier) Notify(notice pages.Notice) {
	for _, target := range n.targets {
		msg := n.formatFor(target)(notice)
		if err := n.registry.Deliver(target, msg); err != nil {
			slog.Error("notice not delivered", "target", target, "error", err)
		}
	}
}
