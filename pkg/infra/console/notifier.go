package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

// Notifier prints notifications as one human-readable line each.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(_ context.Context, msg domain.Notification) {
	marker := "*"
	if msg.Severity == domain.SeverityDestructive {
		marker = "!"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s: %s\n", marker, msg.Title, msg.Description)
	if msg.Action != nil && msg.Action.Label != "" {
		fmt.Fprintf(n.out, "  -> %s\n", msg.Action.Label)
	}
}
