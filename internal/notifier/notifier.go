package notifier

import (
	"context"
	"log"
)

// Notifier delivers a markdown message to the player.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// Broadcast sends text to every notifier and logs failures.
func Broadcast(ctx context.Context, text string, notifiers ...Notifier) {
	if text == "" {
		return
	}
	for _, n := range notifiers {
		if err := n.Notify(ctx, text); err != nil {
			log.Printf("[ERROR] notify: %v", err)
		}
	}
}
