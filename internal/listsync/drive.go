package listsync

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Drive runs cmd and every command it leads to, applying each message to v, until the chain is exhausted.
//
// Batched commands run one after another in order. Drive returns ctx's error if it ends first.
func Drive(ctx context.Context, v *View, cmd tea.Cmd) error {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			if follow := v.Update(msg); follow != nil {
				queue = append(queue, follow)
			}
		}
	}
	return nil
}
