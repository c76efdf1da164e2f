// Package display implements the live quote display (C5): an in-place
// redrawn table of the current batch with the winning quote starred, a
// background keystroke watcher for user confirmation, and a non-TTY
// degrade path that prints one summary line instead of redrawing.
// Grounded on original_source's titan_display.py LiveQuoteDisplay.
package display

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/quotestream"
)

// Outcome is the result of watching a stream until the user confirms,
// the stream ends, or it errors.
type Outcome struct {
	Winner    domain.Quote
	HasWinner bool
	Confirmed bool
	Err       error
}

// Run drives stream's updates to the terminal (or, if stdout is not a
// TTY, prints nothing until a final summary line) until the user presses
// Enter, presses Ctrl+C, ctx is cancelled (external SIGINT), the stream
// ends, or it errors. A Ctrl+C or ctx cancellation cancels stream and
// reports an unconfirmed outcome, same as the stream ending on its own.
func Run(ctx context.Context, cfg Config, stream *quotestream.Stream) Outcome {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	confirmed := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)
	if isTTY {
		go watchEnter(confirmed, cancelled)
	}

	var lastBatch domain.QuoteBatch
	var haveBatch bool

	for {
		select {
		case update, ok := <-stream.Updates():
			if !ok {
				return finalOutcome(cfg, lastBatch, haveBatch, false, nil)
			}
			if update.Err != nil {
				return finalOutcome(cfg, lastBatch, haveBatch, false, update.Err)
			}
			if update.Done {
				return finalOutcome(cfg, lastBatch, haveBatch, false, nil)
			}

			lastBatch = update.Batch
			haveBatch = true
			if isTTY {
				clearScreen()
				fmt.Print(renderTable(cfg, lastBatch))
			}

		case <-confirmed:
			stream.Cancel()
			return finalOutcome(cfg, lastBatch, haveBatch, true, nil)

		case <-cancelled:
			stream.Cancel()
			return finalOutcome(cfg, lastBatch, haveBatch, false, nil)

		case <-ctx.Done():
			stream.Cancel()
			return finalOutcome(cfg, lastBatch, haveBatch, false, nil)
		}
	}
}

func finalOutcome(cfg Config, batch domain.QuoteBatch, haveBatch bool, confirmed bool, err error) Outcome {
	winner, hasWinner := domain.Quote{}, false
	if haveBatch {
		winner, hasWinner = domain.WinningQuote(batch)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(summaryLine(cfg, winner, hasWinner))
	}

	return Outcome{Winner: winner, HasWinner: hasWinner, Confirmed: confirmed, Err: err}
}

// clearScreen clears the whole screen and moves the cursor to the top-left
// corner, so each redraw replaces the previous table in place.
func clearScreen() {
	fmt.Print("\x1b[2J\x1b[H")
}
