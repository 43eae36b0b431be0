package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/noteperfect/pkg/panel"
)

// runTerminal runs the quantizer with the front panel drawn on stdout and
// the pads on the keyboard. It returns when the source ends, on interrupt
// or when q is pressed.
func runTerminal(state *appState) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	interactive := panel.IsTerminal(os.Stdout) && panel.IsTerminal(os.Stdin)
	board := panel.NewBoard(state.cfg.Quantizer.FullScaleMV)
	front := panel.NewTerminal(board, os.Stdout, interactive)

	if interactive {
		restore, err := panel.MakeRaw(os.Stdin)
		if err != nil {
			return err
		}
		defer func() {
			if err := restore(); err != nil {
				log.Printf("Failed to restore terminal: %v", err)
			}
		}()

		// The reader goroutine stays blocked on stdin until the process exits.
		go func() {
			if err := panel.ReadKeys(os.Stdin, board.Pads, cancel); err != nil {
				log.Printf("Keyboard input stopped: %v", err)
			}
		}()
	}

	chain, err := startChain(state, board, front.Update)
	if err != nil {
		return err
	}
	log.Printf("Connected to %s\r", sourceName(state))

	select {
	case <-ctx.Done():
	case <-chain.done:
	}
	stopChain(chain)

	return front.Render()
}
