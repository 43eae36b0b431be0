package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/engine"
	"github.com/itohio/noteperfect/pkg/panel"
	"github.com/itohio/noteperfect/pkg/sample"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use simulated CV source instead of serial port")
		wavFlag      = flag.String("wav", "", "Quantize a recorded CV signal (overrides config)")
		terminalFlag = flag.Bool("terminal", false, "Show the front panel in the terminal instead of a window")
		verboseFlag  = flag.Bool("v", false, "Log channel switches")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *wavFlag != "" {
		cfg.Recording.Path = *wavFlag
	}
	if *terminalFlag {
		cfg.Display.Mode = config.DisplayTerminal
	}

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		useMock:    *mockFlag,
		verbose:    *verboseFlag,
	}

	if cfg.Display.Mode == config.DisplayTerminal {
		if err := runTerminal(state); err != nil {
			log.Fatalf("Quantizer failed: %v", err)
		}
		return
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.noteperfect")

	window := application.NewWindow("Note Perfect")
	window.Resize(fyne.NewSize(480, 360))
	window.CenterOnScreen()
	state.window = window

	state.board = panel.NewBoard(cfg.Quantizer.FullScaleMV)
	state.view = panel.NewView(state.board, cfg.Quantizer.FullScaleMV)

	content := container.NewBorder(
		createToolbar(state),
		nil,
		nil,
		nil,
		state.view.Content(),
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		stopChain(state.chain)
		state.chain = nil
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	useMock    bool
	verbose    bool

	board      *panel.Board
	view       *panel.View
	window     fyne.Window
	connectBtn *widget.Button
	chain      *quantizerChain // nil if not connected
}

// quantizerChain tracks a running control loop for graceful shutdown.
type quantizerChain struct {
	sampler sampler
	cancel  context.CancelFunc
	done    chan struct{} // Closed when the loop goroutine exits
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(connectBtn, settingsBtn)
}

// handleConnect starts or stops the quantizer.
func handleConnect(state *appState) {
	if state.chain != nil {
		stopChain(state.chain)
		state.chain = nil
		state.connectBtn.SetIcon(theme.LoginIcon())
		log.Printf("Disconnected from %s", sourceName(state))
		return
	}

	chain, err := startChain(state, state.board, state.view.Update)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", sourceName(state), err), state.window)
		return
	}
	state.chain = chain
	state.connectBtn.SetIcon(theme.LogoutIcon())
	log.Printf("Connected to %s", sourceName(state))
}

// startChain opens the configured sampler and runs a control loop driving
// board until the sampler ends or the chain is stopped.
func startChain(state *appState, board *panel.Board, onUpdate func(engine.Snapshot)) (*quantizerChain, error) {
	s, err := openSampler(state.cfg, state.useMock)
	if err != nil {
		return nil, err
	}

	loop, err := engine.New(board.Collaborators(s), loopOptions(state.cfg, state.verbose, s.Resolution()))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create quantizer: %w", err)
	}
	if onUpdate != nil {
		loop.OnUpdate(onUpdate)
	}

	ctx, cancel := context.WithCancel(context.Background())
	chain := &quantizerChain{
		sampler: s,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(chain.done)
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Quantizer stopped: %v", err)
		}
	}()

	return chain, nil
}

// stopChain stops the loop and waits for it to exit. Closing the sampler
// releases a loop blocked waiting for a sample.
func stopChain(chain *quantizerChain) {
	if chain == nil {
		return
	}

	chain.cancel()
	if err := chain.sampler.Close(); err != nil {
		log.Printf("Error closing sampler: %v", err)
	}
	<-chain.done
}

// loopOptions derives control loop options from the configuration for a
// sampler of the given resolution. The slope threshold is configured in
// counts of the ADC and rescaled to the sampler.
func loopOptions(cfg *config.Config, verbose bool, samplerBits int) engine.Options {
	return engine.Options{
		Window:         cfg.Smoother.Window,
		SlopeThreshold: sample.ScaleThreshold(cfg.Smoother.SlopeThreshold, cfg.ADC.ResolutionBits, samplerBits),
		FullScaleMV:    cfg.Quantizer.FullScaleMV,
		StepCount:      cfg.Quantizer.StepCount,
		Verbose:        verbose,
	}
}
