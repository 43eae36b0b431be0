package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/source"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
// Changes are saved immediately and take effect on the next connect.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createADCTab(state),
		createQuantizerTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(480, 360))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(480, 360))
	d.Show()
}

// updateConfig applies edit to a copy of the configuration. The copy replaces
// the live configuration only once it validates and is saved.
func updateConfig(state *appState, edit func(c *config.Config)) error {
	next := *state.cfg
	edit(&next)

	if err := next.Validate(); err != nil {
		return err
	}
	if err := next.Save(state.configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	*state.cfg = next
	return nil
}

// submitConfig runs updateConfig, reporting failures in a dialog.
func submitConfig(state *appState, edit func(c *config.Config)) {
	if err := updateConfig(state, edit); err != nil {
		dialog.ShowError(err, state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	portOptions, err := source.Ports()
	if err != nil {
		portOptions = nil
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, func(string) {})
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			submitConfig(state, func(c *config.Config) {
				if portSelect.Selected != "" {
					c.Serial.Port = portSelect.Selected
				}
				if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
					c.Serial.BaudRate = baud
				}
			})
		},
	}

	return container.NewTabItem("Serial", form)
}

// createADCTab creates the ADC configuration tab.
func createADCTab(state *appState) *container.TabItem {
	bitsEntry := widget.NewEntry()
	bitsEntry.SetText(strconv.Itoa(state.cfg.ADC.ResolutionBits))

	refEntry := widget.NewEntry()
	refEntry.SetText(strconv.Itoa(state.cfg.ADC.ReferenceMV))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Resolution (bits)", Widget: bitsEntry},
			{Text: "Full-scale input (mV)", Widget: refEntry},
		},
		OnSubmit: func() {
			submitConfig(state, func(c *config.Config) {
				if bits, err := strconv.Atoi(bitsEntry.Text); err == nil {
					c.ADC.ResolutionBits = bits
				}
				if ref, err := strconv.Atoi(refEntry.Text); err == nil {
					c.ADC.ReferenceMV = ref
				}
			})
		},
	}

	return container.NewTabItem("ADC", form)
}

// createQuantizerTab creates the smoother and quantizer configuration tab.
func createQuantizerTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(strconv.Itoa(state.cfg.Smoother.Window))

	slopeEntry := widget.NewEntry()
	slopeEntry.SetText(strconv.Itoa(state.cfg.Smoother.SlopeThreshold))

	fullScaleEntry := widget.NewEntry()
	fullScaleEntry.SetText(strconv.Itoa(state.cfg.Quantizer.FullScaleMV))

	stepsEntry := widget.NewEntry()
	stepsEntry.SetText(strconv.Itoa(state.cfg.Quantizer.StepCount))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Smoothing Window (samples)", Widget: windowEntry},
			{Text: "Slope Threshold (counts)", Widget: slopeEntry},
			{Text: "Full Scale (mV)", Widget: fullScaleEntry},
			{Text: "Steps", Widget: stepsEntry},
		},
		OnSubmit: func() {
			submitConfig(state, func(c *config.Config) {
				if w, err := strconv.Atoi(windowEntry.Text); err == nil {
					c.Smoother.Window = w
				}
				if st, err := strconv.Atoi(slopeEntry.Text); err == nil {
					c.Smoother.SlopeThreshold = st
				}
				if fs, err := strconv.Atoi(fullScaleEntry.Text); err == nil {
					c.Quantizer.FullScaleMV = fs
				}
				if n, err := strconv.Atoi(stepsEntry.Text); err == nil {
					c.Quantizer.StepCount = n
				}
			})
		},
	}

	return container.NewTabItem("Quantizer", form)
}

// createMockTab creates the simulated source configuration tab.
func createMockTab(state *appState) *container.TabItem {
	waveformSelect := widget.NewSelect([]string{source.WaveSine, source.WaveRamp, source.WaveSteps}, func(string) {})
	waveformSelect.SetSelected(state.cfg.Mock.Waveform)

	frequencyEntry := widget.NewEntry()
	frequencyEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.FrequencyHz))

	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.OffsetMV))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.AmplitudeMV))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.NoiseMV))

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Waveform", Widget: waveformSelect},
			{Text: "Frequency (Hz)", Widget: frequencyEntry},
			{Text: "Offset (mV)", Widget: offsetEntry},
			{Text: "Amplitude (mV)", Widget: amplitudeEntry},
			{Text: "Noise (mV)", Widget: noiseEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			submitConfig(state, func(c *config.Config) {
				if waveformSelect.Selected != "" {
					c.Mock.Waveform = waveformSelect.Selected
				}
				if f, err := strconv.ParseFloat(frequencyEntry.Text, 64); err == nil {
					c.Mock.FrequencyHz = f
				}
				if o, err := strconv.ParseFloat(offsetEntry.Text, 64); err == nil {
					c.Mock.OffsetMV = o
				}
				if a, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
					c.Mock.AmplitudeMV = a
				}
				if n, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
					c.Mock.NoiseMV = n
				}
				if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
					c.Mock.SampleRate = sr
				}
			})
		},
	}

	return container.NewTabItem("Mock", form)
}
