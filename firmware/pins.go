//go:build rp2040

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_US = 1000 // Control loop period in microseconds
	STREAM_EVERY       = 8    // Stream one reading to USB serial every N periods (0 = off)
	LCD_REFRESH_EVERY  = 100  // Redraw the display at least every N periods

	// ADC configuration. The input divider maps the CV range onto the ADC
	// range; ADC_FULL_SCALE_MV is the CV at full-scale count.
	ADC_RESOLUTION    = 16 // machine.ADC.Get always scales to 16 bits
	ADC_FULL_SCALE_MV = 5000

	// Output configuration. 20 kHz leaves a PWM top of 6250 counts at
	// 125 MHz, enough for one count per output millivolt.
	PWM_FREQ_HZ = 20000

	// Analog input
	PIN_CV_IN = machine.ADC0

	// Input multiplexer select: low routes input B, high routes input A
	PIN_MUX_SEL = machine.GPIO15

	// PWM outputs
	PIN_CV_OUT     = machine.GPIO16
	PIN_LED_A      = machine.GPIO18
	PIN_LED_B      = machine.GPIO19
	PIN_LED_TUNING = machine.GPIO20

	// Touch pads (digital touch modules, active high)
	PIN_PAD_A   = machine.GPIO2
	PIN_PAD_B   = machine.GPIO3
	PIN_PAD_AUX = machine.GPIO4

	// HD44780 character display, 4-bit bus
	PIN_LCD_RS = machine.GPIO6
	PIN_LCD_E  = machine.GPIO7
	PIN_LCD_D4 = machine.GPIO8
	PIN_LCD_D5 = machine.GPIO9
	PIN_LCD_D6 = machine.GPIO10
	PIN_LCD_D7 = machine.GPIO11
)
