package config

import (
	_ "embed"
	"time"

	"github.com/voltlane/ecdkit/internal/ecd"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	SupplyVoltage float64    `yaml:"supply_voltage"`
	Kit           KitParam   `yaml:"kit"`
	Board         BoardParam `yaml:"board"`
	Drive         DriveParam `yaml:"drive,omitempty"`
	// MaintenancePeriodSec is the idle refresh period; 0 disables it.
	MaintenancePeriodSec int64    `yaml:"maintenance_period_sec"`
	ApiParam             ApiParam `yaml:"api"`
}

// KitParam identifies the evaluation display plugged into the carrier board.
type KitParam struct {
	// Type is one of single, 3bars, 7bars, 15seg.
	Type string `yaml:"type"`
	// SegmentPins are the working electrode GPIO names in display order; the
	// analog mux channel of a segment is its index here.
	SegmentPins []string `yaml:"segment_pins"`
}

type BoardParam struct {
	I2CBus        string   `yaml:"i2c_bus"`
	CEPin         string   `yaml:"ce_pin"`
	MuxSelectPins []string `yaml:"mux_select_pins"`
	LedPins       []string `yaml:"led_pins"`
	ButtonPin     string   `yaml:"button_pin"`
}

// DriveParam is the yaml shape of ecd.Config, durations in milliseconds.
// A zero value means "use the preset for the configured kit type".
type DriveParam struct {
	RefreshColorLimitHVoltage  float64 `yaml:"refresh_color_limit_h_voltage"`
	RefreshColorLimitLVoltage  float64 `yaml:"refresh_color_limit_l_voltage"`
	RefreshBleachLimitHVoltage float64 `yaml:"refresh_bleach_limit_h_voltage"`
	RefreshBleachLimitLVoltage float64 `yaml:"refresh_bleach_limit_l_voltage"`

	ColoringVoltage        float64 `yaml:"coloring_voltage"`
	RefreshColoringVoltage float64 `yaml:"refresh_coloring_voltage"`
	ColoringTimeMs         int64   `yaml:"coloring_time_ms"`
	RefreshColorPulseMs    int64   `yaml:"refresh_color_pulse_ms"`

	BleachingVoltage        float64 `yaml:"bleaching_voltage"`
	RefreshBleachingVoltage float64 `yaml:"refresh_bleaching_voltage"`
	BleachingTimeMs         int64   `yaml:"bleaching_time_ms"`
	RefreshBleachPulseMs    int64   `yaml:"refresh_bleach_pulse_ms"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	Port    int64  `yaml:"port"`
	ApiKey  string `yaml:"api_key"`
}

// ECDConfig converts the yaml drive parameters to the engine's Config.
func (p DriveParam) ECDConfig() ecd.Config {
	return ecd.Config{
		RefreshColorLimitHVoltage:  p.RefreshColorLimitHVoltage,
		RefreshColorLimitLVoltage:  p.RefreshColorLimitLVoltage,
		RefreshBleachLimitHVoltage: p.RefreshBleachLimitHVoltage,
		RefreshBleachLimitLVoltage: p.RefreshBleachLimitLVoltage,

		ColoringVoltage:        p.ColoringVoltage,
		RefreshColoringVoltage: p.RefreshColoringVoltage,
		ColoringTime:           time.Duration(p.ColoringTimeMs) * time.Millisecond,
		RefreshColorPulseTime:  time.Duration(p.RefreshColorPulseMs) * time.Millisecond,

		BleachingVoltage:        p.BleachingVoltage,
		RefreshBleachingVoltage: p.RefreshBleachingVoltage,
		BleachingTime:           time.Duration(p.BleachingTimeMs) * time.Millisecond,
		RefreshBleachPulseTime:  time.Duration(p.RefreshBleachPulseMs) * time.Millisecond,
	}
}

// DrivePreset returns the factory drive parameters for a kit type. The
// per-kit pulse timings and amplitudes come from the display datasheets; an
// unknown type gets the stock engine defaults.
func DrivePreset(kitType string) DriveParam {
	p := DriveParam{
		RefreshColorLimitHVoltage:  1.1,
		RefreshColorLimitLVoltage:  0.95,
		RefreshBleachLimitHVoltage: 0.3,
		RefreshBleachLimitLVoltage: 0.5,

		ColoringVoltage:        1.3,
		RefreshColoringVoltage: 1.3,
		ColoringTimeMs:         350,
		RefreshColorPulseMs:    100,

		BleachingVoltage:        0.7,
		RefreshBleachingVoltage: 0.7,
		BleachingTimeMs:         350,
		RefreshBleachPulseMs:    10,
	}

	switch kitType {
	case "single":
		p.RefreshBleachLimitLVoltage = 0.4
		p.ColoringTimeMs = 550
		p.BleachingTimeMs = 550
		p.RefreshColorPulseMs = 200
		p.RefreshBleachPulseMs = 200
	case "3bars":
		p.ColoringTimeMs = 900
		p.BleachingTimeMs = 900
		p.RefreshColorPulseMs = 200
		p.RefreshBleachPulseMs = 100
	case "7bars":
		p.RefreshBleachLimitLVoltage = 0.4
		p.BleachingVoltage = 0.8
		p.RefreshBleachPulseMs = 200
	case "15seg":
		p.RefreshColorLimitLVoltage = 1.0
		p.RefreshBleachLimitLVoltage = 0.4
		p.RefreshBleachingVoltage = 0.6
		p.RefreshBleachPulseMs = 100
	}
	return p
}
