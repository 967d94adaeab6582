package config

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/voltlane/ecdkit/internal/board"
	"github.com/voltlane/ecdkit/internal/ecd"
)

func TestDefaultParamFileParses(t *testing.T) {
	var param ServerParam
	if err := yaml.Unmarshal(ParamDefaultFile, &param); err != nil {
		t.Fatalf("default param file does not parse: %v", err)
	}

	if param.SupplyVoltage <= 0 {
		t.Errorf("default supply voltage %v, want > 0", param.SupplyVoltage)
	}
	if param.Kit.Type == "" {
		t.Error("default kit type is empty")
	}
	if len(param.Kit.SegmentPins) == 0 {
		t.Error("default kit has no segment pins")
	}
	if len(param.Board.MuxSelectPins) != 4 {
		t.Errorf("default board has %d mux select pins, want 4", len(param.Board.MuxSelectPins))
	}
	if param.Drive != (DriveParam{}) {
		t.Error("default drive section should be empty so the kit preset applies")
	}
	if param.ApiParam.Port == 0 {
		t.Error("default api port is zero")
	}
}

func TestDrivePresetsAcceptedByEngine(t *testing.T) {
	kits := []struct {
		kitType  string
		segments int
	}{
		{"single", 1},
		{"3bars", 3},
		{"7bars", 7},
		{"15seg", 15},
		{"unknown", 4},
	}

	for _, kit := range kits {
		t.Run(kit.kitType, func(t *testing.T) {
			sim := board.NewSim(kit.segments, 3.0, 0)
			disp, err := ecd.New(&ecd.Opts{
				Segments:      sim.Segments(),
				CE:            sim.CE(),
				SupplyVoltage: 3.0,
			})
			if err != nil {
				t.Fatalf("engine rejected sim board: %v", err)
			}
			if err := disp.SetConfig(DrivePreset(kit.kitType).ECDConfig()); err != nil {
				t.Errorf("engine rejected %s preset: %v", kit.kitType, err)
			}
		})
	}
}

func TestDrivePresetsDiffer(t *testing.T) {
	base := DrivePreset("unknown")

	single := DrivePreset("single")
	if single.ColoringTimeMs != 550 || single.BleachingTimeMs != 550 {
		t.Errorf("single preset pulses %d/%d ms, want 550/550", single.ColoringTimeMs, single.BleachingTimeMs)
	}

	bars3 := DrivePreset("3bars")
	if bars3.ColoringTimeMs != 900 {
		t.Errorf("3bars coloring time %d ms, want 900", bars3.ColoringTimeMs)
	}

	bars7 := DrivePreset("7bars")
	if bars7.BleachingVoltage != 0.8 {
		t.Errorf("7bars bleaching voltage %v, want 0.8", bars7.BleachingVoltage)
	}

	seg15 := DrivePreset("15seg")
	if seg15.RefreshBleachingVoltage != 0.6 {
		t.Errorf("15seg refresh bleaching voltage %v, want 0.6", seg15.RefreshBleachingVoltage)
	}

	if base == single || base == bars3 {
		t.Error("kit presets should differ from the stock defaults")
	}
}

func TestECDConfigConversion(t *testing.T) {
	p := DrivePreset("3bars")
	cfg := p.ECDConfig()

	if cfg.ColoringTime.Milliseconds() != p.ColoringTimeMs {
		t.Errorf("coloring time %v, want %d ms", cfg.ColoringTime, p.ColoringTimeMs)
	}
	if cfg.RefreshBleachPulseTime.Milliseconds() != p.RefreshBleachPulseMs {
		t.Errorf("refresh bleach pulse %v, want %d ms", cfg.RefreshBleachPulseTime, p.RefreshBleachPulseMs)
	}
	if cfg.ColoringVoltage != p.ColoringVoltage {
		t.Errorf("coloring voltage %v, want %v", cfg.ColoringVoltage, p.ColoringVoltage)
	}
}
