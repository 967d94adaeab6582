package ecd

import (
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero coloring voltage", func(c *Config) { c.ColoringVoltage = 0 }, true},
		{"negative bleaching voltage", func(c *Config) { c.BleachingVoltage = -0.7 }, true},
		{"zero refresh coloring voltage", func(c *Config) { c.RefreshColoringVoltage = 0 }, true},
		{"zero coloring time", func(c *Config) { c.ColoringTime = 0 }, true},
		{"negative bleach pulse", func(c *Config) { c.RefreshBleachPulseTime = -time.Millisecond }, true},
		{"inverted color band", func(c *Config) {
			c.RefreshColorLimitHVoltage = 0.5
			c.RefreshColorLimitLVoltage = 0.95
		}, true},
		{"bleach target above amplitude", func(c *Config) {
			c.RefreshBleachingVoltage = 0.4
			c.RefreshBleachLimitLVoltage = 0.5
		}, true},
		{"eval kit bar profile", func(c *Config) {
			c.ColoringTime = 900 * time.Millisecond
			c.BleachingTime = 900 * time.Millisecond
			c.RefreshColorPulseTime = 200 * time.Millisecond
			c.RefreshBleachPulseTime = 100 * time.Millisecond
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	d, _, _, _ := newTestDisplay(1)
	before := d.cfg

	bad := DefaultConfig()
	bad.ColoringTime = 0
	if err := d.SetConfig(bad); err == nil {
		t.Fatal("invalid config accepted")
	}
	if d.cfg != before {
		t.Error("rejected config still replaced the active one")
	}
}
