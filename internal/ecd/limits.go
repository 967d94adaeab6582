package ecd

// refreshLimits are the supply-dependent OCP thresholds, expressed in raw
// ADC counts so check passes compare samples without float conversions per
// segment. They are a pure function of (supplyVoltage, resolution, Config)
// and are always replaced as a whole: a classification pass never sees a mix
// of two generations.
type refreshLimits struct {
	colorLimitH float64 // colored segment fully charged at or above this
	colorLimitL float64 // colored segment piggybacks on a refresh pass above this
	colorHalf   float64 // midpoint of the color band

	bleachLimitH float64 // bleached segment forces a refresh pass above this
	bleachLimitL float64 // bleach refresh target

	// bleachHalfAmp is the mid amplitude (in counts) between the check-pass
	// and refresh-pass CE levels and their respective limits. Subtracted from
	// half scale it yields the absolute boundary of the bleach "maybe" band.
	bleachHalfAmp float64
}

func computeRefreshLimits(supply float64, maxLSB int, cfg Config) refreshLimits {
	scale := float64(maxLSB) / supply

	var l refreshLimits
	l.colorLimitH = ((supply - cfg.RefreshColoringVoltage) + cfg.RefreshColorLimitHVoltage) * scale
	l.colorLimitL = (supply/2 + cfg.RefreshColorLimitLVoltage) * scale
	l.colorHalf = (l.colorLimitH + l.colorLimitL) / 2

	l.bleachLimitH = (supply/2 - cfg.RefreshBleachLimitHVoltage) * scale
	l.bleachLimitL = (cfg.RefreshBleachingVoltage - cfg.RefreshBleachLimitLVoltage) * scale

	// CE levels during the check pass (half scale) and the refresh pass.
	ceCheck := maxLSB / 2
	ceRefresh := int(float64(maxLSB) * (cfg.RefreshBleachingVoltage / supply))

	ampH := absInt(ceCheck - int(l.bleachLimitH))
	ampL := absInt(ceRefresh - int(l.bleachLimitL))
	l.bleachHalfAmp = float64(ampH+ampL) / 2

	return l
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
