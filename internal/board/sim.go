package board

import (
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/voltlane/ecdkit/internal/ecd"
)

// Sim is a software stand-in for the carrier board. Each segment keeps a
// polarization voltage (positive = colored) that moves toward the applied
// cell potential while driven and leaks back toward the counter electrode
// reference a little on every sample, which is enough electrochemistry for
// the engine's transition, check and refresh paths to behave like hardware.
//
// Sim is safe for concurrent use so a simulated run can be poked from tests
// or other goroutines.
type Sim struct {
	mu sync.Mutex

	supply float64
	maxLSB int

	ceDriven bool
	ceLSB    int

	segments []ecd.SegmentPin
	cells    []*simCell
}

// Charge-transfer fraction per drive pulse and leak fraction per sample.
const (
	simDriveGain = 0.6
	simLeak      = 0.97
	simMaxAmp    = 1.5
)

// NewSim builds a simulated board with the given segment count.
func NewSim(segments int, supplyVoltage float64, resolutionBits int) *Sim {
	if supplyVoltage == 0 {
		supplyVoltage = ecd.DefaultSupplyVoltage
	}
	if resolutionBits == 0 {
		resolutionBits = ecd.DefaultResolutionBits
	}
	s := &Sim{
		supply: supplyVoltage,
		maxLSB: 1<<resolutionBits - 1,
	}
	for i := 0; i < segments; i++ {
		cell := &simCell{sim: s}
		s.cells = append(s.cells, cell)
		s.segments = append(s.segments, cell)
	}
	return s
}

// Segments returns the simulated working electrodes.
func (s *Sim) Segments() []ecd.SegmentPin { return s.segments }

// CE returns the simulated counter electrode.
func (s *Sim) CE() ecd.CounterElectrode { return (*simCE)(s) }

// ceVolts is the present counter electrode potential. A floating CE sits at
// the mid-rail reference.
func (s *Sim) ceVolts() float64 {
	if !s.ceDriven {
		return s.supply / 2
	}
	return float64(s.ceLSB) / float64(s.maxLSB) * s.supply
}

type simCell struct {
	sim          *Sim
	polarization float64
	driven       bool
	level        gpio.Level
}

func (c *simCell) Drive(level gpio.Level) error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()

	c.driven = true
	c.level = level

	we := 0.0
	if level == gpio.High {
		we = c.sim.supply
	}
	diff := we - c.sim.ceVolts()
	if diff > simMaxAmp {
		diff = simMaxAmp
	}
	if diff < -simMaxAmp {
		diff = -simMaxAmp
	}
	c.polarization = simDriveGain*diff + (1-simDriveGain)*c.polarization
	return nil
}

func (c *simCell) Release() error {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	c.driven = false
	return nil
}

func (c *simCell) Sample() (int, error) {
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()

	c.polarization *= simLeak

	v := c.sim.ceVolts() + c.polarization
	if v < 0 {
		v = 0
	}
	if v > c.sim.supply {
		v = c.sim.supply
	}
	return int(v / c.sim.supply * float64(c.sim.maxLSB)), nil
}

type simCE Sim

func (c *simCE) Drive(lsb int) error {
	s := (*Sim)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lsb < 0 {
		lsb = 0
	}
	if lsb > s.maxLSB {
		lsb = s.maxLSB
	}
	s.ceDriven = true
	s.ceLSB = lsb
	return nil
}

func (c *simCE) Release() error {
	s := (*Sim)(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ceDriven = false
	return nil
}
