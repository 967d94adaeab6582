// Package board adapts the segment-drive engine to the Raspberry Pi carrier
// board used with the evaluation displays.
//
// Working electrodes are wired to GPIOs for driving and tri-stating. OCP
// sensing runs through a 16-channel analog multiplexer (addressed by four
// select GPIOs) into an ADS1115 on the I²C bus, since the Pi has no on-chip
// ADC. The counter electrode DAC is a PWM pin behind an RC filter.
package board

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/voltlane/ecdkit/internal/ecd"
)

const (
	// muxSettleTime lets the mux output and the ADS1115 input settle after a
	// channel switch, before a conversion is started.
	muxSettleTime = time.Millisecond

	// cePWMFrequency is well above the RC filter corner, so the CE sees a
	// clean DC level proportional to the duty cycle.
	cePWMFrequency = 25 * physic.KiloHertz
)

// Opts selects the pins and converter scaling of one carrier board.
type Opts struct {
	I2CBus        string   // I²C bus name, empty for the first available
	CEPin         string   // PWM-capable GPIO driving the counter electrode
	MuxSelectPins []string // four select lines of the analog mux
	SegmentPins   []string // working electrode GPIOs, mux channel = index

	SupplyVoltage  float64 // volts, defaults to ecd.DefaultSupplyVoltage
	ResolutionBits int     // defaults to ecd.DefaultResolutionBits
}

// Board owns the carrier's electrodes and analog front end.
type Board struct {
	bus      i2c.BusCloser
	adcPin   analog.PinADC
	segments []ecd.SegmentPin
	ce       ecd.CounterElectrode

	muxSelect []gpio.PinOut
	supply    physic.ElectricPotential
	maxLSB    int
}

// Open initialises the periph host, the I²C ADC and every configured pin.
func Open(opts *Opts) (*Board, error) {
	if opts == nil {
		return nil, fmt.Errorf("board: missing options")
	}
	if len(opts.MuxSelectPins) != 4 {
		return nil, fmt.Errorf("board: need 4 mux select pins, got %d", len(opts.MuxSelectPins))
	}
	if len(opts.SegmentPins) == 0 || len(opts.SegmentPins) > 16 {
		return nil, fmt.Errorf("board: segment pin count %d outside 1..16", len(opts.SegmentPins))
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("board: host init: %w", err)
	}

	supply := opts.SupplyVoltage
	if supply == 0 {
		supply = ecd.DefaultSupplyVoltage
	}
	bits := opts.ResolutionBits
	if bits == 0 {
		bits = ecd.DefaultResolutionBits
	}

	b := &Board{
		supply: physic.ElectricPotential(supply * float64(physic.Volt)),
		maxLSB: 1<<bits - 1,
	}

	bus, err := i2creg.Open(opts.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("board: open i2c bus: %w", err)
	}
	b.bus = bus

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("board: ads1115: %w", err)
	}
	pin, err := adc.PinForChannel(ads1x15.Channel0, b.supply, 860*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("board: ads1115 channel: %w", err)
	}
	b.adcPin = pin

	for _, name := range opts.MuxSelectPins {
		p := gpioreg.ByName(name)
		if p == nil {
			bus.Close()
			return nil, fmt.Errorf("board: mux select pin %s not found", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			bus.Close()
			return nil, fmt.Errorf("board: mux select pin %s: %w", name, err)
		}
		b.muxSelect = append(b.muxSelect, p)
	}

	for channel, name := range opts.SegmentPins {
		p := gpioreg.ByName(name)
		if p == nil {
			bus.Close()
			return nil, fmt.Errorf("board: segment pin %s not found", name)
		}
		b.segments = append(b.segments, &segmentPin{board: b, pin: p, channel: channel})
	}

	ce := gpioreg.ByName(opts.CEPin)
	if ce == nil {
		bus.Close()
		return nil, fmt.Errorf("board: counter electrode pin %s not found", opts.CEPin)
	}
	b.ce = &cePin{pin: ce, maxLSB: b.maxLSB}

	logrus.Debugf("Carrier board ready: %d segments, CE on %s", len(b.segments), opts.CEPin)
	return b, nil
}

// Segments returns the working electrodes in display order.
func (b *Board) Segments() []ecd.SegmentPin { return b.segments }

// CE returns the shared counter electrode.
func (b *Board) CE() ecd.CounterElectrode { return b.ce }

// Close releases the I²C bus. Electrode pins are left as the engine last set
// them, which is high impedance after any completed pipeline.
func (b *Board) Close() error { return b.bus.Close() }

// selectChannel drives the mux select lines and waits for the analog path to
// settle.
func (b *Board) selectChannel(channel int) error {
	for bit, p := range b.muxSelect {
		if err := p.Out(gpio.Level(channel&(1<<bit) != 0)); err != nil {
			return fmt.Errorf("board: mux select: %w", err)
		}
	}
	time.Sleep(muxSettleTime)
	return nil
}

// segmentPin is one working electrode: GPIO for driving, mux+ADC for sensing.
type segmentPin struct {
	board   *Board
	pin     gpio.PinIO
	channel int
}

func (p *segmentPin) Drive(level gpio.Level) error {
	return p.pin.Out(level)
}

func (p *segmentPin) Release() error {
	return p.pin.In(gpio.Float, gpio.NoEdge)
}

func (p *segmentPin) Sample() (int, error) {
	if err := p.board.selectChannel(p.channel); err != nil {
		return 0, err
	}
	s, err := p.board.adcPin.Read()
	if err != nil {
		return 0, fmt.Errorf("board: sample %s: %w", p.pin, err)
	}
	lsb := int(int64(s.V) * int64(p.board.maxLSB) / int64(p.board.supply))
	if lsb < 0 {
		lsb = 0
	}
	if lsb > p.board.maxLSB {
		lsb = p.board.maxLSB
	}
	return lsb, nil
}

// cePin drives the counter electrode as a filtered PWM level.
type cePin struct {
	pin    gpio.PinIO
	maxLSB int
}

func (c *cePin) Drive(lsb int) error {
	if lsb < 0 {
		lsb = 0
	}
	if lsb > c.maxLSB {
		lsb = c.maxLSB
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(lsb) / int64(c.maxLSB))
	return c.pin.PWM(duty, cePWMFrequency)
}

func (c *cePin) Release() error {
	return c.pin.In(gpio.Float, gpio.NoEdge)
}
