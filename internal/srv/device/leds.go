package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/voltlane/ecdkit/internal/srv/config"
)

const ledBootSequenceDelay = 100 * time.Millisecond

// Per-animation LED pattern. LEDs are wired active low: false lights the
// LED, true turns it off.
var ledAnimationTable = [28][7]bool{
	{false, true, true, true, true, true, true},
	{true, false, true, true, true, true, true},
	{true, true, false, true, true, true, true},
	{true, true, true, false, true, true, true},
	{true, true, true, true, false, true, true},
	{true, true, true, true, true, false, true},
	{true, true, true, true, true, true, false},
	{false, false, true, true, true, true, true},
	{false, true, false, true, true, true, true},
	{false, true, true, false, true, true, true},
	{false, true, true, true, false, true, true},
	{false, true, true, true, true, false, true},
	{false, true, true, true, true, true, false},
	{false, false, false, true, true, true, true},
	{false, false, true, false, true, true, true},
	{false, false, true, true, false, true, true},
	{false, false, true, true, true, false, true},
	{false, false, true, true, true, true, false},
	{false, false, false, false, true, true, true},
	{false, false, false, true, false, true, true},
	{false, false, false, true, true, false, true},
	{false, false, false, true, true, true, false},
	{false, false, false, false, false, true, true},
	{false, false, false, false, true, false, true},
	{false, false, false, false, true, true, false},
	{false, false, false, false, false, false, true},
	{false, false, false, false, false, true, false},
	{false, false, false, false, false, false, false},
}

// Leds drives the animation-selector LED strip. In simulation mode the
// selected pattern is only logged.
type Leds struct {
	lock         sync.RWMutex
	serverConfig *config.ServerConfig
	simulation   bool

	pins []gpio.PinIO
}

func NewLeds(serverConfig *config.ServerConfig) *Leds {
	return &Leds{
		serverConfig: serverConfig,
		simulation:   serverConfig.SimulationMode,
	}
}

func (d *Leds) Start() {
	logrus.Infof("Start leds device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulation {
		return
	}

	for _, name := range d.serverConfig.Board.LedPins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			logrus.Fatalf("Failed to find led pin %s", name)
		}
		if err := pin.Out(gpio.High); err != nil {
			logrus.Fatalf("Failed to setup led pin %s: %v", name, err)
		}
		d.pins = append(d.pins, pin)
	}

	d.bootSequence()
}

func (d *Leds) Stop() {
	logrus.Infof("Stop leds device")

	d.lock.Lock()
	defer d.lock.Unlock()

	for _, pin := range d.pins {
		pin.Out(gpio.High)
	}
}

// bootSequence sweeps the strip on and back off so a user can spot a dead
// LED at power up.
func (d *Leds) bootSequence() {
	for _, pin := range d.pins {
		pin.Out(gpio.Low)
		time.Sleep(ledBootSequenceDelay / 3)
	}
	time.Sleep(ledBootSequenceDelay * 2)
	for i := len(d.pins) - 1; i >= 0; i-- {
		d.pins[i].Out(gpio.High)
		time.Sleep(ledBootSequenceDelay)
	}
}

// ShowAnimation lights the pattern for the given animation index.
func (d *Leds) ShowAnimation(animation int) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if animation < 0 || animation >= len(ledAnimationTable) {
		logrus.Warnf("No led pattern for animation %d", animation)
		return
	}

	if d.simulation {
		logrus.Debugf("Led pattern for animation %d: %v", animation, ledAnimationTable[animation])
		return
	}

	for i, pin := range d.pins {
		if i >= len(ledAnimationTable[animation]) {
			break
		}
		level := gpio.Low
		if ledAnimationTable[animation][i] {
			level = gpio.High
		}
		if err := pin.Out(level); err != nil {
			logrus.Warnf("Failed to drive led pin %s: %v", pin.Name(), err)
		}
	}
}
