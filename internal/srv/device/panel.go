package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"

	"github.com/voltlane/ecdkit/internal/board"
	"github.com/voltlane/ecdkit/internal/ecd"
	"github.com/voltlane/ecdkit/internal/srv/config"
	"github.com/voltlane/ecdkit/internal/srv/event"
)

// Panel owns the electrochromic display engine. Every blocking drive runs on
// a single worker goroutine, preserving the engine's one-control-flow
// contract while the event loop stays responsive; only the stop token crosses
// goroutines directly.
type Panel struct {
	lock         sync.RWMutex
	eventChannel chan event.PanelEvent
	serverConfig *config.ServerConfig

	disp    *ecd.Display
	pins    []ecd.SegmentPin
	carrier *board.Board

	lastStates []string

	cmds    chan func(*ecd.Display) error
	askDone chan bool
	done    chan bool
}

func NewPanel(serverConfig *config.ServerConfig) *Panel {
	return &Panel{
		serverConfig: serverConfig,
		eventChannel: make(chan event.PanelEvent),
		cmds:         make(chan func(*ecd.Display) error, 8),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
}

func (d *Panel) Start() {
	logrus.Infof("Start panel device")

	var pins []ecd.SegmentPin
	var ce ecd.CounterElectrode

	if d.serverConfig.SimulationMode {
		sim := board.NewSim(d.serverConfig.SegmentCount(), d.serverConfig.SupplyVoltage, 0)
		pins = sim.Segments()
		ce = sim.CE()
	} else {
		carrier, err := board.Open(&board.Opts{
			I2CBus:        d.serverConfig.Board.I2CBus,
			CEPin:         d.serverConfig.Board.CEPin,
			MuxSelectPins: d.serverConfig.Board.MuxSelectPins,
			SegmentPins:   d.serverConfig.Kit.SegmentPins,
			SupplyVoltage: d.serverConfig.SupplyVoltage,
		})
		if err != nil {
			logrus.Fatalf("Unable to open carrier board: %v\n", err)
		}
		d.carrier = carrier
		pins = carrier.Segments()
		ce = carrier.CE()
	}

	disp, err := ecd.New(&ecd.Opts{
		Segments:      pins,
		CE:            ce,
		SupplyVoltage: d.serverConfig.SupplyVoltage,
	})
	if err != nil {
		logrus.Fatalf("Unable to initialize display engine: %v\n", err)
	}
	if err := disp.SetConfig(d.serverConfig.Drive.ECDConfig()); err != nil {
		logrus.Fatalf("Invalid drive parameters: %v\n", err)
	}

	d.lock.Lock()
	d.disp = disp
	d.pins = pins
	d.lastStates = make([]string, disp.SegmentCount())
	for i := range d.lastStates {
		d.lastStates[i] = ecd.StateUndefined.String()
	}
	d.lock.Unlock()

	go func() {
		for loop := true; loop; {
			select {
			case cmd := <-d.cmds:
				err := cmd(disp)
				if err != nil {
					logrus.Warnf("Panel drive failed: %v", err)
				}
				d.publishStates(disp)
				select {
				case d.eventChannel <- event.PanelEvent{Data: event.PanelEventStepDoneData{Err: err}}:
				default:
				}
			case <-d.askDone:
				loop = false
			}
		}
		if d.carrier != nil {
			d.carrier.Close()
		}
		d.done <- true
	}()
}

func (d *Panel) StopSendingEvent() {
	logrus.Infof("Stop panel device")

	// Cut any in-flight pulse loop short so the worker drains quickly.
	d.StopDriving()
	d.askDone <- true
	<-d.done
}

func (d *Panel) EventChannel() chan event.PanelEvent {
	return d.eventChannel
}

// post queues a drive command for the worker. The panel is a demo surface: a
// command arriving while the queue is full is dropped with a warning rather
// than stalling the event loop.
func (d *Panel) post(name string, cmd func(*ecd.Display) error) {
	select {
	case d.cmds <- cmd:
	default:
		logrus.Warnf("Panel busy, dropping %s command", name)
	}
}

// Begin runs the power-on sequence: color all segments, then bleach them.
func (d *Panel) Begin() {
	d.post("begin", func(disp *ecd.Display) error {
		return disp.Begin()
	})
}

// SetSegment requests and executes a single segment transition.
func (d *Panel) SetSegment(index int, colored bool) {
	d.post("segment set", func(disp *ecd.Display) error {
		if err := disp.SetSegmentState(index, colored); err != nil {
			return err
		}
		return disp.ExecuteDisplay()
	})
}

// ApplyFrame requests a target state per segment and executes one pass.
func (d *Panel) ApplyFrame(targets []bool) {
	frame := make([]bool, len(targets))
	copy(frame, targets)
	d.post("frame", func(disp *ecd.Display) error {
		for i, colored := range frame {
			if i >= disp.SegmentCount() {
				break
			}
			if err := disp.SetSegmentState(i, colored); err != nil {
				return err
			}
		}
		return disp.ExecuteDisplay()
	})
}

// BleachAll clears the whole panel.
func (d *Panel) BleachAll() {
	d.post("bleach all", func(disp *ecd.Display) error {
		disp.SetAllSegmentsBleach()
		return disp.ExecuteDisplay()
	})
}

// MaintenancePass runs one pipeline with no pending transitions, so the
// engine re-measures OCP drift and refreshes what leaked.
func (d *Panel) MaintenancePass() {
	d.post("maintenance", func(disp *ecd.Display) error {
		return disp.ExecuteDisplay()
	})
}

// DirectSetAll bypasses the state machine: CE and every working electrode
// are forced to opposite rails for a fixed hold, then released. Segment
// bookkeeping is intentionally left untouched, exactly like the direct-drive
// demo mode of the original kits.
func (d *Panel) DirectSetAll(colored bool, hold time.Duration) {
	d.lock.RLock()
	pins := d.pins
	d.lock.RUnlock()

	d.post("direct drive", func(disp *ecd.Display) error {
		var ceVolts float64
		level := gpio.Low
		if colored {
			ceVolts = d.serverConfig.SupplyVoltage - disp.Config().RefreshColoringVoltage
			level = gpio.High
		} else {
			ceVolts = disp.Config().RefreshBleachingVoltage
		}
		if err := disp.EnableCounterElectrode(ceVolts); err != nil {
			return err
		}
		for _, p := range pins {
			if err := p.Drive(level); err != nil {
				return err
			}
		}
		time.Sleep(hold)
		for _, p := range pins {
			if err := p.Release(); err != nil {
				return err
			}
		}
		return disp.DisableCounterElectrode()
	})
}

// StopDriving raises the stop token. Safe from any goroutine, effective
// mid-pulse.
func (d *Panel) StopDriving() {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.disp != nil {
		d.disp.SetStopDrivingFlag()
	}
}

// Cancel re-allows driving and clears the panel to all bleached.
func (d *Panel) Cancel() {
	d.lock.RLock()
	disp := d.disp
	d.lock.RUnlock()
	if disp == nil {
		return
	}
	disp.ClearStopDriving()
	d.post("cancel", func(disp *ecd.Display) error {
		disp.SetAllSegmentsBleach()
		return disp.ExecuteDisplay()
	})
}

// States returns the last published per-segment states.
func (d *Panel) States() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	out := make([]string, len(d.lastStates))
	copy(out, d.lastStates)
	return out
}

func (d *Panel) publishStates(disp *ecd.Display) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for i := range d.lastStates {
		st, err := disp.CurrentState(i)
		if err != nil {
			continue
		}
		d.lastStates[i] = st.String()
	}
}
