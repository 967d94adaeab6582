package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voltlane/ecdkit/internal/srv/config"
	"github.com/voltlane/ecdkit/internal/srv/event"
)

// Ticker schedules the idle maintenance passes that keep a bi-stable panel
// legible between explicit drives.
type Ticker struct {
	lock         sync.RWMutex
	eventChannel chan event.TickerEvent

	serverConfig      *config.ServerConfig
	maintenanceTicker *time.Ticker

	paused bool

	askDone chan bool
	done    chan bool
}

func NewTicker(serverConfig *config.ServerConfig) *Ticker {
	ticker := Ticker{
		eventChannel: make(chan event.TickerEvent),
		serverConfig: serverConfig,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
	return &ticker
}

func (d *Ticker) Start() {
	logrus.Infof("Start ticker device")
	d.lock.Lock()
	defer d.lock.Unlock()

	period := time.Duration(d.serverConfig.MaintenancePeriodSec) * time.Second
	if period <= 0 {
		logrus.Infof("Maintenance refresh disabled")
		return
	}

	d.maintenanceTicker = time.NewTicker(period)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.maintenanceTicker.C:
				if d.isPaused() {
					continue
				}
				d.eventChannel <- event.TickerEvent{Data: event.TickerEventMaintenanceData{}}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Ticker) StopSendingEvent() {
	logrus.Infof("Stop ticker device")
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.maintenanceTicker == nil {
		return
	}

	d.maintenanceTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Ticker) EventChannel() chan event.TickerEvent {
	return d.eventChannel
}

// Pause suspends maintenance passes while an animation runs, so scheduled
// refreshes never interleave with the animation's own drives.
func (d *Ticker) Pause() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.paused = true
}

func (d *Ticker) Resume() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.paused = false
}

func (d *Ticker) isPaused() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.paused
}
