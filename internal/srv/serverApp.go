package srv

import (
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voltlane/ecdkit/internal/srv/config"
	"github.com/voltlane/ecdkit/internal/srv/device"
	"github.com/voltlane/ecdkit/internal/srv/event"
	"github.com/voltlane/ecdkit/internal/version"
)

type ServerApp struct {
	*config.ServerConfig
	panelDevice   *device.Panel
	ledsDevice    *device.Leds
	tickerDevice  *device.Ticker
	buttonsDevice *device.Buttons
	apiDevice     *device.Api

	currentAnimation Animation
	animationRunning bool
	animationStep    int

	animationStepTimer *time.Timer

	internalEventChannel chan event.InternalEvent

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of ecdkit server %s ...", version.AppVersion.String())

	app := &ServerApp{
		currentAnimation:     NO_ANIMATION,
		internalEventChannel: make(chan event.InternalEvent),
		eventLoopAskDone:     make(chan bool),
		eventLoopDone:        make(chan bool),
		ServerConfig:         config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.panelDevice = device.NewPanel(app.ServerConfig)
	app.ledsDevice = device.NewLeds(app.ServerConfig)
	app.tickerDevice = device.NewTicker(app.ServerConfig)
	app.buttonsDevice = device.NewButtons(app.ServerConfig)
	app.apiDevice = device.NewApi(app.ServerConfig)

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting ecdkit server ...")

	logrus.Printf("Starting devices ...")

	// Start panel device and run the power-on sequence
	s.panelDevice.Start()
	s.panelDevice.Begin()

	// Start leds device
	s.ledsDevice.Start()

	// Start event loop
	go s.eventLoop()

	// Start ticker device
	s.tickerDevice.Start()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start api device
	if s.ServerParam.ApiParam.Enabled {
		s.apiDevice.Start()
	}
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping ecdkit server ...")

	// Stop api
	if s.ServerParam.ApiParam.Enabled {
		s.apiDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop ticker device
	s.tickerDevice.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop panel device
	s.panelDevice.StopSendingEvent()

	// Stop leds device
	s.ledsDevice.Stop()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}
