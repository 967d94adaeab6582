package event

import (
	"github.com/voltlane/ecdkit/apimodel"
)

// Internal
type InternalEvent struct {
	Data interface{}
}

type InternalEventAnimationStepData struct{}

// Panel (segment display driving)
type PanelEvent struct {
	Data interface{}
}

// PanelEventStepDoneData is emitted when a blocking drive command finished,
// so the event loop can schedule the next animation step.
type PanelEventStepDoneData struct {
	Err error
}

// Ticker
type TickerEvent struct {
	Data interface{}
}

// TickerEventMaintenanceData asks for an idle refresh pass.
type TickerEventMaintenanceData struct{}

// Buttons
type ButtonId int

const (
	MODE_BUTTON ButtonId = iota
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventSegmentSetData struct {
	Segment int
	Colored bool
}

type ApiEventBleachAllData struct{}

type ApiEventAnimationData struct {
	Animation int
}

type ApiEventStopData struct{}

type ApiEventCancelData struct{}

type ApiEventStatusData struct {
	Reply chan apimodel.PanelStatus
}
