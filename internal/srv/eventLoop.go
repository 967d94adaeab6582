package srv

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voltlane/ecdkit/apimodel"
	"github.com/voltlane/ecdkit/internal/srv/event"
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case ev := <-s.internalEventChannel:
			switch ev.Data.(type) {
			case event.InternalEventAnimationStepData:
				if s.animationRunning {
					s.animationStep++
					s.applyAnimationStep()
				}
			}
		case ev := <-s.panelDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.PanelEventStepDoneData:
				logrus.Debugf("Receive panel step done event")
				if data.Err != nil && s.animationRunning {
					logrus.Warnf("Animation step failed, stopping animation: %v", data.Err)
					s.haltAnimation()
					continue
				}
				if s.animationRunning {
					s.animationStepTimer = time.AfterFunc(animationStepPeriod, func() {
						s.internalEventChannel <- event.InternalEvent{Data: event.InternalEventAnimationStepData{}}
					})
				}
			}
		case ev := <-s.tickerDevice.EventChannel():
			switch ev.Data.(type) {
			case event.TickerEventMaintenanceData:
				logrus.Debugf("Receive ticker maintenance event")
				if !s.animationRunning {
					s.panelDevice.MaintenancePass()
				}
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d", ev.ButtonId, ev.ButtonEventType, ev.PressStepCount)
			switch ev.ButtonId {
			case event.MODE_BUTTON:
				if ev.ButtonEventType == event.RELEASE_EVENT_TYPE && ev.PressStepCount < 6 {
					// Short press: cycle to the next animation
					next := s.currentAnimation + 1
					if next >= END_ANIMATION {
						next = BLINK_ANIMATION
					}
					s.startAnimation(next)
				} else if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == 6 {
					// Long press: abort the pulse in flight and clear the panel
					logrus.Infof("Long press, cancelling animation")
					s.haltAnimation()
					s.panelDevice.Cancel()
				}
			}
		case ev := <-s.apiDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.ApiEventSegmentSetData:
				if s.animationRunning {
					ev.Result <- fmt.Errorf("animation in progress")
					continue
				}
				if data.Segment < 0 || data.Segment >= s.SegmentCount() {
					ev.Result <- fmt.Errorf("no segment %d", data.Segment)
					continue
				}
				s.panelDevice.SetSegment(data.Segment, data.Colored)
				ev.Result <- nil
			case event.ApiEventBleachAllData:
				if s.animationRunning {
					ev.Result <- fmt.Errorf("animation in progress")
					continue
				}
				s.panelDevice.BleachAll()
				ev.Result <- nil
			case event.ApiEventAnimationData:
				animation := Animation(data.Animation)
				if animation <= NO_ANIMATION || animation >= END_ANIMATION {
					ev.Result <- fmt.Errorf("no animation %d", data.Animation)
					continue
				}
				s.startAnimation(animation)
				ev.Result <- nil
			case event.ApiEventStopData:
				s.haltAnimation()
				s.panelDevice.StopDriving()
				ev.Result <- nil
			case event.ApiEventCancelData:
				s.haltAnimation()
				s.panelDevice.Cancel()
				ev.Result <- nil
			case event.ApiEventStatusData:
				data.Reply <- apimodel.PanelStatus{
					Segments:  s.panelDevice.States(),
					Animation: int(s.currentAnimation),
					Running:   s.animationRunning,
				}
				ev.Result <- nil
			}
		case <-s.eventLoopAskDone:
			loop = false
			s.haltAnimation()
		}
	}
	s.eventLoopDone <- true
}

// startAnimation switches to the given animation and drives its first step.
// Maintenance refreshes stay paused until the animation ends.
func (s *ServerApp) startAnimation(animation Animation) {
	logrus.Infof("Start animation: %s", animation)

	s.haltAnimation()
	s.currentAnimation = animation
	s.animationStep = 0
	s.animationRunning = true
	s.tickerDevice.Pause()
	s.ledsDevice.ShowAnimation(int(animation) - 1)
	s.applyAnimationStep()
}

// haltAnimation stops the stepping without touching the panel.
func (s *ServerApp) haltAnimation() {
	if s.animationStepTimer != nil {
		s.animationStepTimer.Stop()
		s.animationStepTimer = nil
	}
	s.animationRunning = false
	s.tickerDevice.Resume()
}

func (s *ServerApp) applyAnimationStep() {
	if s.currentAnimation == DIRECT_ANIMATION {
		colored := s.animationStep%2 == 0
		s.panelDevice.DirectSetAll(colored, directDriveHold)
		return
	}
	targets := animationFrame(s.currentAnimation, s.animationStep, s.SegmentCount())
	s.panelDevice.ApplyFrame(targets)
}
