package main

import (
	"earshot/capture"
	"earshot/log"
)

// sessionObserver logs the milestones of one capture session and forwards
// every event to next.
type sessionObserver struct {
	session string
	next    capture.Observer
}

func (o *sessionObserver) StateChanged(s capture.State) {
	if s == capture.Speaking {
		log.SpeechStart(o.session)
	}
	o.next.StateChanged(s)
}

func (o *sessionObserver) Calibrated(c capture.Calibration) {
	log.Calibrated(o.session, c.NoiseRMS, c.Threshold)
	o.next.Calibrated(c)
}

func (o *sessionObserver) Level(rms float64, speech bool) {
	o.next.Level(rms, speech)
}
