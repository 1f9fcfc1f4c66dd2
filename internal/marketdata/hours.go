package marketdata

import (
	"errors"
	"time"
)

// Window is the local-time trading-hours range. The close bound is
// inclusive of the minute it names, so 09:00-15:30 accepts 15:30:59.
type Window struct {
	openMinutes  int
	closeMinutes int
}

func ParseWindow(open, close string) (Window, error) {
	o, err := time.Parse("15:04", open)
	if err != nil {
		return Window{}, errors.New("invalid market open time")
	}
	c, err := time.Parse("15:04", close)
	if err != nil {
		return Window{}, errors.New("invalid market close time")
	}
	w := Window{
		openMinutes:  o.Hour()*60 + o.Minute(),
		closeMinutes: c.Hour()*60 + c.Minute(),
	}
	if w.closeMinutes <= w.openMinutes {
		return Window{}, errors.New("market close must be after open")
	}
	return w, nil
}

func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.openMinutes && m <= w.closeMinutes
}
