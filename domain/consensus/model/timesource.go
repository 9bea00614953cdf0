package model

import "time"

// TimeSource provides the clock header timestamps are bounded against.
type TimeSource interface {
	Now() time.Time
}
