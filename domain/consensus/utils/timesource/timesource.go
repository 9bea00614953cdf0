package timesource

import (
	"time"

	"github.com/shardledger/shardd/domain/consensus/model"
)

// timeSource provides an implementation of the model.TimeSource interface
// that simply returns the current local time.
type timeSource struct{}

// Now returns the current local time, with one second precision.
func (m *timeSource) Now() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// New returns a new instance of a model.TimeSource
func New() model.TimeSource {
	return &timeSource{}
}

type fixedTimeSource struct {
	now time.Time
}

func (f *fixedTimeSource) Now() time.Time {
	return f.now
}

// NewFixed returns a model.TimeSource that always reports now, truncated to
// one second precision. It is used to check historical blocks and in tests.
func NewFixed(now time.Time) model.TimeSource {
	return &fixedTimeSource{now: time.Unix(now.Unix(), 0)}
}
