// Package trial evaluates the free-trial window and the usage limits that
// apply while a user is on it. It is the only place the window length and
// limits are defined.
package trial

import (
	"errors"
	"math"
	"time"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

const (
	Length = 14 * day
	day    = 24 * time.Hour
)

// ErrNoTrialFound is returned when trial gating applies but no start date is known.
var ErrNoTrialFound = errors.New("no trial found")

type Limits struct {
	MaxAgents           int `json:"maxAgents"`
	MaxRequestsPerDay   int `json:"maxRequestsPerDay"`
	MaxTokensPerRequest int `json:"maxTokensPerRequest"`
	MaxFileSizeMB       int `json:"maxFileSizeMb"`
	MaxFilesPerDay      int `json:"maxFilesPerDay"`
}

var DefaultLimits = Limits{
	MaxAgents:           3,
	MaxRequestsPerDay:   100,
	MaxTokensPerRequest: 2000,
	MaxFileSizeMB:       10,
	MaxFilesPerDay:      10,
}

// Window is the derived trial period. It is never persisted.
type Window struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	DaysLeft int       `json:"daysLeft"`
}

func NewWindow(start, now time.Time) Window {
	end := start.Add(Length)
	return Window{
		Start:    start,
		End:      end,
		DaysLeft: daysLeft(end, now),
	}
}

type Result struct {
	Active   bool    `json:"active"`
	Expired  bool    `json:"expired"`
	DaysLeft int     `json:"daysLeft"`
	Limits   *Limits `json:"limits"`
}

// Gated reports whether trial limits apply to a user with the given status.
// An unset status is treated as gated.
func Gated(status model.TrialStatus) bool {
	return status == "" || status == model.TrialStatusActive || status == model.TrialStatusExpired
}

// Evaluate computes the trial state at now. Statuses outside active/expired
// are not gated and yield a zero Result.
func Evaluate(start *time.Time, status model.TrialStatus, now time.Time) (Result, error) {
	if !Gated(status) {
		return Result{}, nil
	}
	if start == nil || start.IsZero() {
		return Result{}, ErrNoTrialFound
	}

	w := NewWindow(*start, now)
	expired := now.After(w.End)
	limits := DefaultLimits

	return Result{
		Active:   !expired,
		Expired:  expired,
		DaysLeft: w.DaysLeft,
		Limits:   &limits,
	}, nil
}

func daysLeft(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / float64(day)))
}
