package crontab

import (
	"time"

	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwutils"
	timer "github.com/xiaonanln/goTimer"
)

const (
	_CRONTAB_TIME_OFFSET = time.Second * 2
)

// Handle is the type of return value of Register, can be used to cancel the register
type Handle int

type entry struct {
	minute, hour, day, month, dayofweek int
	cb                                  func()
}

// a non-negative spec must equal v, a negative spec matches every -spec
func fieldMatch(spec int, v int) bool {
	if spec >= 0 {
		return spec == v
	}
	return v%-spec == 0
}

func (entry *entry) match(t time.Time) bool {
	if !fieldMatch(entry.minute, t.Minute()) || !fieldMatch(entry.hour, t.Hour()) {
		return false
	}
	if !fieldMatch(entry.day, t.Day()) || !fieldMatch(entry.month, int(t.Month())) {
		return false
	}
	switch {
	case entry.dayofweek < 0:
		return true
	case entry.dayofweek == 0 || entry.dayofweek == 7:
		return t.Weekday() == time.Sunday
	default:
		return entry.dayofweek == int(t.Weekday())
	}
}

// Table holds crontab entries checked once a minute on the goroutine that ticks goTimer
type Table struct {
	entries          map[Handle]*entry
	cancelledHandles []Handle
	nextHandle       Handle
	repeat           *timer.Timer
}

// NewTable creates an empty crontab table
func NewTable() *Table {
	return &Table{
		entries:    map[Handle]*entry{},
		nextHandle: 1,
	}
}

// Register a callack which will be executed when time condition is satisfied
//
// param minute: time condition satisfied on the specified minute, or every -minute if minute is negative
// param hour: time condition satisfied on the specified hour, or every -hour when hour is negative
// param day: time condition satisfied on the specified day, or every -day when day is negative
// param month: time condition satisfied on the specified month, or every -month when month is negative
// param dayofweek: time condition satisfied on the specified week day, or every day when dayofweek is -1
// param cb: callback function to be executed when time is satisfied
func (tb *Table) Register(minute, hour, day, month, dayofweek int, cb func()) Handle {
	validateTime(minute, hour, day, month, dayofweek)

	h := tb.nextHandle
	tb.nextHandle++
	tb.entries[h] = &entry{
		minute:    minute,
		hour:      hour,
		day:       day,
		month:     month,
		dayofweek: dayofweek,
		cb:        cb,
	}
	return h
}

func validateTime(minute, hour, day, month, dayofweek int) {
	if minute > 59 || minute < -60 {
		gwlog.Panicf("invalid minute = %d", minute)
	}
	if hour > 23 || hour < -24 {
		gwlog.Panicf("invalid hour = %d", hour)
	}
	if day > 31 || day < -31 || day == 0 {
		gwlog.Panicf("invalid day = %d", day)
	}
	if month > 12 || month < -12 || month == 0 {
		gwlog.Panicf("invalid month = %d", month)
	}
	if dayofweek > 7 || dayofweek < -1 {
		gwlog.Panicf("invalid dayofweek = %d", dayofweek)
	}
}

// Unregister a registered crontab handle; takes effect before the next check
func (tb *Table) Unregister(h Handle) {
	tb.cancelledHandles = append(tb.cancelledHandles, h)
}

// Len returns the number of live entries
func (tb *Table) Len() int {
	tb.unregisterCancelledHandles()
	return len(tb.entries)
}

func (tb *Table) unregisterCancelledHandles() {
	for _, h := range tb.cancelledHandles {
		delete(tb.entries, h)
	}
	tb.cancelledHandles = nil
}

// Start aligns to the next minute boundary and checks the table every minute after that
func (tb *Table) Start() {
	now := time.Now()
	sec := time.Second * time.Duration(now.Second())
	var d time.Duration
	if sec < _CRONTAB_TIME_OFFSET {
		d = _CRONTAB_TIME_OFFSET - sec
	} else {
		d = time.Minute - sec + _CRONTAB_TIME_OFFSET
	}
	d -= time.Duration(now.Nanosecond())
	gwlog.Debugf("crontab: current time is %s, first check after %s", now, d)
	timer.AddCallback(d, func() {
		tb.repeat = timer.AddTimer(time.Minute, func() {
			tb.Check(time.Now())
		})
		tb.Check(time.Now())
	})
}

// Stop cancels the repeating check
func (tb *Table) Stop() {
	if tb.repeat != nil {
		tb.repeat.Cancel()
		tb.repeat = nil
	}
}

// Check runs every entry matching t
func (tb *Table) Check(t time.Time) {
	tb.unregisterCancelledHandles()
	for h, entry := range tb.entries {
		if entry.match(t) {
			gwutils.RunPanicless(entry.cb, "crontab entry %d", h)
		}
	}
	tb.unregisterCancelledHandles()
}
