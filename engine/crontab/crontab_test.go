package crontab

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestRegister(t *testing.T) {
	tb := NewTable()
	calls := 0
	tb.Register(-1, -1, -1, -1, -1, func() {
		calls++
	})
	tb.Check(time.Date(2024, 3, 5, 10, 17, 0, 0, time.UTC))
	assert.Equal(t, 1, calls)
}

func TestEveryNMinutes(t *testing.T) {
	tb := NewTable()
	calls := 0
	tb.Register(-30, -1, -1, -1, -1, func() {
		calls++
	})
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	for m := 0; m < 60; m++ {
		tb.Check(base.Add(time.Duration(m) * time.Minute))
	}
	assert.Equal(t, 2, calls)
}

func TestDayOfWeek(t *testing.T) {
	tb := NewTable()
	sundays := 0
	tb.Register(0, 4, -1, -1, 7, func() {
		sundays++
	})
	// 2024-03-03 is a Sunday
	tb.Check(time.Date(2024, 3, 3, 4, 0, 0, 0, time.UTC))
	tb.Check(time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, sundays)
}

func TestUnregister(t *testing.T) {
	tb := NewTable()
	calls := 0
	var h Handle
	h = tb.Register(-1, -1, -1, -1, -1, func() {
		calls++
		tb.Unregister(h)
	})
	now := time.Now()
	tb.Check(now)
	tb.Check(now)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, tb.Len())
}

func TestInvalidTimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("minute 61 should panic")
		}
	}()
	NewTable().Register(61, -1, -1, -1, -1, func() {})
}
