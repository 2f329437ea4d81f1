// Package gwvar publishes live server counters through expvar at /debug/vars
package gwvar

import "expvar"

// Bool is an expvar flag
type Bool struct {
	val *expvar.Int
}

// NewBool publishes a flag under name
func NewBool(name string) *Bool {
	return &Bool{
		val: expvar.NewInt(name),
	}
}

// Value returns the flag
func (b *Bool) Value() bool {
	return b.val.Value() > 0
}

// Set changes the flag
func (b *Bool) Set(v bool) {
	if v {
		b.val.Set(1)
	} else {
		b.val.Set(0)
	}
}

var (
	// IsServing is set while the simulation loop runs
	IsServing = NewBool("IsServing")
	// OnlinePlayers is the number of attached heroes
	OnlinePlayers = expvar.NewInt("OnlinePlayers")
	// Connections is the number of open client connections
	Connections = expvar.NewInt("Connections")
	// Ticks counts simulation ticks
	Ticks = expvar.NewInt("Ticks")
	// Panics counts panics recovered by gwutils.RunPanicless
	Panics = expvar.NewInt("Panics")
)
