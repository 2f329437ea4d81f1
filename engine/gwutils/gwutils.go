package gwutils

import (
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwvar"
)

// RunPanicless calls f and recovers if it panics; what and args label the work in the log
func RunPanicless(f func(), what string, args ...interface{}) (paniced bool) {
	defer func() {
		err := recover()
		if err != nil {
			gwvar.Panics.Add(1)
			gwlog.TraceError(what+" panicked: %v", append(args, err)...)
			paniced = true
		}
	}()

	f()
	return
}
