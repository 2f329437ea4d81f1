package gwlog

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestGWLog(t *testing.T) {
	var buf bytes.Buffer
	SetSource("gwlog_test")
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(DebugLevel)

	if lv := StringToLevel("debug"); lv != DebugLevel {
		t.Fail()
	}
	if lv := StringToLevel("info"); lv != InfoLevel {
		t.Fail()
	}
	if lv := StringToLevel("warning"); lv != WarnLevel {
		t.Fail()
	}
	if lv := StringToLevel("error"); lv != ErrorLevel {
		t.Fail()
	}
	if lv := StringToLevel("panic"); lv != PanicLevel {
		t.Fail()
	}
	if lv := StringToLevel("fatal"); lv != FatalLevel {
		t.Fail()
	}

	Debugf("this is a debug %d", 1)
	SetLevel(InfoLevel)
	Debugf("SHOULD NOT SEE THIS!")
	Infof("this is an info %d", 2)
	Warnf("this is a warning %d", 3)
	TraceError("this is a trace error %d", 4)
	func() {
		defer func() {
			_ = recover()
		}()
		Panicf("this is a panic %d", 4)
	}()
	SetLevel(DebugLevel)

	out := buf.String()
	if !strings.Contains(out, "this is a debug 1") {
		t.Errorf("debug line missing: %s", out)
	}
	if strings.Contains(out, "SHOULD NOT SEE THIS") {
		t.Errorf("debug line written at info level")
	}
	if !strings.Contains(out, "gwlog_test") {
		t.Errorf("source field missing")
	}
}
