package opmon

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestOperation(t *testing.T) {
	Snapshot(true)
	for i := 0; i < 3; i++ {
		op := StartOperation("test.op")
		op.Finish(time.Hour)
	}
	stats := Snapshot(false)
	assert.Equal(t, 1, len(stats))
	assert.Equal(t, "test.op", stats[0].Name)
	assert.Equal(t, uint64(3), stats[0].Count)

	var buf bytes.Buffer
	Dump(&buf)
	assert.T(t, strings.Contains(buf.String(), "test.op"), "dump should list test.op")
	assert.Equal(t, 0, len(Snapshot(false)))
}
