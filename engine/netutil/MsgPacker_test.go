package netutil

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/uuid"
)

type testMsg struct {
	Type     string                 `json:"type"`
	F1       float64                `json:"f1"`
	F2       int                    `json:"f2,omitempty"`
	List     []interface{}          `json:"list"`
	MapField map[string]interface{} `json:"map"`
}

func benchmarkMsgPacker(b *testing.B, packer MsgPacker) {
	msg := testMsg{
		Type:     "state",
		F1:       0.123124234,
		List:     []interface{}{1, 2, 3, "abc", "def"},
		MapField: map[string]interface{}{},
	}
	for i := 0; i < 100; i++ {
		msg.MapField[uuid.GenUUID()] = uuid.GenUUID()
	}

	var totalSize int64
	for i := 0; i < b.N; i++ {
		buf := make([]byte, 0, 100)
		buf, _ = packer.PackMsg(msg, buf)
		totalSize += int64(len(buf))
	}
	b.Logf("average size: %d", totalSize/int64(b.N))
}

func BenchmarkMessagePackMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, MessagePackMsgPacker{})
}

func BenchmarkJSONMsgPacker(b *testing.B) {
	benchmarkMsgPacker(b, JSONMsgPacker{})
}

func TestMessagePackUsesJSONNames(t *testing.T) {
	buf, err := MessagePackMsgPacker{}.PackMsg(testMsg{Type: "state", F1: 1.5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := (MessagePackMsgPacker{}).UnpackMsg(buf, &out); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "state", out["type"])
	assert.Equal(t, 1.5, out["f1"])
	_, hasF2 := out["f2"]
	assert.T(t, !hasF2, "omitempty should be honoured")
}

func TestMessagePackMsgPacker_UnpackMsg(t *testing.T) {
	msg := map[string]interface{}{
		"a": 1,
		"b": 2,
		"c": map[string]interface{}{
			"d": 1,
		},
	}
	buf, err := MessagePackMsgPacker{}.PackMsg(msg, nil)
	if err != nil {
		t.Error(err)
	}
	var outmsg map[string]interface{}
	MessagePackMsgPacker{}.UnpackMsg(buf, &outmsg)
	if _, ok := outmsg["c"].(map[interface{}]interface{}); ok {
		t.Errorf("should not unpack with type map[interface{}]interface{}")
	}
}

func TestJSONMsgPacker(t *testing.T) {
	buf, err := JSONMsgPacker{}.PackMsg(testMsg{Type: "chat<>"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, `{"type":"chat<>","f1":0,"list":null,"map":null}`, string(buf))
	assert.T(t, !JSONMsgPacker{}.Binary(), "json is text")
	assert.T(t, PackerByName("msgpack").Binary(), "msgpack is binary")
	assert.Equal(t, JSONMsgPacker{}, PackerByName("anything"))
}
