package websocket

import (
	"bytes"
	"testing"

	"github.com/bmizerany/assert"
)

// masked "Hello" from RFC 6455 section 5.7
var maskedHello = []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}

func TestAcceptKey(t *testing.T) {
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", AcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestDecodeMaskedHello(t *testing.T) {
	d := NewDecoder(1024, true)
	frames, err := d.Feed(maskedHello)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, OpText, frames[0].Opcode)
	assert.Equal(t, "Hello", string(frames[0].Payload))
}

func TestDecodePartialReads(t *testing.T) {
	d := NewDecoder(1024, true)
	stream := append(append([]byte{}, maskedHello...), maskedHello...)
	var got []string
	for _, b := range stream {
		frames, err := d.Feed([]byte{b})
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range frames {
			got = append(got, string(f.Payload))
		}
	}
	assert.Equal(t, []string{"Hello", "Hello"}, got)
	assert.Equal(t, 0, d.Buffered())
}

func TestDecodeExtendedLengths(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	for _, size := range []int{0, 125, 126, 300, 65535, 70000} {
		payload := bytes.Repeat([]byte{'x'}, size)
		d := NewDecoder(1<<20, true)
		frames, err := d.Feed(EncodeFrame(OpText, payload, &key))
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		assert.Equal(t, 1, len(frames))
		assert.Equal(t, size, len(frames[0].Payload))
		assert.T(t, bytes.Equal(payload, frames[0].Payload), "payload mismatch")
	}
}

func TestRejectHugeLength(t *testing.T) {
	d := NewDecoder(0, true)
	// 64-bit length with a non-zero high word, rejected before any payload arrives
	hdr := []byte{0x81, 0xFF, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	_, err := d.Feed(hdr)
	perr, ok := err.(*ProtocolError)
	assert.T(t, ok, "expected protocol error")
	assert.Equal(t, CloseMessageTooBig, perr.Code)
}

func TestRejectOverLimit(t *testing.T) {
	d := NewDecoder(100, true)
	key := [4]byte{9, 9, 9, 9}
	_, err := d.Feed(EncodeFrame(OpText, make([]byte, 101), &key))
	assert.T(t, err != nil, "payload above limit should fail")
}

func TestRejectUnmasked(t *testing.T) {
	d := NewDecoder(1024, true)
	_, err := d.Feed(EncodeFrame(OpText, []byte("hi"), nil))
	assert.T(t, err != nil, "unmasked client frame should fail")

	// a client-side decoder accepts unmasked server frames
	d = NewDecoder(1024, false)
	frames, err := d.Feed(EncodeFrame(OpText, []byte("hi"), nil))
	assert.Equal(t, nil, err)
	assert.Equal(t, "hi", string(frames[0].Payload))
}

func TestRejectFragments(t *testing.T) {
	d := NewDecoder(1024, false)
	frame := EncodeFrame(OpText, []byte("part"), nil)
	frame[0] &^= 0x80 // clear FIN
	_, err := d.Feed(frame)
	assert.T(t, err != nil, "fragmented message should fail")

	d = NewDecoder(1024, false)
	_, err = d.Feed(EncodeFrame(OpContinuation, []byte("rest"), nil))
	assert.T(t, err != nil, "continuation frame should fail")
}

func TestRejectLongControlFrame(t *testing.T) {
	d := NewDecoder(1024, false)
	_, err := d.Feed(EncodeFrame(OpPing, make([]byte, 126), nil))
	assert.T(t, err != nil, "control frames are limited to 125 bytes")
}

func TestFramesBeforeErrorAreReturned(t *testing.T) {
	d := NewDecoder(1024, true)
	stream := append(append([]byte{}, maskedHello...), 0xF1, 0x80)
	frames, err := d.Feed(stream)
	assert.Equal(t, 1, len(frames))
	assert.T(t, err != nil, "reserved bits should fail")
}

func TestClosePayload(t *testing.T) {
	b := ClosePayload(CloseNormal, "bye")
	assert.Equal(t, []byte{0x03, 0xE8, 'b', 'y', 'e'}, b)
}
