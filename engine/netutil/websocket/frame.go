package websocket

import (
	"encoding/binary"
	"fmt"
)

// Opcode is the 4-bit frame type
type Opcode byte

// Frame opcodes
const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// IsControl reports whether the opcode is close, ping or pong
func (op Opcode) IsControl() bool {
	return op&0x8 != 0
}

// Close status codes
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseProtocolError   = 1002
	CloseInvalidPayload  = 1007
	ClosePolicyViolation = 1008
	CloseMessageTooBig   = 1009
)

const maxControlPayload = 125

// Frame is one decoded frame with the payload already unmasked
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Payload []byte
}

// ProtocolError is a peer violation; the connection must be closed with Code
type ProtocolError struct {
	Code   int
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("websocket protocol error %d: %s", e.Code, e.Reason)
}

func protocolError(code int, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Decoder turns a byte stream into frames, keeping partial frames between Feed calls
type Decoder struct {
	buf         []byte
	maxPayload  int
	requireMask bool
}

// NewDecoder creates a decoder; requireMask rejects unmasked frames as servers must
func NewDecoder(maxPayload int, requireMask bool) *Decoder {
	return &Decoder{maxPayload: maxPayload, requireMask: requireMask}
}

// Buffered returns the number of bytes held for an incomplete frame
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends chunk and returns every complete frame
//
// Frames decoded before an error are returned together with the error.
func (d *Decoder) Feed(chunk []byte) ([]Frame, error) {
	d.buf = append(d.buf, chunk...)
	var frames []Frame
	consumed := 0
	for {
		frame, n, err := d.parse(d.buf[consumed:])
		if err != nil {
			d.buf = d.buf[:0]
			return frames, err
		}
		if n == 0 {
			break
		}
		frames = append(frames, frame)
		consumed += n
	}
	if consumed > 0 {
		rest := copy(d.buf, d.buf[consumed:])
		d.buf = d.buf[:rest]
	}
	return frames, nil
}

// parse decodes one frame from b; n == 0 means more bytes are needed
func (d *Decoder) parse(b []byte) (frame Frame, n int, err error) {
	if len(b) < 2 {
		return
	}
	b0, b1 := b[0], b[1]
	if b0&0x70 != 0 {
		return frame, 0, protocolError(CloseProtocolError, "reserved bits set")
	}
	frame.Fin = b0&0x80 != 0
	frame.Opcode = Opcode(b0 & 0x0F)
	masked := b1&0x80 != 0

	switch frame.Opcode {
	case OpText, OpBinary:
		if !frame.Fin {
			return frame, 0, protocolError(CloseProtocolError, "fragmented messages are not supported")
		}
	case OpClose, OpPing, OpPong:
		if !frame.Fin {
			return frame, 0, protocolError(CloseProtocolError, "fragmented control frame")
		}
	case OpContinuation:
		return frame, 0, protocolError(CloseProtocolError, "continuation frames are not supported")
	default:
		return frame, 0, protocolError(CloseProtocolError, "unknown opcode %d", frame.Opcode)
	}
	if d.requireMask && !masked {
		return frame, 0, protocolError(CloseProtocolError, "client frame not masked")
	}

	header := 2
	length := uint64(b1 & 0x7F)
	switch length {
	case 126:
		if len(b) < 4 {
			return frame, 0, nil
		}
		length = uint64(binary.BigEndian.Uint16(b[2:4]))
		header = 4
	case 127:
		if len(b) < 10 {
			return frame, 0, nil
		}
		if binary.BigEndian.Uint32(b[2:6]) != 0 {
			return frame, 0, protocolError(CloseMessageTooBig, "64-bit payload length with high bits set")
		}
		length = uint64(binary.BigEndian.Uint32(b[6:10]))
		header = 10
	}
	if frame.Opcode.IsControl() && length > maxControlPayload {
		return frame, 0, protocolError(CloseProtocolError, "control frame payload %d too long", length)
	}
	if d.maxPayload > 0 && length > uint64(d.maxPayload) {
		return frame, 0, protocolError(CloseMessageTooBig, "payload %d exceeds limit %d", length, d.maxPayload)
	}

	var maskKey [4]byte
	if masked {
		if len(b) < header+4 {
			return frame, 0, nil
		}
		copy(maskKey[:], b[header:header+4])
		header += 4
	}
	total := header + int(length)
	if len(b) < total {
		return frame, 0, nil
	}

	frame.Payload = make([]byte, length)
	copy(frame.Payload, b[header:total])
	if masked {
		maskBytes(maskKey, frame.Payload)
	}
	return frame, total, nil
}

func maskBytes(key [4]byte, b []byte) {
	for i := range b {
		b[i] ^= key[i&3]
	}
}

// EncodeFrame builds a final frame; a non-nil maskKey masks the payload as clients must
func EncodeFrame(op Opcode, payload []byte, maskKey *[4]byte) []byte {
	length := len(payload)
	header := 2
	if length > 0xFFFF {
		header = 10
	} else if length > maxControlPayload {
		header = 4
	}
	if maskKey != nil {
		header += 4
	}

	out := make([]byte, header+length)
	out[0] = 0x80 | byte(op)
	var maskBit byte
	if maskKey != nil {
		maskBit = 0x80
	}
	pos := 2
	switch {
	case length > 0xFFFF:
		out[1] = maskBit | 127
		binary.BigEndian.PutUint64(out[2:10], uint64(length))
		pos = 10
	case length > maxControlPayload:
		out[1] = maskBit | 126
		binary.BigEndian.PutUint16(out[2:4], uint16(length))
		pos = 4
	default:
		out[1] = maskBit | byte(length)
	}
	if maskKey != nil {
		copy(out[pos:pos+4], maskKey[:])
		pos += 4
	}
	copy(out[pos:], payload)
	if maskKey != nil {
		maskBytes(*maskKey, out[pos:])
	}
	return out
}

// ClosePayload encodes a close status code and reason
func ClosePayload(code int, reason string) []byte {
	if len(reason) > maxControlPayload-2 {
		reason = reason[:maxControlPayload-2]
	}
	b := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(b, uint16(code))
	copy(b[2:], reason)
	return b
}
