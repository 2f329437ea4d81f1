package netutil

import "strings"

// MsgPacker is used to packs and unpacks messages
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
	// Binary reports whether packed messages travel in binary frames
	Binary() bool
}

// PackerByName returns the packer for a codec name, JSON for anything unknown
func PackerByName(name string) MsgPacker {
	switch strings.ToLower(name) {
	case "msgpack", "messagepack":
		return MessagePackMsgPacker{}
	default:
		return JSONMsgPacker{}
	}
}
