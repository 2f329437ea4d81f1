package netutil

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack"
)

// MessagePackMsgPacker packs and unpacks message in MessagePack format
//
// Struct messages are first reduced to their JSON document so field names
// follow json tags and both codecs carry the same keys.
type MessagePackMsgPacker struct{}

// PackMsg packs message to bytes in MessagePack format
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	doc, err := toDocument(msg)
	if err != nil {
		return buf, err
	}
	buffer := bytes.NewBuffer(buf)
	encoder := msgpack.NewEncoder(buffer)
	if err := encoder.Encode(doc); err != nil {
		return buf, err
	}
	return buffer.Bytes(), nil
}

// UnpackMsg unpacksbytes in MessagePack format to message
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}

// Binary is true: MessagePack goes in binary frames
func (mp MessagePackMsgPacker) Binary() bool {
	return true
}

func toDocument(msg interface{}) (interface{}, error) {
	switch msg.(type) {
	case map[string]interface{}, []interface{}, string, nil:
		return msg, nil
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
