package ws

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

// Codec encodes frames on the wire.
type Codec interface {
	Name() string
	Marshal(f peer.Frame) ([]byte, error)
	Unmarshal(data []byte, f *peer.Frame) error
	// MessageType is the websocket message type frames are sent as.
	MessageType() int
}

// JSONCodec sends frames as JSON text messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(f peer.Frame) ([]byte, error) { return json.Marshal(f) }

func (JSONCodec) Unmarshal(data []byte, f *peer.Frame) error { return json.Unmarshal(data, f) }

func (JSONCodec) MessageType() int { return websocket.TextMessage }

// MsgpackCodec sends frames as msgpack binary messages.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Marshal(f peer.Frame) ([]byte, error) { return msgpack.Marshal(&f) }

func (MsgpackCodec) Unmarshal(data []byte, f *peer.Frame) error { return msgpack.Unmarshal(data, f) }

func (MsgpackCodec) MessageType() int { return websocket.BinaryMessage }

// CodecByName returns the codec configured by WIRE_CODEC.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown wire codec %q", name)
	}
}
