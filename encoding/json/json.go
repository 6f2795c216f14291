package json

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/nexuer/qhttp/encoding"
)

const Name = "json"

var (
	// MarshalOptions is used when encoding proto.Message values.
	MarshalOptions = protojson.MarshalOptions{EmitUnpopulated: true}
	// UnmarshalOptions is used when decoding into proto.Message values.
	UnmarshalOptions = protojson.UnmarshalOptions{DiscardUnknown: true}
)

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case json.Marshaler:
		return m.MarshalJSON()
	case proto.Message:
		return MarshalOptions.Marshal(m)
	default:
		return json.Marshal(v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case json.Unmarshaler:
		return m.UnmarshalJSON(data)
	case proto.Message:
		return UnmarshalOptions.Unmarshal(data, m)
	default:
		return json.Unmarshal(data, v)
	}
}

func (codec) Name() string {
	return Name
}
