package proto

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/nexuer/qhttp/encoding"
)

const Name = "proto"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto: %T does not implement proto.Message", v)
	}
	return proto.Marshal(m)
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("proto: %T does not implement proto.Message", v)
	}
	return proto.Unmarshal(data, m)
}

func (codec) Name() string {
	return Name
}
