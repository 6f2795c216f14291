package xml

import (
	"encoding/xml"

	"github.com/nexuer/qhttp/encoding"
)

const Name = "xml"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}

func (codec) Name() string {
	return Name
}
