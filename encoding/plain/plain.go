package plain

import (
	encoding2 "encoding"
	"fmt"

	"github.com/nexuer/qhttp/encoding"
)

const Name = "plain"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case encoding2.TextMarshaler:
		return t.MarshalText()
	case fmt.Stringer:
		return []byte(t.String()), nil
	default:
		return []byte(fmt.Sprintf("%v", v)), nil
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch t := v.(type) {
	case *string:
		*t = string(data)
	case *[]byte:
		*t = append([]byte(nil), data...)
	case encoding2.TextUnmarshaler:
		return t.UnmarshalText(data)
	default:
		return fmt.Errorf("plain: cannot unmarshal into %T, want *string, *[]byte or encoding.TextUnmarshaler", v)
	}
	return nil
}

func (codec) Name() string {
	return Name
}
