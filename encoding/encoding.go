// Package encoding holds the codec registry shared by request and
// response bodies. Codecs register themselves from their package init,
// importing a codec package is enough to make it available.
package encoding

// Codec turns values into bytes and back for one wire format.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var registeredCodecs = make(map[string]Codec)

// RegisterCodec registers a codec under its name, replacing any codec
// previously registered under the same name.
func RegisterCodec(codec Codec) {
	if codec == nil {
		panic("encoding: cannot register a nil Codec")
	}
	if codec.Name() == "" {
		panic("encoding: cannot register a Codec with an empty name")
	}
	registeredCodecs[codec.Name()] = codec
}

// GetCodec returns the codec registered under name, or nil.
func GetCodec(name string) Codec {
	return registeredCodecs[name]
}
