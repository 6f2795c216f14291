package qhttp

import (
	"net/http"
	"sync"

	"github.com/nexuer/qhttp/encoding"
	"github.com/nexuer/qhttp/encoding/json"
	"github.com/nexuer/qhttp/encoding/plain"
	"github.com/nexuer/qhttp/encoding/proto"
	"github.com/nexuer/qhttp/encoding/xml"
	"github.com/nexuer/qhttp/encoding/yaml"
)

// contentTypes maps a content-type subtype (the part after "/", see
// subContentType) to a registered codec name.
type contentTypes struct {
	names map[string]string
	mu    sync.RWMutex
}

var defaultContentTypes = &contentTypes{
	names: map[string]string{
		// default: json
		"*": json.Name,

		"json":       json.Name,
		"x-protobuf": proto.Name,
		"xml":        xml.Name,
		"x-yaml":     yaml.Name,
		"yaml":       yaml.Name,
		"plain":      plain.Name,
	},
}

func (c *contentTypes) set(subType, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[subType] = name
}

func (c *contentTypes) get(subType string) encoding.Codec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return encoding.GetCodec(c.names[subType])
}

// RegisterCodecName binds a content type to an already registered
// codec name.
func RegisterCodecName(contentType string, name string) {
	if name == "" {
		return
	}
	defaultContentTypes.set(subContentType(contentType), name)
}

// RegisterCodec registers the codec and binds it to a content type.
func RegisterCodec(contentType string, codec encoding.Codec) {
	if codec == nil {
		return
	}
	encoding.RegisterCodec(codec)
	defaultContentTypes.set(subContentType(contentType), codec.Name())
}

// CodecForString get encoding.Codec via a content type string
func CodecForString(contentType string) encoding.Codec {
	return defaultContentTypes.get(subContentType(contentType))
}

// CodecForRequest get encoding.Codec via http.Request
func CodecForRequest(r *http.Request, name ...string) (encoding.Codec, bool) {
	headerName := "Content-Type"
	if len(name) > 0 && name[0] != "" {
		headerName = name[0]
	}
	for _, accept := range r.Header[headerName] {
		if codec := CodecForString(accept); codec != nil {
			return codec, true
		}
	}
	return encoding.GetCodec(json.Name), false
}

// CodecForResponse get encoding.Codec via http.Response
func CodecForResponse(r *http.Response, name ...string) (encoding.Codec, bool) {
	headerName := "Content-Type"
	if len(name) > 0 && name[0] != "" {
		headerName = name[0]
	}
	for _, accept := range r.Header[headerName] {
		if codec := CodecForString(accept); codec != nil {
			return codec, true
		}
	}
	return encoding.GetCodec(json.Name), false
}
