package qhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nexuer/qhttp/encoding"
)

// DebugInterface observes a request before it is sent and the
// request/response pair after.
type DebugInterface interface {
	Before(request *http.Request)
	After(request *http.Request, response *http.Response, err error)
}

// Debug writes a curl-style dump of the exchange to Writer.
type Debug struct {
	Writer io.Writer

	start time.Time
}

func (d *Debug) Before(req *http.Request) {
	if d.Writer == nil {
		d.Writer = os.Stderr
	}
	d.start = time.Now()
}

func (d *Debug) After(request *http.Request, response *http.Response, err error) {
	path := request.URL.String()
	if path == "" {
		path = "/"
	}

	write(d.Writer, "> %s %s %s", request.Method, path, request.Proto)
	for k, v := range request.Header {
		write(d.Writer, "> %s: %s", k, strings.Join(v, ","))
	}

	if request.GetBody != nil {
		if reqBodyReader, bodyErr := request.GetBody(); bodyErr == nil {
			reqBody, _ := io.ReadAll(reqBodyReader)
			codec, _ := CodecForRequest(request)
			if pretty, _ := formatIndent(codec, reqBody); len(pretty) > 0 {
				write(d.Writer, "")
				write(d.Writer, "%s", string(pretty))
			}
		}
	} else {
		write(d.Writer, ">")
	}

	if response != nil {
		write(d.Writer, "")
		write(d.Writer, "< %s %s", response.Proto, response.Status)
		for k, v := range response.Header {
			write(d.Writer, "< %s: %s", k, strings.Join(v, ","))
		}
		if response.Body != nil && response.Body != http.NoBody {
			if responseBody, readErr := io.ReadAll(response.Body); readErr == nil {
				response.Body = io.NopCloser(bytes.NewBuffer(responseBody))
				codec, _ := CodecForResponse(response)
				pretty, _ := formatIndent(codec, responseBody)
				if len(pretty) == 0 {
					pretty = responseBody
				}
				write(d.Writer, "")
				write(d.Writer, "%s", string(pretty))
			}
		}
	}

	write(d.Writer, "* elapsed %s", time.Since(d.start))

	if err != nil {
		write(d.Writer, "** ERROR: %s", err)
	}
}

func write(w io.Writer, format string, args ...any) {
	if format != "" {
		_, _ = fmt.Fprintf(w, format, args...)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func formatIndent(codec encoding.Codec, data []byte) ([]byte, error) {
	if len(data) == 0 || codec == nil {
		return nil, nil
	}

	var anyData any
	if err := codec.Unmarshal(data, &anyData); err != nil {
		return data, err
	}

	if codec.Name() == "json" {
		return json.MarshalIndent(anyData, "", "    ")
	}
	return codec.Marshal(anyData)
}
