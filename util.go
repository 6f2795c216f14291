package qhttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nexuer/qhttp/query"
)

// subContentType extracts the codec-relevant subtype of a content
// type: "application/vnd.api+json; charset=utf-8" -> "json".
func subContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	left := strings.Index(contentType, "/")
	if left == -1 {
		return ""
	}
	right := strings.Index(contentType, ";")
	if right == -1 {
		right = len(contentType)
	}
	if right < left {
		return ""
	}
	sct := contentType[left+1 : right]
	if plus := strings.Index(sct, "+"); plus >= 0 {
		return sct[plus+1:]
	}
	return sct
}

// ProxyURL returns a proxy function for the given address. Relative
// addresses such as ":7890" resolve against 127.0.0.1, and a missing
// scheme defaults to http.
func ProxyURL(address string) func(*http.Request) (*url.URL, error) {
	// :7890 or /proxy
	if strings.HasPrefix(address, ":") || strings.HasPrefix(address, "/") {
		address = fmt.Sprintf("http://127.0.0.1%s", address)
	}
	// 127.0.0.1:7890
	if !strings.HasPrefix(address, "https://") && !strings.HasPrefix(address, "http://") {
		address = fmt.Sprintf("http://%s", address)
	}

	proxy, err := url.Parse(address)
	if err != nil {
		return func(request *http.Request) (*url.URL, error) {
			return nil, err
		}
	}

	return http.ProxyURL(proxy)
}

// ForceHttps rewrites the endpoint's scheme to https.
func ForceHttps(endpoint string) string {
	if index := strings.Index(endpoint, "://"); index >= 0 {
		endpoint = endpoint[index+3:]
	}
	return fmt.Sprintf("https://%s", endpoint)
}

func not2xxCode(code int) bool {
	return code < 200 || code > 299
}

func joinPath(endpoint, path string) string {
	if endpoint == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	var fullPath string
	if strings.HasPrefix(path, endpoint) {
		fullPath = path
	} else {
		fullPath = fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), strings.TrimLeft(path, "/"))
	}

	if !strings.HasPrefix(fullPath, "http://") && !strings.HasPrefix(fullPath, "https://") {
		return "http://" + fullPath
	}

	return fullPath
}

// SetQuery serializes q with the OpenAPI query styles and appends the
// result to the request's raw query, keeping the encoder's pair order.
//
// q is typically a flat struct or map whose fields become the query
// parameters:
//
//	type options struct {
//		Page    int  `query:"page"`
//		PerPage int  `query:"perPage"`
//	}
//	SetQuery(req, options{Page: 2, PerPage: 50}, query.Keys(query.SnakeCase))
//	// ?page=2&per_page=50
//
// Passing a prepared *query.Encoder uses its accumulated pairs as-is,
// which allows mixing styles per key. A string or []byte is treated as
// an already-encoded query and appended after validation. A nil q
// leaves the request untouched.
func SetQuery(req *http.Request, q any, opts ...query.Option) error {
	if q == nil {
		return nil
	}

	var enc *query.Encoder
	switch t := q.(type) {
	case *query.Encoder:
		enc = t
	case string:
		if _, err := url.ParseQuery(strings.TrimPrefix(t, "?")); err != nil {
			return err
		}
		return appendRawQuery(req, t)
	case []byte:
		return SetQuery(req, string(t))
	default:
		enc = query.NewEncoder().EncodeFields(q, opts...)
	}
	if err := enc.Err(); err != nil {
		return err
	}
	return appendRawQuery(req, enc.PercentEncodedQuery())
}

func appendRawQuery(req *http.Request, queryStr string) error {
	queryStr = strings.TrimPrefix(queryStr, "?")
	if queryStr == "" {
		return nil
	}
	if req.URL.RawQuery == "" {
		req.URL.RawQuery = queryStr
	} else {
		req.URL.RawQuery += "&" + queryStr
	}
	return nil
}

// EncodeRequestBody encodes body with the codec matching the request's
// Content-Type header and installs it as the request body.
func EncodeRequestBody(req *http.Request, body any) error {
	if body == nil || req == nil {
		return nil
	}
	codec, _ := CodecForRequest(req)
	if codec == nil {
		return fmt.Errorf("request: unsupported content type: %s",
			req.Header.Get("Content-Type"))
	}
	bodyBytes, err := codec.Marshal(body)
	if err != nil {
		return err
	}
	return SetRequestBody(req, bytes.NewBuffer(bodyBytes))
}

// BindResponseBody decodes the response body into target using the
// codec matching the response's Content-Type header.
func BindResponseBody(resp *http.Response, target any) error {
	if target == nil {
		return nil
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return fmt.Errorf("response: no body")
	}

	codec, _ := CodecForResponse(resp)
	if codec == nil {
		return fmt.Errorf("response: unsupported content type: %s",
			resp.Header.Get("Content-Type"))
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return codec.Unmarshal(body, target)
}

// SetRequestBody installs body as the request body, wiring up
// ContentLength and GetBody so the request survives redirects and
// retries.
func SetRequestBody(req *http.Request, body io.Reader) error {
	if body == nil || req == nil {
		return nil
	}
	rc, ok := body.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(body)
	}
	req.Body = rc

	switch v := body.(type) {
	case *bytes.Buffer:
		req.ContentLength = int64(v.Len())
		buf := v.Bytes()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	case *bytes.Reader:
		req.ContentLength = int64(v.Len())
		snapshot := *v
		req.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	case *strings.Reader:
		req.ContentLength = int64(v.Len())
		snapshot := *v
		req.GetBody = func() (io.ReadCloser, error) {
			r := snapshot
			return io.NopCloser(&r), nil
		}
	}

	// net/http treats http.NoBody as the explicit zero-length marker
	if req.GetBody != nil && req.ContentLength == 0 {
		req.Body = http.NoBody
		req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
	}
	return nil
}
