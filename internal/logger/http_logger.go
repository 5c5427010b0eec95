package logger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxBodyLogged limits what we read. 1 << 20 = 1 MiB.
const MaxBodyLogged = 1 << 20

var allowedHeaders = map[string]bool{
	"content-type":   true,
	"user-agent":     true,
	"content-length": true,
	"location":       true,
	"x-request-id":   true,
	"x-trace-id":     true,
	"traceparent":    true,
	"authorization":  true,
	"set-cookie":     true,
}

var sensitiveKeys = []string{"password", "secret", "token"}

// replayBody serves the captured prefix, then whatever of the original body
// was left unread. Close goes to the original body.
type replayBody struct {
	io.Reader
	io.Closer
}

// CaptureBody returns at most MaxBodyLogged bytes of r.Body for logging. The
// handler still reads the full payload: the prefix is stitched back in front
// of the unread remainder.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(body), r.Body),
		Closer: r.Body,
	}
	return body, nil
}

func HeaderAttrs(hdr http.Header) []slog.Attr {
	return headerAttrs("http.header.", hdr)
}

// headerAttrs keeps allow-listed headers only and masks credentials. gRPC
// metadata goes through the same filter.
func headerAttrs(prefix string, hdr map[string][]string) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(hdr))
	for name, values := range hdr {
		lower := strings.ToLower(name)
		if !allowedHeaders[lower] {
			continue
		}
		joined := strings.Join(values, ", ")
		if lower == "authorization" || lower == "set-cookie" {
			joined = "***"
		}
		attrs = append(attrs, slog.String(prefix+lower, joined))
	}
	return attrs
}

// DecodeBody turns a captured body into attributes according to its media type.
func DecodeBody(contentType string, body []byte) ([]slog.Attr, error) {
	if len(body) == 0 {
		return nil, nil
	}

	ct, _, _ := mime.ParseMediaType(contentType)
	switch ct {
	case "application/json":
		return jsonAttrs("http.body", body), nil
	case "application/x-www-form-urlencoded":
		return formAttrs(body)
	default:
		return binaryAttrs(body), nil
	}
}

// QueryAttrs flattens url.Values into slog.Attrs with "http.query." prefix.
func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		attrs = append(attrs, slog.String("http.query."+key, strings.Join(values, ",")))
	}
	return attrs
}

func jsonAttrs(prefix string, b []byte) []slog.Attr {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String(prefix, string(b))}
	}
	attrs := make([]slog.Attr, 0, 8)
	flattenJSON(prefix, data, &attrs)
	return attrs
}

// flattenJSON walks decoded JSON. Arrays only contribute their first and last
// element so that list responses stay small.
func flattenJSON(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, v2 := range t {
			flattenJSON(prefix+"."+k, v2, dst)
		}
	case []any:
		n := len(t)
		if n == 0 {
			return
		}
		*dst = append(*dst, slog.Int(prefix+".length", n))
		flattenJSON(prefix+".0", t[0], dst)
		if n > 1 {
			flattenJSON(prefix+"."+strconv.Itoa(n-1), t[n-1], dst)
		}
	case string:
		*dst = append(*dst, slog.String(prefix, redact(prefix, t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
		// skip nulls to cut noise
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprintf("%v", t)))
	}
}

func formAttrs(b []byte) ([]slog.Attr, error) {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, err
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		key := "http.body." + k
		attrs = append(attrs, slog.String(key, redact(key, strings.Join(v, ", "))))
	}
	return attrs, nil
}

// For everything else (binary, multipart, XML…)
func binaryAttrs(b []byte) []slog.Attr {
	const max = 256
	if len(b) <= max {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:max])),
	}
}

// redact masks values whose attribute key names a credential.
func redact(key, value string) string {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return "***"
		}
	}
	return value
}

// LogHTTPRequest builds attributes for a request: metadata, headers, query and body.
func LogHTTPRequest(r *http.Request, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}

	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)

	if body, err := CaptureBody(r); err == nil && len(body) > 0 {
		if bodyAttrs, err := DecodeBody(r.Header.Get("Content-Type"), body); err == nil {
			attrs = append(attrs, bodyAttrs...)
		} else {
			attrs = append(attrs, slog.String("http.body.error", err.Error()))
		}
	}

	return attrs
}

// LogHTTPResponse builds attributes for a response whose body was buffered by the caller.
func LogHTTPResponse(req *http.Request, header http.Header, status int, body []byte, duration time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", req.RemoteAddr),
		slog.String("http.method", req.Method),
		slog.String("http.path", req.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", duration.Milliseconds()),
	}

	attrs = append(attrs, HeaderAttrs(header)...)

	if len(body) > 0 {
		bAttrs, err := DecodeBody(header.Get("Content-Type"), body)
		if err == nil {
			attrs = append(attrs, bAttrs...)
		} else {
			attrs = append(attrs, slog.String("http.body.error", err.Error()))
		}
	}
	return attrs
}
