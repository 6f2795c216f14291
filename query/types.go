package query

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Pair is one name/value pair of the query being built. Pairs keep
// insertion order and a name may repeat: exploded arrays rely on
// repeated names. A nil Value renders as a bare name without "=".
type Pair struct {
	Name  string
	Value *string
}

func newPair(name, value string) Pair {
	return Pair{Name: name, Value: &value}
}

// DateFormat renders a time.Time leaf into its query representation.
type DateFormat func(t time.Time) string

var (
	// ISO8601 renders an RFC 3339 timestamp. This is the default.
	ISO8601 DateFormat = func(t time.Time) string {
		return t.Format(time.RFC3339)
	}

	// SecondsSince1970 renders fractional seconds since the Unix epoch.
	SecondsSince1970 DateFormat = func(t time.Time) string {
		return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', -1, 64)
	}

	// MillisecondsSince1970 renders integer milliseconds since the Unix epoch.
	MillisecondsSince1970 DateFormat = func(t time.Time) string {
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
)

// DateLayout renders times with time.Format and the given layout.
//
//	query.Dates(query.DateLayout("2006-01-02"))
func DateLayout(layout string) DateFormat {
	return func(t time.Time) string {
		return t.Format(layout)
	}
}

// KeyEncoding rewrites the final component of a coding path. It
// receives the whole path for context ([rootKey] for plain values and
// array elements, [rootKey, fieldName] for record fields) and returns
// the replacement for the last component only.
type KeyEncoding func(path []string) string

// SnakeCase converts the last path component from camelCase to
// snake_case: an underscore is inserted before every upper-case letter
// that follows a lower-case one, and the letter is lowered.
// "shortName" becomes "short_name".
func SnakeCase(path []string) string {
	key := path[len(path)-1]
	var b strings.Builder
	b.Grow(len(key) + 2)
	prevLower := false
	for _, r := range key {
		if unicode.IsUpper(r) && prevLower {
			b.WriteByte('_')
		}
		prevLower = unicode.IsLower(r)
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// settings is the effective configuration of a single Encode call: the
// encoder defaults with the per-call options applied on top. It is
// computed once per call and never written back, so per-call overrides
// cannot leak into later calls.
type settings struct {
	explode     bool
	delimiter   string
	deepObject  bool
	dateFormat  DateFormat
	keyEncoding KeyEncoding
}

func (s settings) resolveKey(path []string) string {
	if s.keyEncoding == nil {
		return path[len(path)-1]
	}
	return s.keyEncoding(path)
}

// Option alters either the defaults of an encoder (NewEncoder) or a
// single Encode call.
type Option func(*settings)

// Explode selects between one pair per value under a repeated name
// (true, the default) and a single pair carrying a delimited value
// (false).
func Explode(explode bool) Option {
	return func(s *settings) {
		s.explode = explode
	}
}

// Delimiter sets the separator joining array values when Explode is
// false, e.g. "," (form), " " (spaceDelimited) or "|" (pipeDelimited).
// The delimiter is ignored while Explode is true.
func Delimiter(delimiter string) Option {
	return func(s *settings) {
		s.delimiter = delimiter
	}
}

// DeepObject emits record fields as name[field]=value pairs instead of
// bare field names. Only meaningful while Explode is true.
func DeepObject(deepObject bool) Option {
	return func(s *settings) {
		s.deepObject = deepObject
	}
}

// Dates sets the rendering of time.Time leaves.
func Dates(format DateFormat) Option {
	return func(s *settings) {
		s.dateFormat = format
	}
}

// Keys sets the key encoding applied to emitted names.
func Keys(encoding KeyEncoding) Option {
	return func(s *settings) {
		s.keyEncoding = encoding
	}
}
