// Package query serializes Go values into URL query parameters using
// the OpenAPI style matrix: form, spaceDelimited, pipeDelimited and
// deepObject, each with an explode variant.
//
// An Encoder flattens values of at most two levels - a primitive, an
// array of primitives, or an object of named primitive fields - into
// an ordered list of name/value pairs. See examples in encode_test.go:
//
//	NewEncoder().Encode("id", []int{3, 4, 5})
//	// id=3&id=4&id=5
//
//	NewEncoder().Encode("id", []int{3, 4, 5}, Explode(false), Delimiter("|"))
//	// id=3|4|5
//
//	NewEncoder().Encode("id", user, DeepObject(true))
//	// id[role]=admin&id[name]=kean
//
// Deeper nesting (array of objects, object of arrays and so on) is out
// of contract and panics rather than producing a partial query.
package query

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var tags = [2]string{"query", "url"}

// Encoder accumulates query pairs across Encode calls. The zero value
// is not ready to use; construct with NewEncoder. An Encoder is not
// safe for concurrent use.
type Encoder struct {
	settings settings
	pairs    []Pair
	err      error
}

// NewEncoder returns an encoder with the given default options. The
// base defaults are Explode(true) and Delimiter(",") - the OpenAPI
// form style - with dates rendered as ISO8601.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		settings: settings{explode: true, delimiter: ","},
	}
	for _, o := range opts {
		o(&e.settings)
	}
	return e
}

// EncodeValue encodes a single bare value under the synthetic root key
// "value" and returns the freshly built encoder. Useful for one-shot
// encoding of an object that represents the entire query:
//
//	query.EncodeValue(params).PercentEncodedQuery()
func EncodeValue(value any, opts ...Option) *Encoder {
	return NewEncoder(opts...).Encode("value", value)
}

// EncodeFields encodes every exported field of a struct, or entry of a
// string-keyed map, under its own root key, applying opts to each
// field. It is the entry point for a value that represents an entire
// query rather than a single parameter:
//
//	NewEncoder().EncodeFields(struct {
//		IDs  []int `query:"id"`
//		Name string
//	}{[]int{3, 4}, "kean"})
//	// id=3&id=4&Name=kean
//
// Field tags follow Encode: `query:`/`url:` rename, "-" skips,
// ",omitempty" skips empty values. A nil value emits nothing; any
// other non-struct, non-map value panics.
func (e *Encoder) EncodeFields(value any, opts ...Option) *Encoder {
	v, ok := deref(reflect.ValueOf(value))
	if !ok {
		return e
	}

	switch v.Kind() {
	case reflect.Struct:
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			sf := typ.Field(i)
			if sf.PkgPath != "" { // unexported
				continue
			}
			var tag string
			for _, tn := range tags {
				if tag = sf.Tag.Get(tn); tag != "" {
					break
				}
			}
			if tag == "-" {
				continue
			}
			name, omitempty := parseTag(tag)
			if name == "" {
				name = sf.Name
			}
			if omitempty && isEmptyValue(v.Field(i)) {
				continue
			}
			e.Encode(name, v.Field(i).Interface(), opts...)
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			panic(fmt.Sprintf("query: EncodeFields: unsupported map key type %s", v.Type().Key()))
		}
		keys := make([]string, 0, v.Len())
		for _, mk := range v.MapKeys() {
			keys = append(keys, mk.String())
		}
		sort.Strings(keys)
		for _, mk := range keys {
			e.Encode(mk, v.MapIndex(reflect.ValueOf(mk)).Interface(), opts...)
		}
	default:
		panic(fmt.Sprintf("query: EncodeFields expects a struct or map, got %s", v.Kind()))
	}
	return e
}

// Encode appends the pairs for value under key and returns the encoder
// for chaining. Options override the encoder defaults for this call
// only; state accumulates across calls and there is no reset.
//
// A nil value emits nothing. Supported shapes are primitives (string,
// bool, integer and float widths, time.Time, url.URL, []byte and any
// encoding.TextMarshaler), slices and arrays of primitives, and
// structs or map[string]T with primitive fields. Struct fields are
// visited in declaration order and may be renamed with a `query:` or
// `url:` tag; `query:"-"` skips a field and the ",omitempty" option
// skips empty values. Anything nested deeper than one level panics.
//
// Exploded objects without DeepObject emit bare field names: the root
// key does not appear in the output. This long-standing behavior is
// kept deliberately; use DeepObject(true) to scope field names.
func (e *Encoder) Encode(key string, value any, opts ...Option) *Encoder {
	st := e.settings
	for _, o := range opts {
		o(&st)
	}
	if err := e.encode(key, reflect.ValueOf(value), st); err != nil && e.err == nil {
		e.err = err
	}
	return e
}

// Err reports the first formatting failure seen by Encode, such as an
// encoding.TextMarshaler returning an error. Traversal contract
// violations are programming errors and panic instead.
func (e *Encoder) Err() error {
	return e.err
}

// Pairs returns a copy of the accumulated pairs in insertion order.
func (e *Encoder) Pairs() []Pair {
	return append([]Pair(nil), e.pairs...)
}

// Query returns the logical query before percent-escaping: pairs
// joined as name=value with "&", delimiters such as spaces and pipes
// kept literal. A pair with a nil value renders as its bare name. An
// empty accumulator renders as "".
func (e *Encoder) Query() string {
	return e.render(false)
}

// PercentEncodedQuery returns the query with every name and value
// percent-escaped for use as a URL query component: space becomes
// %20, "|" becomes %7C, "[" and "]" become %5B and %5D.
func (e *Encoder) PercentEncodedQuery() string {
	return e.render(true)
}

// Values returns the accumulated pairs as url.Values. Order is kept
// only among values of the same name; use PercentEncodedQuery when
// the global pair order matters. A nil pair value maps to "".
func (e *Encoder) Values() url.Values {
	values := make(url.Values, len(e.pairs))
	for _, p := range e.pairs {
		if p.Value != nil {
			values[p.Name] = append(values[p.Name], *p.Value)
		} else {
			values[p.Name] = append(values[p.Name], "")
		}
	}
	return values
}

func (e *Encoder) render(escaped bool) string {
	if len(e.pairs) == 0 {
		return ""
	}
	var buf strings.Builder
	for i, p := range e.pairs {
		if i > 0 {
			buf.WriteByte('&')
		}
		if escaped {
			buf.WriteString(escape(p.Name))
		} else {
			buf.WriteString(p.Name)
		}
		if p.Value == nil {
			continue
		}
		buf.WriteByte('=')
		if escaped {
			buf.WriteString(escape(*p.Value))
		} else {
			buf.WriteString(*p.Value)
		}
	}
	return buf.String()
}

// encode walks one root value: a leaf, a slice of leaves, or a struct
// or string-keyed map of leaf fields.
func (e *Encoder) encode(key string, v reflect.Value, st settings) error {
	v, ok := deref(v)
	if !ok {
		// nil values are dropped entirely, not rendered as empty pairs
		return nil
	}

	if s, isLeaf, err := leafString(v, st); isLeaf {
		if err != nil {
			return fmt.Errorf("query: encode %q: %w", key, err)
		}
		e.flatten([]string{key}, s, st)
		return nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			ev, ok := deref(v.Index(i))
			if !ok {
				continue
			}
			s, isLeaf, err := leafString(ev, st)
			if err != nil {
				return fmt.Errorf("query: encode %q: %w", key, err)
			}
			if !isLeaf {
				panic(fmt.Sprintf("query: %q element %d is a %s, arrays may only hold primitives", key, i, ev.Kind()))
			}
			// every element shares the root path, which is what lets
			// repeated names and delimiter merging accumulate
			e.flatten([]string{key}, s, st)
		}
		return nil
	case reflect.Struct:
		return e.encodeStruct(key, v, st)
	case reflect.Map:
		return e.encodeMap(key, v, st)
	default:
		panic(fmt.Sprintf("query: unsupported kind %s for %q", v.Kind(), key))
	}
}

// encodeStruct emits one event per exported field, in declaration
// order. Fields must be primitives: an object inside an object (or an
// array inside an object) exceeds the supported nesting and panics.
func (e *Encoder) encodeStruct(key string, v reflect.Value, st settings) error {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}

		var tag string
		for _, tn := range tags {
			if tag = sf.Tag.Get(tn); tag != "" {
				break
			}
		}
		if tag == "-" {
			continue
		}
		name, omitempty := parseTag(tag)
		if name == "" {
			name = sf.Name
		}

		sv := v.Field(i)
		if omitempty && isEmptyValue(sv) {
			continue
		}
		fv, ok := deref(sv)
		if !ok {
			continue // nil field, dropped
		}
		s, isLeaf, err := leafString(fv, st)
		if err != nil {
			return fmt.Errorf("query: encode %q.%s: %w", key, name, err)
		}
		if !isLeaf {
			panic(fmt.Sprintf("query: field %q.%s is a %s, objects may only hold primitive fields", key, sf.Name, fv.Kind()))
		}
		e.flatten([]string{key, name}, s, st)
	}
	return nil
}

// encodeMap treats a string-keyed map as an object. Go maps carry no
// declaration order, so keys are sorted to keep the output stable.
func (e *Encoder) encodeMap(key string, v reflect.Value, st settings) error {
	if v.Type().Key().Kind() != reflect.String {
		panic(fmt.Sprintf("query: unsupported map key type %s for %q", v.Type().Key(), key))
	}
	keys := make([]string, 0, v.Len())
	for _, mk := range v.MapKeys() {
		keys = append(keys, mk.String())
	}
	sort.Strings(keys)
	for _, mk := range keys {
		mv, ok := deref(v.MapIndex(reflect.ValueOf(mk)))
		if !ok {
			continue
		}
		s, isLeaf, err := leafString(mv, st)
		if err != nil {
			return fmt.Errorf("query: encode %q.%s: %w", key, mk, err)
		}
		if !isLeaf {
			panic(fmt.Sprintf("query: entry %q.%s is a %s, objects may only hold primitive fields", key, mk, mv.Kind()))
		}
		e.flatten([]string{key, mk}, s, st)
	}
	return nil
}

// flatten applies the style rules to one (path, value) event. The key
// encoding resolves the last path component once per event.
func (e *Encoder) flatten(path []string, value string, st settings) {
	key := st.resolveKey(path)

	if len(path) == 1 {
		if st.explode {
			// always a fresh pair, even right after an equal name
			e.pairs = append(e.pairs, newPair(key, value))
			return
		}
		e.merge(key, value, st.delimiter)
		return
	}

	root := path[0]
	if st.explode {
		if st.deepObject {
			e.pairs = append(e.pairs, newPair(root+"["+key+"]", value))
			return
		}
		// the root key is intentionally absent here, see Encode
		e.pairs = append(e.pairs, newPair(key, value))
		return
	}
	// field and value always join on a literal comma, whatever the
	// configured delimiter is
	e.merge(root, key+","+value, ",")
}

// merge appends value under name, folding into the last pair when it
// already carries name. Only the last pair is considered: each Encode
// call emits its events contiguously, so same-named pairs from earlier
// calls stay untouched.
func (e *Encoder) merge(name, value, delimiter string) {
	if n := len(e.pairs); n > 0 && e.pairs[n-1].Name == name && e.pairs[n-1].Value != nil {
		joined := *e.pairs[n-1].Value + delimiter + value
		e.pairs[n-1].Value = &joined
		return
	}
	e.pairs = append(e.pairs, newPair(name, value))
}

// deref unwraps pointers and interfaces. ok is false when the chain
// ends in nil or an invalid value, which drops the value entirely.
func deref(v reflect.Value) (reflect.Value, bool) {
	for {
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface:
			if v.IsNil() {
				return v, false
			}
			v = v.Elem()
		case reflect.Invalid:
			return v, false
		default:
			return v, true
		}
	}
}

// leafString renders v if it is a primitive. The bool result reports
// whether v was a leaf at all; non-leaf values fall through to the
// container handling in encode.
func leafString(v reflect.Value, st settings) (string, bool, error) {
	if v.CanInterface() {
		switch t := v.Interface().(type) {
		case time.Time:
			if st.dateFormat != nil {
				return st.dateFormat(t), true, nil
			}
			return ISO8601(t), true, nil
		case url.URL:
			return t.String(), true, nil
		case []byte:
			return string(t), true, nil
		case encoding.TextMarshaler:
			b, err := t.MarshalText()
			return string(b), true, err
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), true, nil
	}
	return "", false, nil
}

// parseTag splits a `query:` tag into the name and the omitempty flag.
func parseTag(tag string) (string, bool) {
	name, rest, _ := strings.Cut(tag, ",")
	return name, strings.Contains(rest, "omitempty")
}

type zeroable interface {
	IsZero() bool
}

// isEmptyValue checks if a value should be considered empty for the
// purposes of the "omitempty" tag option.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	default:
		if z, ok := v.Interface().(zeroable); ok {
			return z.IsZero()
		}
	}
	return false
}

const upperhex = "0123456789ABCDEF"

// escape percent-encodes s for use inside a query name or value. The
// sub-delimiters that are valid inside an RFC 3986 query stay literal
// (",", ":", "@", "/", "?"); space, "&", "=", "+", ";", "#", "[", "]",
// "|" and the rest of the unsafe set are escaped.
func escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '.', '_', '~', // unreserved
		'!', '$', '\'', '(', ')', '*', ',', // sub-delims safe in a query
		':', '@', '/', '?': // pchar / query extras
		return false
	}
	return true
}
