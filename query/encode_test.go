package query_test

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nexuer/qhttp/query"
)

type user struct {
	Role      string `query:"role"`
	ShortName string `query:"shortName"`
}

func pairs(kv ...string) []query.Pair {
	ps := make([]query.Pair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1]
		ps = append(ps, query.Pair{Name: kv[i], Value: &v})
	}
	return ps
}

func TestEncode_primitive(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  []query.Pair
	}{
		{
			key:   "name",
			value: "kean",
			want:  pairs("name", "kean"),
		},
		{
			key:   "id",
			value: 42,
			want:  pairs("id", "42"),
		},
		{
			key:   "enabled",
			value: true,
			want:  pairs("enabled", "true"),
		},
		{
			key:   "disabled",
			value: false,
			want:  pairs("disabled", "false"),
		},
		{
			key:   "ratio",
			value: 3.14,
			want:  pairs("ratio", "3.14"),
		},
		{
			key:   "max",
			value: uint8(255),
			want:  pairs("max", "255"),
		},
		{
			key:   "ip",
			value: net.IPv4(127, 0, 0, 1),
			want:  pairs("ip", "127.0.0.1"),
		},
	}

	for _, tt := range tests {
		got := query.NewEncoder().Encode(tt.key, tt.value).Pairs()
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Encode(%q, %v) mismatch (-want +got):\n%s", tt.key, tt.value, diff)
		}
	}
}

func TestEncode_nil(t *testing.T) {
	var ptr *int
	var iface any

	e := query.NewEncoder().
		Encode("a", nil).
		Encode("b", ptr).
		Encode("c", iface)

	if got := e.Pairs(); len(got) != 0 {
		t.Errorf("Pairs() = %v, want empty", got)
	}
	if got := e.Query(); got != "" {
		t.Errorf("Query() = %q, want empty", got)
	}
	if got := e.PercentEncodedQuery(); got != "" {
		t.Errorf("PercentEncodedQuery() = %q, want empty", got)
	}
}

func TestEncode_array(t *testing.T) {
	tests := []struct {
		name        string
		opts        []query.Option
		wantPairs   []query.Pair
		wantRaw     string
		wantEscaped string
	}{
		{
			name:        "explode",
			opts:        nil,
			wantPairs:   pairs("id", "3", "id", "4", "id", "5"),
			wantRaw:     "id=3&id=4&id=5",
			wantEscaped: "id=3&id=4&id=5",
		},
		{
			name:        "form",
			opts:        []query.Option{query.Explode(false)},
			wantPairs:   pairs("id", "3,4,5"),
			wantRaw:     "id=3,4,5",
			wantEscaped: "id=3,4,5",
		},
		{
			name:        "spaceDelimited",
			opts:        []query.Option{query.Explode(false), query.Delimiter(" ")},
			wantPairs:   pairs("id", "3 4 5"),
			wantRaw:     "id=3 4 5",
			wantEscaped: "id=3%204%205",
		},
		{
			name:        "pipeDelimited",
			opts:        []query.Option{query.Explode(false), query.Delimiter("|")},
			wantPairs:   pairs("id", "3|4|5"),
			wantRaw:     "id=3|4|5",
			wantEscaped: "id=3%7C4%7C5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := query.NewEncoder().Encode("id", []int{3, 4, 5}, tt.opts...)
			if diff := cmp.Diff(tt.wantPairs, e.Pairs()); diff != "" {
				t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
			}
			if got := e.Query(); got != tt.wantRaw {
				t.Errorf("Query() = %q, want %q", got, tt.wantRaw)
			}
			if got := e.PercentEncodedQuery(); got != tt.wantEscaped {
				t.Errorf("PercentEncodedQuery() = %q, want %q", got, tt.wantEscaped)
			}
		})
	}
}

func TestEncode_emptyArray(t *testing.T) {
	e := query.NewEncoder().
		Encode("a", []string{}).
		Encode("b", []int{}, query.Explode(false))
	if got := e.Query(); got != "" {
		t.Errorf("Query() = %q, want empty", got)
	}
}

func TestEncode_object(t *testing.T) {
	u := user{Role: "admin", ShortName: "kean"}

	tests := []struct {
		name        string
		opts        []query.Option
		wantPairs   []query.Pair
		wantEscaped string
	}{
		{
			// the root key "id" does not appear in the output names
			name:        "explode",
			opts:        nil,
			wantPairs:   pairs("role", "admin", "shortName", "kean"),
			wantEscaped: "role=admin&shortName=kean",
		},
		{
			name:        "deepObject",
			opts:        []query.Option{query.DeepObject(true)},
			wantPairs:   pairs("id[role]", "admin", "id[shortName]", "kean"),
			wantEscaped: "id%5Brole%5D=admin&id%5BshortName%5D=kean",
		},
		{
			name:        "form",
			opts:        []query.Option{query.Explode(false)},
			wantPairs:   pairs("id", "role,admin,shortName,kean"),
			wantEscaped: "id=role,admin,shortName,kean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := query.NewEncoder().Encode("id", u, tt.opts...)
			if diff := cmp.Diff(tt.wantPairs, e.Pairs()); diff != "" {
				t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
			}
			if got := e.PercentEncodedQuery(); got != tt.wantEscaped {
				t.Errorf("PercentEncodedQuery() = %q, want %q", got, tt.wantEscaped)
			}
		})
	}
}

func TestEncode_objectPipeDelimiterIgnored(t *testing.T) {
	// field/value segments always join on a literal comma, the
	// configured delimiter only applies to arrays
	e := query.NewEncoder().
		Encode("id", user{Role: "admin", ShortName: "kean"}, query.Explode(false), query.Delimiter("|"))
	want := "id=role,admin,shortName,kean"
	if got := e.Query(); got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncode_structTags(t *testing.T) {
	in := struct {
		Kept    string `query:"kept"`
		Skipped string `query:"-"`
		Renamed string `url:"aka"`
		Empty   string `query:"empty,omitempty"`
		Plain   string
	}{
		Kept:    "a",
		Skipped: "b",
		Renamed: "c",
		Plain:   "d",
	}

	want := pairs("kept", "a", "aka", "c", "Plain", "d")
	got := query.NewEncoder().Encode("in", in).Pairs()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_nilField(t *testing.T) {
	in := struct {
		Name *string `query:"name"`
		Age  *int    `query:"age"`
	}{
		Age: ptr(30),
	}
	want := pairs("age", "30")
	got := query.NewEncoder().Encode("in", in).Pairs()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_map(t *testing.T) {
	m := map[string]any{"b": 2, "a": "x"}

	got := query.NewEncoder().Encode("m", m, query.DeepObject(true)).Query()
	want := "m[a]=x&m[b]=2"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncode_snakeCase(t *testing.T) {
	e := query.NewEncoder(query.Keys(query.SnakeCase)).
		Encode("id", user{Role: "admin", ShortName: "kean"}).
		Encode("pageSize", 10)

	want := pairs("role", "admin", "short_name", "kean", "page_size", "10")
	if diff := cmp.Diff(want, e.Pairs()); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_customKeys(t *testing.T) {
	upper := func(path []string) string {
		return strings.ToUpper(path[len(path)-1])
	}
	got := query.NewEncoder().
		Encode("id", user{Role: "admin", ShortName: "kean"}, query.Keys(upper)).
		Query()
	want := "ROLE=admin&SHORTNAME=kean"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncode_dates(t *testing.T) {
	date := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		opts []query.Option
		want string
	}{
		{
			name: "default",
			opts: nil,
			want: "birth=2001-01-01T00:00:00Z",
		},
		{
			name: "iso8601",
			opts: []query.Option{query.Dates(query.ISO8601)},
			want: "birth=2001-01-01T00:00:00Z",
		},
		{
			name: "seconds",
			opts: []query.Option{query.Dates(query.SecondsSince1970)},
			want: "birth=978307200",
		},
		{
			name: "milliseconds",
			opts: []query.Option{query.Dates(query.MillisecondsSince1970)},
			want: "birth=978307200000",
		},
		{
			name: "layout",
			opts: []query.Option{query.Dates(query.DateLayout("2006-01-02"))},
			want: "birth=2001-01-01",
		},
		{
			name: "custom",
			opts: []query.Option{query.Dates(func(t time.Time) string { return "then" })},
			want: "birth=then",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.NewEncoder().Encode("birth", date, tt.opts...).Query()
			if got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_accumulates(t *testing.T) {
	// per-call overrides stay scoped to their own call
	e := query.NewEncoder().
		Encode("a", []int{1, 2}).
		Encode("b", []int{3, 4}, query.Explode(false), query.Delimiter("|")).
		Encode("c", "x")

	want := "a=1&a=2&b=3|4&c=x"
	if got := e.Query(); got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncode_viewsIdempotent(t *testing.T) {
	e := query.NewEncoder().Encode("id", []int{3, 4, 5}, query.Explode(false), query.Delimiter(" "))

	if first, second := e.Query(), e.Query(); first != second {
		t.Errorf("Query() not idempotent: %q then %q", first, second)
	}
	if first, second := e.PercentEncodedQuery(), e.PercentEncodedQuery(); first != second {
		t.Errorf("PercentEncodedQuery() not idempotent: %q then %q", first, second)
	}

	// reading views must not interfere with further Encode calls
	e.Encode("page", 2)
	want := "id=3 4 5&page=2"
	if got := e.Query(); got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncode_values(t *testing.T) {
	e := query.NewEncoder().Encode("id", []int{3, 4}).Encode("name", "kean")
	values := e.Values()
	if diff := cmp.Diff([]string{"3", "4"}, values["id"]); diff != "" {
		t.Errorf(`Values()["id"] mismatch (-want +got):` + "\n" + diff)
	}
	if got := values.Get("name"); got != "kean" {
		t.Errorf(`Values().Get("name") = %q, want "kean"`, got)
	}
}

func TestEncodeValue(t *testing.T) {
	got := query.EncodeValue(user{Role: "admin", ShortName: "kean"}).Query()
	want := "role=admin&shortName=kean"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}

	got = query.EncodeValue(user{Role: "admin", ShortName: "kean"}, query.Explode(false)).Query()
	want = "value=role,admin,shortName,kean"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncodeFields(t *testing.T) {
	in := struct {
		IDs    []int  `query:"id"`
		Name   string `query:"name"`
		Filter user   `query:"filter"`
		Page   int    `query:"page,omitempty"`
	}{
		IDs:    []int{3, 4},
		Name:   "kean",
		Filter: user{Role: "admin", ShortName: "kean"},
	}

	got := query.NewEncoder().EncodeFields(in, query.DeepObject(true)).Query()
	want := "id=3&id=4&name=kean&filter[role]=admin&filter[shortName]=kean"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncodeFields_map(t *testing.T) {
	got := query.NewEncoder().EncodeFields(map[string]any{
		"page": 1,
		"id":   []int{3, 4},
	}).Query()
	want := "id=3&id=4&page=1"
	if got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestEncodeFields_nonObject(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("EncodeFields(int) did not panic")
		}
	}()
	query.NewEncoder().EncodeFields(42)
}

type badText struct{}

func (badText) MarshalText() ([]byte, error) {
	return nil, errors.New("boom")
}

func TestEncoder_Err(t *testing.T) {
	e := query.NewEncoder().Encode("bad", badText{})
	if e.Err() == nil {
		t.Fatal("Err() = nil, want error")
	}
	if !strings.Contains(e.Err().Error(), "boom") {
		t.Errorf("Err() = %v, want wrapped boom", e.Err())
	}

	// first failure wins
	e.Encode("ok", 1)
	if !strings.Contains(e.Err().Error(), "boom") {
		t.Errorf("Err() = %v, want sticky first error", e.Err())
	}
}

func TestEncode_contractViolations(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{
			name:  "array of objects",
			value: []user{{Role: "admin"}},
		},
		{
			name:  "array of arrays",
			value: [][]int{{1, 2}},
		},
		{
			name: "object of objects",
			value: struct {
				Inner user `query:"inner"`
			}{},
		},
		{
			name: "object of arrays",
			value: struct {
				IDs []int `query:"ids"`
			}{IDs: []int{1}},
		},
		{
			name:  "channel",
			value: make(chan int),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Encode(%q) did not panic", tt.name)
				}
			}()
			query.NewEncoder().Encode("v", tt.value)
		})
	}
}

func ptr[T any](v T) *T { return &v }
