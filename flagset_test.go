package x86levels

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlagSet(t *testing.T) {
	fs := NewFlagSet("sse2", "sse", "popcnt", "sse")

	if fs.Len() != 3 {
		t.Errorf("Len() = %d, want 3", fs.Len())
	}
	for _, tok := range []string{"sse2", "sse", "popcnt"} {
		if !fs.Has(tok) {
			t.Errorf("Has(%q) = false, want true", tok)
		}
	}
	if fs.Has("SSE") {
		t.Error(`Has("SSE") = true, want false (case sensitive)`)
	}
	if got, want := fs.Sorted(), []string{"popcnt", "sse", "sse2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
	if got, want := fs.Missing([]string{"sse", "avx", "sse2", "fma"}), []string{"avx", "fma"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestFlagSet_ZeroValue(t *testing.T) {
	var fs FlagSet
	if fs.Len() != 0 || fs.Has("sse") {
		t.Fatal("zero FlagSet should be empty")
	}
	if got := fs.Missing([]string{"sse"}); !reflect.DeepEqual(got, []string{"sse"}) {
		t.Errorf("Missing() = %v", got)
	}

	data, err := json.Marshal(fs)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("json.Marshal(zero) = %s, want []", data)
	}
}

func TestFlagSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewFlagSet("sse2", "cmov"))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if got, want := string(data), `["cmov","sse2"]`; got != want {
		t.Fatalf("json.Marshal() = %s, want %s", got, want)
	}

	var decoded FlagSet
	if err := json.Unmarshal([]byte(`["avx","avx","fma"]`), &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded.Len() != 2 || !decoded.Has("avx") || !decoded.Has("fma") {
		t.Fatalf("json.Unmarshal() = %v", decoded.Sorted())
	}
}
