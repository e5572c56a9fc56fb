package expand

import (
	"testing"

	"github.com/shardstream/shardstream/errors"
)

func TestExpand_NumericRange(t *testing.T) {
	got, err := Expand("shard-{000..003}.tar")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"shard-000.tar", "shard-001.tar", "shard-002.tar", "shard-003.tar"}
	assertEqual(t, got, want)
}

func TestExpand_PaddingWidth(t *testing.T) {
	got, err := Expand("{08..11}")
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, got, []string{"08", "09", "10", "11"})
}

func TestExpand_UnpaddedRange(t *testing.T) {
	got, err := Expand("{9..11}")
	if err != nil {
		t.Fatal(err)
	}
	// Endpoint widths differ, so no padding is applied.
	assertEqual(t, got, []string{"9", "10", "11"})
}

func TestExpand_CommaList(t *testing.T) {
	got, err := Expand("data-{train,val,test}.tar")
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, got, []string{"data-train.tar", "data-val.tar", "data-test.tar"})
}

func TestExpand_MultipleGroups(t *testing.T) {
	got, err := Expand("{a,b}-{0..1}")
	if err != nil {
		t.Fatal(err)
	}
	// Leftmost group varies slowest.
	assertEqual(t, got, []string{"a-0", "a-1", "b-0", "b-1"})
}

func TestExpand_NoBraces(t *testing.T) {
	got, err := Expand("plain.tar")
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, got, []string{"plain.tar"})
}

func TestExpand_Cardinality(t *testing.T) {
	got, err := Expand("s3-{000..123}.tar")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 124 {
		t.Errorf("got %d references, want 124", len(got))
	}
	if got[0] != "s3-000.tar" || got[123] != "s3-123.tar" {
		t.Errorf("endpoints wrong: %q .. %q", got[0], got[len(got)-1])
	}
}

func TestExpand_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"unclosed brace", "shard-{000..003.tar"},
		{"stray close", "shard-003}.tar"},
		{"nested", "shard-{a{0..1}}.tar"},
		{"empty group", "shard-{}.tar"},
		{"descending range", "shard-{5..2}.tar"},
		{"non-numeric range", "shard-{a..f}.tar"},
		{"bare word group", "shard-{abc}.tar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.pattern)
			if err == nil {
				t.Fatalf("Expand(%q) succeeded, want error", tt.pattern)
			}
			if !errors.Is(err, errors.ErrCodeMalformedPattern) {
				t.Errorf("got code %v, want MALFORMED_PATTERN", errors.CodeOf(err))
			}
		})
	}
}

func TestExpandAll(t *testing.T) {
	got, err := ExpandAll([]string{"a-{0..1}.tar", "b.tar", "c-{x,y}.tar"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a-0.tar", "a-1.tar", "b.tar", "c-x.tar", "c-y.tar"}
	assertEqual(t, got, want)
}

func TestExpandAll_PropagatesError(t *testing.T) {
	if _, err := ExpandAll([]string{"ok.tar", "{bad"}); err == nil {
		t.Error("expected error from malformed element")
	}
}

func assertEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
