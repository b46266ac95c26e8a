package agency

import (
	"testing"

	"github.com/xraph/rebate/types"
)

func TestBaseRebateFor(t *testing.T) {
	a := &Agency{
		ID:   "agency-01",
		Name: "Starlight",
		Platforms: map[string]PlatformConfig{
			"douyin": {BaseRebate: types.Percent(8)},
		},
	}

	rate, ok := a.BaseRebateFor("douyin")
	if !ok || !rate.Equal(types.Percent(8)) {
		t.Fatalf("got %s, %v", rate, ok)
	}

	if _, ok := a.BaseRebateFor("xiaohongshu"); ok {
		t.Error("unconfigured platform should report false")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Starlight", "starlight"},
		{"  STARLIGHT  ", "starlight"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameIndex(t *testing.T) {
	first := &Agency{ID: "a1", Name: "Starlight"}
	dup := &Agency{ID: "a2", Name: "STARLIGHT"}
	unnamed := &Agency{ID: "a3", Name: "  "}

	ix := NewNameIndex([]*Agency{first, dup, unnamed})

	got, ok := ix.Lookup(" starlight ")
	if !ok {
		t.Fatal("lookup failed")
	}
	if got.ID != "a1" {
		t.Errorf("first agency should win on collision, got %s", got.ID)
	}

	if _, ok := ix.Lookup("ghost"); ok {
		t.Error("unknown names must not resolve")
	}
	if _, ok := ix.Lookup(""); ok {
		t.Error("empty names must not resolve")
	}
}
