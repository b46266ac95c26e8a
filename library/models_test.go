package library

import (
	"testing"

	"github.com/xraph/rebate/talent"
)

func TestIsUnaffiliatedName(t *testing.T) {
	unaffiliated := []string{
		"", "-", "individual", "Individual", " INDEPENDENT ",
		"personal", "self", "none", "n/a", "个人", "独立", "无",
	}
	for _, name := range unaffiliated {
		if !IsUnaffiliatedName(name) {
			t.Errorf("IsUnaffiliatedName(%q) = false", name)
		}
	}

	affiliated := []string{"Starlight", "individual mcn", "n/b"}
	for _, name := range affiliated {
		if IsUnaffiliatedName(name) {
			t.Errorf("IsUnaffiliatedName(%q) = true", name)
		}
	}
}

func TestRowBinding(t *testing.T) {
	indiv := &Row{AgencyName: "Individual"}
	if !indiv.Binding().IsUnaffiliated() {
		t.Error("individual row should be unaffiliated")
	}

	bound := &Row{AgencyName: "  Starlight MCN "}
	if bound.Binding() != talent.BoundTo("starlight mcn") {
		t.Errorf("binding: %+v", bound.Binding())
	}
}
