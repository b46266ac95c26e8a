package types

import (
	"encoding/json"
	"testing"
)

func TestRateConstructors(t *testing.T) {
	tests := []struct {
		name       string
		rate       Rate
		hundredths int64
		display    string
	}{
		{"Percent whole", Percent(8), 800, "8.00%"},
		{"Percent hundred", Percent(100), 10000, "100.00%"},
		{"Hundredths", Hundredths(850), 850, "8.50%"},
		{"MustRate half", MustRate(12.5), 1250, "12.50%"},
		{"MustRate two decimals", MustRate(0.25), 25, "0.25%"},
		{"Zero", Percent(0), 0, "0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int64(tt.rate) != tt.hundredths {
				t.Errorf("hundredths: got %d, want %d", int64(tt.rate), tt.hundredths)
			}
			if tt.rate.String() != tt.display {
				t.Errorf("display: got %s, want %s", tt.rate.String(), tt.display)
			}
		})
	}
}

func TestNewRate(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    Rate
		wantErr bool
	}{
		{"whole", 8, Percent(8), false},
		{"one decimal", 8.5, Hundredths(850), false},
		{"two decimals", 8.55, Hundredths(855), false},
		{"upper bound", 100, MaxRate, false},
		{"lower bound", 0, 0, false},
		{"three decimals", 8.555, 0, true},
		{"negative", -1, 0, true},
		{"over 100", 100.01, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRate(tt.percent)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.percent)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRateValidate(t *testing.T) {
	if err := Percent(50).Validate(); err != nil {
		t.Errorf("expected 50%% to be valid: %v", err)
	}
	if err := Rate(-1).Validate(); err == nil {
		t.Error("expected negative rate to be invalid")
	}
	if err := Rate(10001).Validate(); err == nil {
		t.Error("expected rate above 100%% to be invalid")
	}
}

func TestRateComparisons(t *testing.T) {
	a, b := Percent(5), Percent(8)

	if !a.LessThan(b) {
		t.Error("expected 5 < 8")
	}
	if !b.GreaterThan(a) {
		t.Error("expected 8 > 5")
	}
	if !a.Equal(Hundredths(500)) {
		t.Error("expected 5%% to equal 500 hundredths")
	}
	if got := a.Max(b); !got.Equal(b) {
		t.Errorf("Max: got %s, want %s", got, b)
	}
	if got := MaxOf(a, b, Percent(3)); !got.Equal(b) {
		t.Errorf("MaxOf: got %s, want %s", got, b)
	}
	if got := MaxOf(); !got.IsZero() {
		t.Errorf("MaxOf with no args: got %s, want 0", got)
	}
}

func TestRateJSON(t *testing.T) {
	tests := []struct {
		name string
		rate Rate
		json string
	}{
		{"whole", Percent(8), "8"},
		{"half", Hundredths(850), "8.5"},
		{"two decimals", Hundredths(25), "0.25"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.rate)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.json {
				t.Errorf("marshal: got %s, want %s", data, tt.json)
			}

			var back Rate
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if !back.Equal(tt.rate) {
				t.Errorf("round trip: got %d, want %d", back, tt.rate)
			}
		})
	}
}

func TestRateUnmarshalRejectsExcessPrecision(t *testing.T) {
	var r Rate
	if err := json.Unmarshal([]byte("8.555"), &r); err == nil {
		t.Error("expected error for three decimal places")
	}
	if err := json.Unmarshal([]byte(`"8"`), &r); err == nil {
		t.Error("expected error for string input")
	}
}
