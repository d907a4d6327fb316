package fetcher

import (
	"errors"
	"testing"
)

func TestValidSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"RELIANCE.NS", true},
		{"M&M.NS", true},
		{"BRK-B", true},
		{"^NSEI", true},
		{"EURUSD=X", true},
		{"", false},
		{"reliance.ns", false},
		{"TCS NS", false},
		{".NS", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := ValidSymbol(tt.symbol); got != tt.want {
				t.Errorf("ValidSymbol(%q) = %v, want %v", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestResult(t *testing.T) {
	ok := Success("AAA.NS", 42)
	if !ok.OK() || ok.Value != 42 || ok.Key != "AAA.NS" {
		t.Errorf("Success() = %+v, want OK result with value 42", ok)
	}

	failed := Failure("BBB.NS", 0, errors.New("boom"))
	if failed.OK() {
		t.Error("Failure().OK() = true, want false")
	}
	if failed.Value != 0 {
		t.Errorf("Failure().Value = %d, want empty value", failed.Value)
	}
}
