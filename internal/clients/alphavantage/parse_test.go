package alphavantage

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"string", `"150.00"`, "150.00", false},
		{"number", `150.25`, "150.25", false},
		{"integer", `51234567`, "51234567", false},
		{"null", `null`, "", false},
		{"empty string", `""`, "", false},
		{"percent", `"1.0101%"`, "1.0101%", false},
		{"object", `{"a":1}`, "", true},
		{"array", `[1,2]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexString
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(f) != tt.want {
				t.Errorf("got %q, want %q", string(f), tt.want)
			}
		})
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-02 16:00", time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)},
		{"2024-01-02 16:00:30", time.Date(2024, 1, 2, 16, 0, 30, 0, time.UTC)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.input)
		if err != nil {
			t.Fatalf("parseTimestamp(%q) failed: %v", tt.input, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := parseTimestamp("02/01/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestParseIndicatorPoint_MissingValue(t *testing.T) {
	if _, err := parseIndicatorPoint("2024-01-02", nil); err == nil {
		t.Error("expected error for missing SMA value")
	}
}

func TestAPINotice_Priority(t *testing.T) {
	data := map[string]json.RawMessage{
		"Information":   json.RawMessage(`"info text"`),
		"Error Message": json.RawMessage(`"error text"`),
	}
	if got := apiNotice(data); got != "error text" {
		t.Errorf("apiNotice() = %q, want %q", got, "error text")
	}
	if got := apiNotice(map[string]json.RawMessage{}); got != "" {
		t.Errorf("apiNotice() on empty = %q, want empty", got)
	}
}
