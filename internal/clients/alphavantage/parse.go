package alphavantage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stockreport/internal/models"
)

// flexString keeps a JSON scalar verbatim as text. Alpha Vantage sends
// strings, but a number or null must not fail the whole response.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	case '{', '[':
		return fmt.Errorf("cannot unmarshal %s into string", string(data))
	default:
		// number or boolean literal
		*f = flexString(data)
		return nil
	}
}

// decodeFields decodes an already split top-level object into v.
func decodeFields(data map[string]json.RawMessage, v interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func hasAnyField(data map[string]json.RawMessage, fields []string) bool {
	for _, f := range fields {
		if _, ok := data[f]; ok {
			return true
		}
	}
	return false
}

// timestampLayouts covers intraday ("2024-01-02 16:00"), extended intraday
// and daily/weekly/monthly series.
var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseIndicatorPoint(stamp string, raw json.RawMessage) (models.IndicatorPoint, error) {
	ts, err := parseTimestamp(stamp)
	if err != nil {
		return models.IndicatorPoint{}, err
	}
	if raw == nil {
		return models.IndicatorPoint{}, fmt.Errorf("missing SMA value at %s", stamp)
	}

	var fs flexString
	if err := json.Unmarshal(raw, &fs); err != nil {
		return models.IndicatorPoint{}, fmt.Errorf("invalid SMA value at %s: %w", stamp, err)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(fs)), 64)
	if err != nil {
		return models.IndicatorPoint{}, fmt.Errorf("invalid SMA value %q at %s", string(fs), stamp)
	}

	return models.IndicatorPoint{
		Timestamp: ts,
		Raw:       stamp,
		Value:     value,
		RawValue:  string(fs),
	}, nil
}
