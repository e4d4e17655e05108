package alphavantage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoData is matched by every FetchError: the source yielded nothing usable.
var ErrNoData = errors.New("no data")

// ErrorKind classifies why a fetch yielded no data
type ErrorKind string

const (
	KindHTTP      ErrorKind = "http"      // non-200 status
	KindTransport ErrorKind = "transport" // request could not be sent or read
	KindMalformed ErrorKind = "malformed" // invalid JSON or expected key absent
	KindEmpty     ErrorKind = "empty"     // expected object present but empty
)

// FetchError describes a fetch that produced no data
type FetchError struct {
	Kind       ErrorKind
	Function   string
	Symbol     string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("Alpha Vantage %s %s: %s (kind: %s", e.Function, e.Symbol, e.Message, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", status: %d", e.StatusCode)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrNoData) true for any FetchError
func (e *FetchError) Is(target error) bool {
	return target == ErrNoData
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a FetchError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// redactURL masks the API key in the request URL carried by a *url.Error.
func redactURL(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return ue.Err
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}

// noticeKeys are the keys Alpha Vantage uses in place of data for rate
// limits, invalid keys and unknown symbols. The API answers these with 200.
var noticeKeys = []string{"Error Message", "Note", "Information"}

// apiNotice returns the first notice text found in the response, or "".
func apiNotice(data map[string]json.RawMessage) string {
	for _, k := range noticeKeys {
		raw, ok := data[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		return strings.TrimSpace(string(raw))
	}
	return ""
}

func missingKeyMessage(data map[string]json.RawMessage, key string) string {
	if notice := apiNotice(data); notice != "" {
		return fmt.Sprintf("%q not found in response: %s", key, notice)
	}
	return fmt.Sprintf("%q not found in response", key)
}
