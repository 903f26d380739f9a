package decode

import (
	"encoding/json"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Int accepts a JSON number without a fractional part.
func Int() Decoder[int] {
	return func(v any, p Path) (int, error) {
		switch n := v.(type) {
		case json.Number:
			i, err := strconv.ParseInt(n.String(), 10, 64)
			if err != nil {
				return 0, invalid(p, "integer", "number "+n.String())
			}
			return int(i), nil
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return 0, invalid(p, "integer", "number "+strconv.FormatFloat(n, 'g', -1, 64))
			}
			return int(n), nil
		case int:
			return n, nil
		}
		return 0, mismatch(p, "integer", v)
	}
}

// String accepts a JSON string, including the empty string.
func String() Decoder[string] {
	return func(v any, p Path) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", mismatch(p, "string", v)
		}
		return s, nil
	}
}

// Bool accepts a JSON boolean.
func Bool() Decoder[bool] {
	return func(v any, p Path) (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, mismatch(p, "boolean", v)
		}
		return b, nil
	}
}

// Email accepts a string holding a single bare e-mail address.
func Email() Decoder[string] {
	str := String()
	return func(v any, p Path) (string, error) {
		s, err := str(v, p)
		if err != nil {
			return "", err
		}
		addr, perr := mail.ParseAddress(s)
		if perr != nil || addr.Address != s || !strings.Contains(s, "@") {
			return "", invalid(p, "e-mail address", describe(s))
		}
		return s, nil
	}
}

// Time accepts an RFC 3339 timestamp string.
func Time() Decoder[time.Time] {
	str := String()
	return func(v any, p Path) (time.Time, error) {
		s, err := str(v, p)
		if err != nil {
			return time.Time{}, err
		}
		t, perr := time.Parse(time.RFC3339Nano, s)
		if perr != nil {
			return time.Time{}, invalid(p, "RFC 3339 timestamp", describe(s))
		}
		return t, nil
	}
}
