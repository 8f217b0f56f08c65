package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes bounds JSON request bodies. Sample arrays posted back for
// spectrum analysis or demodulation are the largest payloads.
const maxBodyBytes = 32 << 20

// number accepts a JSON number or a numeric string. The browser front-end
// posts form values as strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not a finite number", ErrBadRequest, b)
	}
	*n = number(v)
	return nil
}

func (n *number) or(fallback float64) float64 {
	if n == nil {
		return fallback
	}
	return float64(*n)
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so every field takes its default.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxBytes):
			return err
		case errors.Is(err, ErrBadRequest):
			return err
		default:
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	return nil
}

func queryFloat(q url.Values, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a finite number", ErrBadRequest, key, raw)
	}
	return v, nil
}

func queryInt(q url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrBadRequest, key, raw)
	}
	return v, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrBadRequest, key, raw)
	}
	return v, nil
}

// floatQuery reads several float parameters at once, stopping at the first
// parse error.
type floatQuery struct {
	q   url.Values
	err error
}

func (f *floatQuery) get(key string, fallback float64) float64 {
	if f.err != nil {
		return 0
	}
	v, err := queryFloat(f.q, key, fallback)
	f.err = err
	return v
}

// require reads a parameter that has no default.
func (f *floatQuery) require(key string) float64 {
	if f.err != nil {
		return 0
	}
	if strings.TrimSpace(f.q.Get(key)) == "" {
		f.err = fmt.Errorf("%w: missing query parameter %q", ErrBadRequest, key)
		return 0
	}
	return f.get(key, 0)
}
