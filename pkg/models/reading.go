package models

import (
	"math"
	"strconv"
	"strings"
)

const fieldSeparator = ";"

// Reading is one token of a semicolon-delimited wire field. Tokens that are
// not numbers ("off", "") keep their raw text and have Valid unset.
type Reading struct {
	Raw   string
	Value int64   // Float truncated toward zero
	Float float64 // Exact numeric value, including any fraction
	Valid bool
}

// ParseReading converts a single token. Decimal tokens such as "29500.5"
// are accepted; NaN and infinities are not.
func ParseReading(token string) Reading {
	token = strings.TrimSpace(token)
	if value, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Reading{Raw: token, Value: value, Float: float64(value), Valid: true}
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Reading{Raw: token}
	}
	return Reading{Raw: token, Value: int64(math.Trunc(value)), Float: value, Valid: true}
}

// Int returns the value truncated to an integer, or nil.
func (r Reading) Int() *int64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}

// Readings is an ordered sequence of per-device values.
type Readings []Reading

// ParseReadings splits a field such as "29001;28970;off".
func ParseReadings(field string) Readings {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	parts := strings.Split(field, fieldSeparator)
	readings := make(Readings, len(parts))
	for i, part := range parts {
		readings[i] = ParseReading(part)
	}
	return readings
}

// At returns the value at index i, or nil when absent or not numeric.
func (r Readings) At(i int) *int64 {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i].Int()
}

// String restores the wire notation.
func (r Readings) String() string {
	tokens := make([]string, len(r))
	for i, reading := range r {
		tokens[i] = reading.Raw
	}
	return strings.Join(tokens, fieldSeparator)
}

// Totals is the sum/accepted/rejected triplet reported for one hashrate family.
type Totals struct {
	Hashrate Reading
	Accepted Reading
	Rejected Reading
}

// ParseTotals decodes a "sum;accepted;rejected" field. Missing positions stay empty.
func ParseTotals(field string) Totals {
	readings := ParseReadings(field)
	var totals Totals
	if len(readings) > 0 {
		totals.Hashrate = readings[0]
	}
	if len(readings) > 1 {
		totals.Accepted = readings[1]
	}
	if len(readings) > 2 {
		totals.Rejected = readings[2]
	}
	return totals
}

// IsZero reports whether nothing was parsed into the triplet.
func (t Totals) IsZero() bool {
	return t == Totals{}
}

func (t Totals) String() string {
	tokens := []string{t.Hashrate.Raw, t.Accepted.Raw, t.Rejected.Raw}
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, fieldSeparator)
}

// DeviceClimate is the temperature and fan speed of one device.
type DeviceClimate struct {
	Temp Reading
	Fan  Reading
}

// Climate holds the per-device temperature/fan pairs in device order.
type Climate []DeviceClimate

// ParseClimate decodes a "temp;fan;temp;fan" field.
func ParseClimate(field string) Climate {
	readings := ParseReadings(field)
	if len(readings) == 0 {
		return nil
	}
	climate := make(Climate, 0, (len(readings)+1)/2)
	for i := 0; i < len(readings); i += 2 {
		pair := DeviceClimate{Temp: readings[i]}
		if i+1 < len(readings) {
			pair.Fan = readings[i+1]
		}
		climate = append(climate, pair)
	}
	return climate
}

// Temp returns the temperature of device i, or nil.
func (c Climate) Temp(i int) *int64 {
	if i < 0 || i >= len(c) {
		return nil
	}
	return c[i].Temp.Int()
}

// Fan returns the fan speed of device i, or nil.
func (c Climate) Fan(i int) *int64 {
	if i < 0 || i >= len(c) {
		return nil
	}
	return c[i].Fan.Int()
}

func (c Climate) String() string {
	tokens := make([]string, 0, len(c)*2)
	for i, pair := range c {
		tokens = append(tokens, pair.Temp.Raw)
		if i < len(c)-1 || pair.Fan.Raw != "" {
			tokens = append(tokens, pair.Fan.Raw)
		}
	}
	return strings.Join(tokens, fieldSeparator)
}

// ParsePools splits the pool address field.
func ParsePools(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	pools := strings.Split(field, fieldSeparator)
	for i := range pools {
		pools[i] = strings.TrimSpace(pools[i])
	}
	return pools
}
