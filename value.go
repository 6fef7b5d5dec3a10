/*
Copyright © 2026 the JetWater authors.
This file is part of JetWater.

JetWater is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

JetWater is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with JetWater.  If not, see <http://www.gnu.org/licenses/>.
*/

package jetwater

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a water-quality value. It is either a number (for example
// a BOD concentration in mg/L) or a qualitative band such as the pH
// range "6-9". Bands never take part in arithmetic.
type Value struct {
	Number float64
	Band   string
}

// Num returns a numeric Value.
func Num(x float64) Value { return Value{Number: x} }

// Band returns a qualitative Value.
func Band(s string) Value { return Value{Band: s} }

// IsNumeric returns whether v holds a number rather than a band.
func (v Value) IsNumeric() bool { return v.Band == "" }

// Float returns the numeric value of v and whether v is numeric.
func (v Value) Float() (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.Number, true
}

func (v Value) String() string {
	if !v.IsNumeric() {
		return v.Band
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// parseValue interprets s as a number if possible and as a band otherwise.
func parseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil && finite(x) {
		return Num(x)
	}
	return Band(s)
}

// ParseValue interprets s as a number if possible and as a qualitative
// band otherwise. An empty string is the number zero.
func ParseValue(s string) Value { return parseValue(s) }

// MarshalJSON encodes numbers as JSON numbers and bands as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsNumeric() {
		return json.Marshal(v.Band)
	}
	if !finite(v.Number) {
		return nil, fmt.Errorf("jetwater: cannot encode non-finite value %g", v.Number)
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = parseValue(s)
		return nil
	}
	var x float64
	if err := json.Unmarshal(b, &x); err != nil {
		return fmt.Errorf("jetwater: invalid value %s: %v", b, err)
	}
	*v = Num(x)
	return nil
}

// UnmarshalTOML decodes TOML numbers and strings.
func (v *Value) UnmarshalTOML(data interface{}) error {
	switch d := data.(type) {
	case int64:
		*v = Num(float64(d))
	case float64:
		*v = Num(d)
	case string:
		*v = parseValue(d)
	default:
		return fmt.Errorf("jetwater: invalid value %#v", data)
	}
	return nil
}

// UnmarshalText decodes a number or a band from text.
func (v *Value) UnmarshalText(text []byte) error {
	*v = parseValue(string(text))
	return nil
}

// MarshalText encodes v as text.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
