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
	"encoding/json"
	"math"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestParseValue(t *testing.T) {
	for _, test := range []struct {
		in   string
		want Value
	}{
		{"", Num(0)},
		{"200", Num(200)},
		{" 0.005 ", Num(0.005)},
		{"6-9", Band("6-9")},
		{"NaN", Band("NaN")},
		{"<0.1", Band("<0.1")},
	} {
		if have := ParseValue(test.in); have != test.want {
			t.Errorf("%q: have %#v, want %#v", test.in, have, test.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	c := ConcentrationState{Inlet: Band("6-9"), Outlet: Num(30.5), RemovalRate: 85}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	const want = `{"inlet":"6-9","outlet":30.5,"removalRate":85}`
	if string(b) != want {
		t.Errorf("have %s, want %s", b, want)
	}

	var r ConcentrationState
	if err := json.Unmarshal([]byte(`{"inlet":"12.5","outlet":null,"removalRate":10}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Inlet != Num(12.5) || r.Outlet != Num(0) || r.RemovalRate != 10 {
		t.Errorf("have %+v", r)
	}

	if _, err := json.Marshal(Num(math.NaN())); err == nil {
		t.Error("NaN should not encode")
	}
	if err := json.Unmarshal([]byte(`{"inlet":true}`), &r); err == nil {
		t.Error("boolean should not decode")
	}
}

func TestValueTOML(t *testing.T) {
	var s struct {
		A, B, C Value
	}
	if _, err := toml.Decode("A = 3\nB = \"6-9\"\nC = 0.25\n", &s); err != nil {
		t.Fatal(err)
	}
	if s.A != Num(3) || s.B != Band("6-9") || s.C != Num(0.25) {
		t.Errorf("have %+v", s)
	}
	if _, err := toml.Decode("A = true\n", &s); err == nil {
		t.Error("boolean should not decode")
	}
}

func TestValueString(t *testing.T) {
	for v, want := range map[Value]string{
		Num(200):     "200",
		Num(0.125):   "0.125",
		Band("6-9"):  "6-9",
		Num(269.231): "269.231",
	} {
		if have := v.String(); have != want {
			t.Errorf("have %q, want %q", have, want)
		}
	}
}
