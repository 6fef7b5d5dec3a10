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

// Package jetwater models pollutant concentrations and mass loadings as
// wastewater moves through an ordered chain of treatment units.
//
// A Line is an ordered list of Units sharing one design flow. Each Unit
// mixes its main inlet (the previous unit's outlet, or the raw influent for
// the first unit) with any auxiliary inlets, applies its removal rates, and
// passes the result downstream. RecomputeLine walks a line from the top and
// regenerates every unit's concentration state; UpdateRemovalRate and
// UpdateInletConcentration recompute a single unit in place without
// cascading. All operations return new snapshots and never modify their
// inputs.
package jetwater

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid"
)

// Version gives the version number.
const Version = "0.3.0"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a new identifier for a line, unit, inlet or project,
// where prefix describes the kind of element. It can be replaced
// (for example in tests) to make identifiers predictable.
var NewID = func(prefix string) string {
	id, err := gonanoid.Generate(idAlphabet, 10)
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return prefix + "-" + id
}
