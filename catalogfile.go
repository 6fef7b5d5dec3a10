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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx"
)

// catalogCache holds previously loaded catalog files
// to avoid reading the same file multiple times.
var catalogCache *requestcache.Cache

var loadCatalogCacheOnce sync.Once

// LoadCatalogFile loads a catalog from a TOML file or, if the file name
// ends in ".xlsx", from a Microsoft Excel workbook (see LoadCatalogXLSX).
// Files are only read once per process; the returned Catalog is shared
// between callers and must not be modified.
func LoadCatalogFile(ctx context.Context, fileName string) (*Catalog, error) {
	loadCatalogCacheOnce.Do(func() {
		catalogCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			fileName := req.(string)
			if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
				return LoadCatalogXLSX(fileName)
			}
			f, err := os.Open(fileName)
			if err != nil {
				return nil, fmt.Errorf("jetwater: opening catalog file: %v", err)
			}
			defer f.Close()
			return LoadCatalog(f)
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(100))
	})
	r := catalogCache.NewRequest(ctx, fileName, fileName)
	cI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return cI.(*Catalog), nil
}

// LoadCatalogXLSX reads a catalog from a Microsoft Excel workbook. The
// first row of each sheet holds column names. The sheets are:
//
//	Parameters: Name, Unit, IsRange, DefaultConcentration
//	UnitTypes:  Name, Description, then one column per parameter
//	            holding the default removal rate [percent]
//	InletTypes: Type, Name, Description, DefaultFlow
//	Sectors:    Name, ID, General, Specific1, Specific2, where the
//	            last three are comma-separated parameter names
//	Settings:   Key, Value (optional; keys CustomUnitType and
//	            CustomInletType)
//
// Blank rows and blank removal rates are skipped.
func LoadCatalogXLSX(fileName string) (*Catalog, error) {
	f, err := xlsx.OpenFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("jetwater: opening xlsx catalog: %v", err)
	}
	c := &Catalog{
		Parameters: make(map[string]Parameter),
		UnitTypes:  make(map[string]UnitType),
		InletTypes: make(map[string]InletType),
		Sectors:    make(map[string]Sector),
	}

	params, err := sheetRecords(f, "Parameters", true)
	if err != nil {
		return nil, err
	}
	for _, rec := range params {
		p := Parameter{
			Name:                 rec.get("Name"),
			Unit:                 rec.get("Unit"),
			IsRange:              cast.ToBool(rec.get("IsRange")),
			DefaultConcentration: parseValue(rec.get("DefaultConcentration")),
		}
		c.Parameters[p.Name] = p
	}

	units, err := sheetRecords(f, "UnitTypes", true)
	if err != nil {
		return nil, err
	}
	for _, rec := range units {
		t := UnitType{
			Name:         rec.get("Name"),
			Description:  rec.get("Description"),
			RemovalRates: make(map[string]float64),
		}
		for _, col := range rec.header {
			if col == "Name" || col == "Description" || col == "" {
				continue
			}
			v := rec.get(col)
			if v == "" {
				continue
			}
			rate, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("jetwater: xlsx catalog unit type %q: removal rate for %s: %v", t.Name, col, err)
			}
			t.RemovalRates[col] = rate
		}
		c.UnitTypes[t.Name] = t
	}

	inlets, err := sheetRecords(f, "InletTypes", true)
	if err != nil {
		return nil, err
	}
	for _, rec := range inlets {
		flow, err := cast.ToFloat64E(orZero(rec.get("DefaultFlow")))
		if err != nil {
			return nil, fmt.Errorf("jetwater: xlsx catalog inlet type %q: default flow: %v", rec.get("Type"), err)
		}
		c.InletTypes[rec.get("Type")] = InletType{
			Name:        rec.get("Name"),
			Description: rec.get("Description"),
			DefaultFlow: flow,
		}
	}

	sectors, err := sheetRecords(f, "Sectors", true)
	if err != nil {
		return nil, err
	}
	for _, rec := range sectors {
		id, err := cast.ToIntE(orZero(rec.get("ID")))
		if err != nil {
			return nil, fmt.Errorf("jetwater: xlsx catalog sector %q: id: %v", rec.get("Name"), err)
		}
		c.Sectors[rec.get("Name")] = Sector{
			ID:        id,
			Name:      rec.get("Name"),
			General:   splitList(rec.get("General")),
			Specific1: splitList(rec.get("Specific1")),
			Specific2: splitList(rec.get("Specific2")),
		}
	}

	settings, err := sheetRecords(f, "Settings", false)
	if err != nil {
		return nil, err
	}
	for _, rec := range settings {
		switch rec.get("Key") {
		case "CustomUnitType":
			c.CustomUnitType = rec.get("Value")
		case "CustomInletType":
			c.CustomInletType = rec.get("Value")
		}
	}

	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// record is one spreadsheet row keyed by column name.
type record struct {
	header []string
	cells  []string
}

func (r record) get(col string) string {
	for i, h := range r.header {
		if h == col && i < len(r.cells) {
			return r.cells[i]
		}
	}
	return ""
}

// sheetRecords returns the non-blank rows after the header row of the
// named sheet.
func sheetRecords(f *xlsx.File, sheet string, required bool) ([]record, error) {
	s, ok := f.Sheet[sheet]
	if !ok {
		if required {
			return nil, fmt.Errorf("jetwater: reading xlsx catalog; no sheet %s", sheet)
		}
		return nil, nil
	}
	if len(s.Rows) == 0 || s.Rows[0] == nil {
		return nil, nil
	}
	header := rowText(s.Rows[0])
	var o []record
	for _, row := range s.Rows[1:] {
		if row == nil {
			continue
		}
		cells := rowText(row)
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		o = append(o, record{header: header, cells: cells})
	}
	return o, nil
}

func rowText(row *xlsx.Row) []string {
	o := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		if c != nil {
			o[i] = strings.TrimSpace(c.Value)
		}
	}
	return o
}

func splitList(s string) []string {
	var o []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			o = append(o, v)
		}
	}
	return o
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
