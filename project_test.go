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
	"reflect"
	"testing"
	"time"

	"github.com/kr/pretty"
)

func fixedClock(t *testing.T) {
	old := Now
	tm := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	Now = func() time.Time {
		tm = tm.Add(time.Minute)
		return tm
	}
	t.Cleanup(func() { Now = old })
}

func TestNewProject(t *testing.T) {
	sequentialIDs(t)
	fixedClock(t)
	p := NewProject("  Riverside plant ")
	want := &Project{
		ID:           "proj-1",
		FacilityName: "Riverside plant",
		DesignFlow:   1000,
		ReportItems:  []ReportItem{},
		Lines:        []*Line{},
		CurrentStep:  1,
		CreatedAt:    time.Date(2026, 3, 1, 8, 1, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 1, 8, 1, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("%v", pretty.Diff(p, want))
	}
}

func TestProject_lines(t *testing.T) {
	sequentialIDs(t)
	fixedClock(t)
	p := NewProject("Plant")
	p, err := p.SetDesignFlow(800)
	if err != nil {
		t.Fatal(err)
	}
	q := p.AddLine().AddLine()
	if len(p.Lines) != 0 {
		t.Error("input modified")
	}
	if q.Lines[0].Name != "Line A" || q.Lines[1].Name != "Line B" || q.Lines[1].DesignFlow != 800 {
		t.Errorf("have %# v", pretty.Formatter(q.Lines))
	}
	if !q.UpdatedAt.After(p.UpdatedAt) {
		t.Error("update time not advanced")
	}

	id := q.Lines[0].ID
	r := q.UpdateLine(id, func(l *Line) *Line { return AddUnit(l, "SBR", DefaultCatalog(), nil) })
	if len(r.Line(id).Units) != 1 || len(q.Line(id).Units) != 0 {
		t.Error("UpdateLine")
	}
	if q.UpdateLine("nope", func(l *Line) *Line { return RenameLine(l, "x") }) != q {
		t.Error("unknown line should return input")
	}
	if q.UpdateLine(id, func(l *Line) *Line { return RemoveUnit(l, "nope") }) != q {
		t.Error("no-op edit should return input")
	}

	s := r.RemoveLine(id)
	if len(s.Lines) != 1 || s.Lines[0].Name != "Line B" || len(r.Lines) != 2 {
		t.Error("RemoveLine")
	}
	if r.RemoveLine("nope") != r {
		t.Error("unknown line should return input")
	}
	if _, err := p.SetDesignFlow(-1); err == nil {
		t.Error("negative design flow should be an error")
	}
}

func TestLineLetter(t *testing.T) {
	for i, want := range map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA"} {
		if have := lineLetter(i); have != want {
			t.Errorf("%d: have %s, want %s", i, have, want)
		}
	}
}

func TestProject_items(t *testing.T) {
	sequentialIDs(t)
	p, err := NewProject("Plant").SetBusinessType(DefaultCatalog(), "Food manufacturing")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.ReportItems) != 6 || p.BusinessType != "Food manufacturing" {
		t.Fatalf("have %d items for %q", len(p.ReportItems), p.BusinessType)
	}

	q, err := p.AddCustomItem("Sulfide", "", 2.5)
	if err != nil {
		t.Fatal(err)
	}
	want := ReportItem{ID: "custom-2", Name: "Sulfide", Category: CategoryCustom, Frequency: FrequencySemiannual,
		Concentration: Num(2.5), Unit: "mg/L", Enabled: true}
	if have := q.ReportItems[6]; have != want {
		t.Errorf("have %+v, want %+v", have, want)
	}
	if _, err := q.AddCustomItem("Sulfide", "mg/L", 1); err == nil {
		t.Error("duplicate name should be an error")
	}
	if _, err := q.AddCustomItem(" ", "mg/L", 1); err == nil {
		t.Error("empty name should be an error")
	}

	r, err := q.SetItemEnabled("COD", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(EnabledItems(r.ReportItems)) != 6 || len(EnabledItems(q.ReportItems)) != 7 {
		t.Error("SetItemEnabled")
	}

	r, err = r.SetItemConcentration("BOD", Num(320))
	if err != nil {
		t.Fatal(err)
	}
	if r.ReportItems[2].Concentration != Num(320) {
		t.Errorf("have %v", r.ReportItems[2])
	}
	if _, err := r.SetItemConcentration("pH", Num(7)); err == nil {
		t.Error("number for range item should be an error")
	}
	if _, err := r.SetItemConcentration("BOD", Band("high")); err == nil {
		t.Error("band for numeric item should be an error")
	}
	if _, err := r.SetItemConcentration("Lead", Num(1)); err == nil {
		t.Error("unknown item should be an error")
	}
	if _, err := NewProject("x").SetBusinessType(DefaultCatalog(), "Mining"); err == nil {
		t.Error("unknown sector should be an error")
	}
}

func TestProject_Validate(t *testing.T) {
	p := NewProject("Plant")
	p.ReportItems = []ReportItem{{Name: "BOD", Enabled: true}, {Name: "BOD"}}
	if err := p.Validate(); err != nil {
		t.Errorf("disabled duplicate: %v", err)
	}
	p.ReportItems[1].Enabled = true
	if err := p.Validate(); err == nil {
		t.Error("enabled duplicate should be an error")
	}
	p.ReportItems = []ReportItem{{Enabled: true}}
	if err := p.Validate(); err == nil {
		t.Error("empty name should be an error")
	}
}

func TestProjectJSON(t *testing.T) {
	sequentialIDs(t)
	fixedClock(t)
	items := testItems()
	p := NewProject("Plant")
	p.ReportItems = items
	p = p.AddLine()
	id := p.Lines[0].ID
	p = p.UpdateLine(id, func(l *Line) *Line {
		l = AddUnit(l, "Activated sludge", DefaultCatalog(), items)
		l = AddInlet(l, l.Units[0].ID, "RAS", DefaultCatalog(), items)
		return RecomputeLine(l, items)
	})

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var r Project
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&r, p) {
		t.Errorf("%v", pretty.Diff(&r, p))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	u := raw["lines"].([]interface{})[0].(map[string]interface{})["units"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"id", "type", "name", "inletFlow", "outletFlow", "flowInherited", "removalRates", "concentrations", "additionalInlets"} {
		if _, ok := u[key]; !ok {
			t.Errorf("unit JSON has no %q field", key)
		}
	}
}
