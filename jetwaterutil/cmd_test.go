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


package jetwaterutil

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/nickleo051216/jetwatersystem/cloud"
	"github.com/sirupsen/logrus"
)

var storeCount int

// testCLI runs commands against its own in-memory store.
type testCLI struct {
	t     *testing.T
	store string
}

func newTestCLI(t *testing.T) *testCLI {
	storeCount++
	Log.SetOutput(ioutil.Discard)
	n := 0
	newID := jetwater.NewID
	jetwater.NewID = func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	t.Cleanup(func() { jetwater.NewID = newID })
	return &testCLI{t: t, store: fmt.Sprintf("mem://cli-test-%d", storeCount)}
}

// resetFlags sets all options back to their defaults so that flags from
// one command do not carry over to the next.
func resetFlags(t *testing.T) {
	for _, option := range options {
		f := option.flagsets[0].Lookup(option.name)
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatal(err)
		}
		f.Changed = false
	}
}

func (c *testCLI) exec(args ...string) (string, error) {
	resetFlags(c.t)
	var out bytes.Buffer
	Root.SetOut(&out)
	Root.SetArgs(append([]string{"--store=" + c.store}, args...))
	err := Root.Execute()
	return out.String(), err
}

func (c *testCLI) run(args ...string) string {
	c.t.Helper()
	out, err := c.exec(args...)
	if err != nil {
		c.t.Fatalf("jetwater %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (c *testCLI) fail(args ...string) error {
	c.t.Helper()
	_, err := c.exec(args...)
	if err == nil {
		c.t.Errorf("jetwater %s: expected an error", strings.Join(args, " "))
	}
	return err
}

func (c *testCLI) opened() *cloud.Store {
	s, ok := stores[c.store]
	if !ok {
		c.t.Fatalf("store %s was never opened", c.store)
	}
	return s
}

// active returns the stored active project.
func (c *testCLI) active() *jetwater.Project {
	c.t.Helper()
	p, err := c.opened().Active(context.Background())
	if err != nil {
		c.t.Fatal(err)
	}
	return p
}

func outlet(t *testing.T, u *jetwater.Unit, name string) float64 {
	t.Helper()
	x, ok := u.Concentrations[name].Outlet.Float()
	if !ok {
		t.Fatalf("%s %s outlet is not a number", u.Name, name)
	}
	return x
}

func inlet(t *testing.T, u *jetwater.Unit, name string) float64 {
	t.Helper()
	x, ok := u.Concentrations[name].Inlet.Float()
	if !ok {
		t.Fatalf("%s %s inlet is not a number", u.Name, name)
	}
	return x
}

func checkClose(t *testing.T, what string, have, want float64) {
	t.Helper()
	if math.Abs(have-want) > 1e-9 {
		t.Errorf("%s: have %g, want %g", what, have, want)
	}
}

func TestVersion(t *testing.T) {
	c := newTestCLI(t)
	out := c.run("version")
	if want := "JetWater v" + jetwater.Version + "\n"; out != want {
		t.Errorf("have %q, want %q", out, want)
	}
}

func TestCatalog(t *testing.T) {
	c := newTestCLI(t)
	out := c.run("catalog")
	for _, want := range []string{"Hospitals", "Activated sludge", "Return activated sludge", "Molybdenum", "BOD=85"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog output does not contain %q", want)
		}
	}
	out = c.run("catalog", "inlets")
	if !strings.Contains(out, "RAS") || strings.Contains(out, "Molybdenum") {
		t.Errorf("unexpected inlet listing:\n%s", out)
	}
	c.fail("catalog", "pumps")
}

func TestLineWorkflow(t *testing.T) {
	c := newTestCLI(t)

	id := strings.TrimSpace(c.run("project", "new", "Riverside", "Hospital", "--sector=Hospitals", "--DesignFlow=500"))
	if id != "proj-1" {
		t.Errorf("project id: have %q, want proj-1", id)
	}
	out := c.run("project", "list")
	for _, want := range []string{"*", "proj-1", "Riverside Hospital", "Hospitals"} {
		if !strings.Contains(out, want) {
			t.Errorf("project list does not contain %q:\n%s", want, out)
		}
	}

	if out := c.run("line", "add"); !strings.HasPrefix(out, "Line A\t") {
		t.Errorf("line add: have %q", out)
	}
	if out := c.run("unit", "add", "Line A", "Primary", "clarifier"); !strings.HasPrefix(out, "T1\tPrimary clarifier\t") {
		t.Errorf("unit add: have %q", out)
	}
	if out := c.run("unit", "add", "Line A", "Activated sludge"); !strings.HasPrefix(out, "T2\tActivated sludge\t") {
		t.Errorf("unit add: have %q", out)
	}
	if out := c.run("inlet", "add", "Line A", "T2", "RAS"); !strings.HasPrefix(out, "WTB-RAS1\tReturn activated sludge\t") {
		t.Errorf("inlet add: have %q", out)
	}

	p := c.active()
	if p.DesignFlow != 500 || p.BusinessType != "Hospitals" {
		t.Errorf("project: have flow %g and sector %q", p.DesignFlow, p.BusinessType)
	}
	l := p.Lines[0]
	checkClose(t, "T1 BOD outlet", outlet(t, l.Units[0], "BOD"), 140)
	checkClose(t, "T2 BOD inlet", inlet(t, l.Units[1], "BOD"), 87.5)
	checkClose(t, "T2 BOD outlet", outlet(t, l.Units[1], "BOD"), 13.125)
	if have := l.Units[1].Concentrations["pH"].Inlet; have != jetwater.Band("6-9") {
		t.Errorf("T2 pH inlet: have %v", have)
	}

	out = c.run("line", "show", "Line A")
	for _, want := range []string{"Activated sludge", "87.5", "13.125", "43.750", "10.500", "WTB-RAS1 → T2"} {
		if !strings.Contains(out, want) {
			t.Errorf("line show does not contain %q:\n%s", want, out)
		}
	}

	// Local edits leave the rest of the line alone until it is recomputed.
	c.run("unit", "rate", "Line A", "T1", "BOD", "50", "--recompute=false")
	l = c.active().Lines[0]
	checkClose(t, "T1 BOD outlet after rate", outlet(t, l.Units[0], "BOD"), 100)
	checkClose(t, "T2 BOD inlet before recompute", inlet(t, l.Units[1], "BOD"), 87.5)
	c.run("line", "recompute", "Line A")
	l = c.active().Lines[0]
	checkClose(t, "T2 BOD inlet after recompute", inlet(t, l.Units[1], "BOD"), 62.5)
	checkClose(t, "T2 BOD outlet after recompute", outlet(t, l.Units[1], "BOD"), 9.375)

	c.run("unit", "move", "Line A", "T2", "1")
	l = c.active().Lines[0]
	if l.Units[0].Name != "Activated sludge" || l.Units[0].FlowID != "T1" || l.Units[1].FlowID != "T2" {
		t.Errorf("move: have %s (%s), %s (%s)", l.Units[0].Name, l.Units[0].FlowID, l.Units[1].Name, l.Units[1].FlowID)
	}
	checkClose(t, "moved T1 BOD inlet", inlet(t, l.Units[0], "BOD"), 125)
	checkClose(t, "moved T1 BOD outlet", outlet(t, l.Units[0], "BOD"), 18.75)
	checkClose(t, "moved T2 BOD outlet", outlet(t, l.Units[1], "BOD"), 9.375)

	c.run("unit", "flow", "Line A", "T1", "inlet", "700")
	c.run("line", "flow", "Line A", "800")
	l = c.active().Lines[0]
	if u := l.Units[0]; u.FlowInherited || u.InletFlow != 700 {
		t.Errorf("T1 flow: have inherited=%v, inlet %g", u.FlowInherited, u.InletFlow)
	}
	if u := l.Units[1]; !u.FlowInherited || u.InletFlow != 800 || u.OutletFlow != 800 {
		t.Errorf("T2 flow: have inherited=%v, inlet %g, outlet %g", u.FlowInherited, u.InletFlow, u.OutletFlow)
	}

	c.run("inlet", "flow", "Line A", "T1", "WTB-RAS1", "100")
	c.run("inlet", "conc", "Line A", "T1", "WTB-RAS1", "BOD", "20")
	c.run("inlet", "rename", "Line A", "T1", "WTB-RAS1", "Sludge", "return")
	c.run("inlet", "flowid", "Line A", "T1", "Sludge return", "WTB-R")
	in := c.active().Lines[0].Units[0].AdditionalInlets[0]
	if in.Flow != 100 || in.Concentrations["BOD"] != 20 || in.Name != "Sludge return" || in.FlowID != "WTB-R" {
		t.Errorf("inlet: have %+v", in)
	}
	// (200×700 + 20×100) / 800
	checkClose(t, "T1 BOD inlet with edited inlet", inlet(t, c.active().Lines[0].Units[0], "BOD"), 177.5)
	c.run("inlet", "remove", "Line A", "T1", "WTB-R")
	if n := len(c.active().Lines[0].Units[0].AdditionalInlets); n != 0 {
		t.Errorf("inlet remove: %d inlets left", n)
	}

	c.run("unit", "rename", "Line A", "T2", "Final", "clarifier")
	c.run("unit", "flowid", "Line A", "T2", "outletFlowId", "WTA-final")
	c.run("unit", "inherit", "Line A", "T1")
	l = c.active().Lines[0]
	if u := l.Units[1]; u.Name != "Final clarifier" || u.OutletFlowID != "WTA-final" {
		t.Errorf("T2: have name %q, outlet flow ID %q", u.Name, u.OutletFlowID)
	}
	if u := l.Units[0]; !u.FlowInherited || u.InletFlow != 800 {
		t.Errorf("T1 inherit: have inherited=%v, inlet %g", u.FlowInherited, u.InletFlow)
	}

	c.run("unit", "remove", "Line A", "Final clarifier")
	c.run("line", "rename", "Line A", "Main", "line")
	p = c.active()
	if len(p.Lines[0].Units) != 1 || p.Lines[0].Name != "Main line" {
		t.Errorf("have %d units in %q", len(p.Lines[0].Units), p.Lines[0].Name)
	}
	c.run("line", "remove", "Main line")
	if n := len(c.active().Lines); n != 0 {
		t.Errorf("line remove: %d lines left", n)
	}
}

func TestItems(t *testing.T) {
	c := newTestCLI(t)
	c.run("project", "new", "Clinic", "--sector=Hospitals")
	c.run("line", "add")
	c.run("unit", "add", "Line A", "Activated sludge")

	c.run("item", "disable", "COD", "Coliforms")
	c.run("item", "set", "BOD", "180")
	c.run("item", "set", "pH", "5-8")
	c.run("item", "add", "Phenol", "0.5", "--unit=mg/L")
	c.fail("item", "set", "pH", "7")
	c.fail("item", "add", "Phenol", "1")
	c.fail("item", "enable", "Radium")

	p := c.active()
	items := make(map[string]jetwater.ReportItem)
	for _, item := range p.ReportItems {
		items[item.Name] = item
	}
	if items["COD"].Enabled || items["Coliforms"].Enabled {
		t.Error("COD and Coliforms should be disabled")
	}
	if items["BOD"].Concentration != jetwater.Num(180) || items["pH"].Concentration != jetwater.Band("5-8") {
		t.Errorf("have BOD %v, pH %v", items["BOD"].Concentration, items["pH"].Concentration)
	}
	if it := items["Phenol"]; !it.Enabled || it.Category != jetwater.CategoryCustom || it.Concentration != jetwater.Num(0.5) {
		t.Errorf("Phenol: have %+v", it)
	}

	u := p.Lines[0].Units[0]
	if _, ok := u.Concentrations["COD"]; ok {
		t.Error("disabled items should be dropped from the line")
	}
	checkClose(t, "BOD outlet", outlet(t, u, "BOD"), 27)
	checkClose(t, "Phenol inlet", inlet(t, u, "Phenol"), 0.5)

	out := c.run("item", "list")
	if !strings.Contains(out, "Phenol") || !strings.Contains(out, "5-8") {
		t.Errorf("item list:\n%s", out)
	}
}

func TestProjects(t *testing.T) {
	c := newTestCLI(t)
	first := strings.TrimSpace(c.run("project", "new", "North"))
	second := strings.TrimSpace(c.run("project", "new", "South"))
	if p := c.active(); p.ID != second {
		t.Errorf("active project: have %s, want %s", p.ID, second)
	}
	c.run("project", "use", first)
	if p := c.active(); p.ID != first {
		t.Errorf("active project: have %s, want %s", p.ID, first)
	}
	c.run("--project="+second, "line", "add")
	if out := c.run("--project="+second, "project", "show"); !strings.Contains(out, "South") || !strings.Contains(out, "Line A") {
		t.Errorf("project show:\n%s", out)
	}
	if n := len(c.active().Lines); n != 0 {
		t.Errorf("--project changed the active project: %d lines", n)
	}
	c.run("project", "flow", "250")
	if p := c.active(); p.DesignFlow != 250 {
		t.Errorf("design flow: have %g", p.DesignFlow)
	}

	exported := c.run("--project="+second, "project", "export")
	c.run("project", "delete", second)
	if list, _ := c.opened().List(context.Background()); len(list) != 1 {
		t.Errorf("after delete: have %d projects", len(list))
	}
	file := filepath.Join(t.TempDir(), "south.json")
	if err := ioutil.WriteFile(file, []byte(exported), 0644); err != nil {
		t.Fatal(err)
	}
	if id := strings.TrimSpace(c.run("project", "import", file)); id != second {
		t.Errorf("import: have %s, want %s", id, second)
	}
	p, err := c.opened().Load(context.Background(), second)
	if err != nil {
		t.Fatal(err)
	}
	if p.FacilityName != "South" || len(p.Lines) != 1 {
		t.Errorf("imported project: have %q with %d lines", p.FacilityName, len(p.Lines))
	}

	Root.SetIn(strings.NewReader(exported))
	c.run("project", "import", "-")
	Root.SetIn(os.Stdin)

	c.fail("project", "use", "proj-99")
	c.fail("project", "delete", "proj-99")
	c.fail("--project=proj-99", "project", "show")

	c.run("project", "clear")
	if list, _ := c.opened().List(context.Background()); len(list) != 0 {
		t.Errorf("after clear: have %d projects", len(list))
	}
	if err := c.fail("line", "add"); err != nil && !strings.Contains(err.Error(), "no active project") {
		t.Errorf("have %v", err)
	}
}

func TestMigrate(t *testing.T) {
	c := newTestCLI(t)
	c.run("project", "list")
	legacy := `{"facilityName": "Old plant", "businessType": "Hospitals", "designFlow": 300, "currentStep": 2, "savedAt": "2024-01-02T03:04:05Z"}`
	if err := c.opened().Bucket.WriteAll(context.Background(), cloud.LegacyKey, []byte(legacy), nil); err != nil {
		t.Fatal(err)
	}
	id := strings.TrimSpace(c.run("project", "migrate"))
	p := c.active()
	if p.ID != id || p.FacilityName != "Old plant" || p.DesignFlow != 300 || p.CurrentStep != 2 {
		t.Errorf("migrated project: have %+v", p)
	}
	if out := c.run("project", "migrate"); out != "nothing to migrate\n" {
		t.Errorf("second migration: have %q", out)
	}
}

func TestErrors(t *testing.T) {
	c := newTestCLI(t)
	c.run("project", "new", "Plant", "--sector=Hospitals")
	c.run("line", "add")
	c.run("unit", "add", "Line A", "Bar screen")

	for _, args := range [][]string{
		{"unit", "add", "Line Z", "Bar screen"},
		{"unit", "add", "Line A", "Reverse osmosis"},
		{"unit", "flow", "Line A", "T1", "sideways", "5"},
		{"unit", "flow", "Line A", "T9", "inlet", "5"},
		{"unit", "move", "Line A", "T1", "5"},
		{"unit", "rate", "Line A", "T1", "BOD", "lots"},
		{"unit", "conc", "Line A", "T1", "BOD", "plenty"},
		{"unit", "flowid", "Line A", "T1", "name", "X"},
		{"line", "flow", "Line A", "--", "-5"},
		{"inlet", "add", "Line A", "T1", "Steam"},
		{"inlet", "remove", "Line A", "T1", "WTB-RAS1"},
		{"project", "new", "Plant", "--sector=Shipyards"},
		{"--LogLevel=loud", "version"},
	} {
		c.fail(args...)
	}
}

func TestConfigFile(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	catalogFile := filepath.Join(dir, "catalog.toml")
	err := ioutil.WriteFile(catalogFile, []byte(`
[Parameters.BOD]
DefaultConcentration = 100

[UnitTypes.Pond]
RemovalRates = { BOD = 40 }

[Sectors.Farm]
ID = 7
General = ["BOD"]
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	configFile := filepath.Join(dir, "config.toml")
	err = ioutil.WriteFile(configFile, []byte(fmt.Sprintf(`
LogLevel = "debug"
DesignFlow = 250.0
catalog = %q
`, catalogFile)), 0644)
	if err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty.toml")
	if err := ioutil.WriteFile(emptyFile, nil, 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		Cfg.SetConfigFile(emptyFile)
		Cfg.ReadInConfig()
	})

	c.run("--config="+configFile, "project", "new", "Farm", "--sector=Farm")
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("log level: have %v", Log.GetLevel())
	}
	c.run("--config="+configFile, "line", "add")
	c.run("--config="+configFile, "unit", "add", "Line A", "Pond")
	p := c.active()
	if p.DesignFlow != 250 || p.Lines[0].DesignFlow != 250 {
		t.Errorf("design flow: have %g and %g", p.DesignFlow, p.Lines[0].DesignFlow)
	}
	checkClose(t, "Pond BOD outlet", outlet(t, p.Lines[0].Units[0], "BOD"), 60)
}
