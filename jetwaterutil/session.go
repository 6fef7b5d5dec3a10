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
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/nickleo051216/jetwatersystem/cloud"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	storesMu sync.Mutex
	stores   = make(map[string]*cloud.Store)
)

// openStore returns the project store named by the "store" option. Stores
// are opened once per location and reused, so an in-memory store keeps
// its projects between commands.
func openStore(ctx context.Context) (*cloud.Store, error) {
	url := os.ExpandEnv(Cfg.GetString("store"))
	storesMu.Lock()
	defer storesMu.Unlock()
	if s, ok := stores[url]; ok {
		return s, nil
	}
	s, err := cloud.OpenStore(ctx, url, Log.WithField("store", url))
	if err != nil {
		return nil, err
	}
	stores[url] = s
	return s, nil
}

// catalog returns the catalog named by the "catalog" option, or the
// built-in catalog if there is none.
func catalog(ctx context.Context) (*jetwater.Catalog, error) {
	fileName := os.ExpandEnv(Cfg.GetString("catalog"))
	if fileName == "" {
		return jetwater.DefaultCatalog(), nil
	}
	return jetwater.LoadCatalogFile(ctx, fileName)
}

// loadProject returns the project selected by the "project" option, or
// the active project.
func loadProject(ctx context.Context, s *cloud.Store) (*jetwater.Project, error) {
	id := Cfg.GetString("project")
	if id == "" {
		p, err := s.Active(ctx)
		if err == cloud.ErrNotFound {
			return nil, fmt.Errorf("jetwater: no active project; create one with 'jetwater project new' or choose one with 'jetwater project use'")
		}
		return p, err
	}
	p, err := s.Load(ctx, id)
	if err == cloud.ErrNotFound {
		return nil, fmt.Errorf("jetwater: no project %q", id)
	}
	return p, err
}

// editProject applies fn to the selected project and saves the result.
func editProject(cmd *cobra.Command, fn func(p *jetwater.Project) (*jetwater.Project, error)) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	p, err := loadProject(ctx, s)
	if err != nil {
		return err
	}
	np, err := fn(p)
	if err != nil {
		return err
	}
	if np == p {
		Log.WithField("project", p.ID).Debug("no changes")
		return nil
	}
	return s.Save(ctx, np)
}

// lineEditor changes one line of project p.
type lineEditor func(p *jetwater.Project, l *jetwater.Line) (*jetwater.Line, error)

// editLine applies fn to the line of the selected project named by
// lineRef and saves the result. The line is recomputed afterwards if the
// "recompute" option is set.
func editLine(cmd *cobra.Command, lineRef string, fn lineEditor) error {
	return editProject(cmd, func(p *jetwater.Project) (*jetwater.Project, error) {
		l, err := findLine(p, lineRef)
		if err != nil {
			return nil, err
		}
		nl, err := fn(p, l)
		if err != nil {
			return nil, err
		}
		if nl == l {
			return p, nil
		}
		if Cfg.GetBool("recompute") {
			nl = jetwater.RecomputeLine(nl, p.ReportItems)
		}
		Log.WithFields(logrus.Fields{"project": p.ID, "line": l.ID}).Debug("updated line")
		return p.UpdateLine(l.ID, func(*jetwater.Line) *jetwater.Line { return nl }), nil
	})
}

// recomputeAll returns a copy of p with every line recomputed if the
// "recompute" option is set.
func recomputeAll(p *jetwater.Project) *jetwater.Project {
	if !Cfg.GetBool("recompute") {
		return p
	}
	for _, l := range p.Lines {
		p = p.UpdateLine(l.ID, func(l *jetwater.Line) *jetwater.Line {
			return jetwater.RecomputeLine(l, p.ReportItems)
		})
	}
	return p
}

// findLine returns the line of p whose ID or name is ref.
func findLine(p *jetwater.Project, ref string) (*jetwater.Line, error) {
	if l := p.Line(ref); l != nil {
		return l, nil
	}
	for _, l := range p.Lines {
		if l.Name == ref {
			return l, nil
		}
	}
	return nil, fmt.Errorf("jetwater: project %s has no line %q", p.ID, ref)
}

// findUnit returns the unit of l whose ID, flow ID or name is ref.
func findUnit(l *jetwater.Line, ref string) (*jetwater.Unit, error) {
	if u := l.Unit(ref); u != nil {
		return u, nil
	}
	for _, u := range l.Units {
		if u.FlowID == ref || u.Name == ref {
			return u, nil
		}
	}
	return nil, fmt.Errorf("jetwater: %s has no unit %q", l.Name, ref)
}

// findInlet returns the auxiliary inlet of u whose ID, flow ID or name
// is ref.
func findInlet(u *jetwater.Unit, ref string) (*jetwater.Inlet, error) {
	for _, in := range u.AdditionalInlets {
		if in.ID == ref || in.FlowID == ref || in.Name == ref {
			return in, nil
		}
	}
	return nil, fmt.Errorf("jetwater: %s has no inlet %q", u.Name, ref)
}
