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

package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"sync"
	"time"

	"github.com/nickleo051216/jetwatersystem"
	"github.com/nickleo051216/jetwatersystem/internal/hash"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
)

const (
	// IndexKey is the key of the project index.
	IndexKey = "index.json"

	// LegacyKey is the key of the single-project document written by
	// versions that only kept one project.
	LegacyKey = "wastewater-calculator-data.json"

	projectPrefix = "project-"

	// UntitledProject is the index name of a project without a
	// facility name.
	UntitledProject = "Untitled project"
)

// Index lists the stored projects.
type Index struct {
	Projects        []Entry `json:"projects"`
	ActiveProjectID string  `json:"activeProjectId,omitempty"`
}

// Entry is the index record of one project.
type Entry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BusinessType string    `json:"businessType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (ix *Index) find(id string) int {
	for i, e := range ix.Projects {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Store saves and loads projects in a blob bucket. Each project is kept
// under its own key, and an index records the project names and which
// project is active. A Store is safe for concurrent use.
type Store struct {
	Bucket *blob.Bucket
	Log    logrus.FieldLogger

	mu     sync.Mutex
	hashes map[string]string // last saved or loaded content by key

	// indexMu serializes read-modify-write cycles of the index.
	indexMu sync.Mutex
}

// NewStore returns a store that keeps projects in b. If log is nil,
// the standard logrus logger is used.
func NewStore(b *blob.Bucket, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		Bucket: b,
		Log:    log,
		hashes: make(map[string]string),
	}
}

// OpenStore opens the bucket at bucketURL (see OpenBucket) and returns
// a store that uses it.
func OpenStore(ctx context.Context, bucketURL string, log logrus.FieldLogger) (*Store, error) {
	b, err := OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return NewStore(b, log), nil
}

// Close closes the underlying bucket.
func (s *Store) Close() error { return s.Bucket.Close() }

func projectKey(id string) string { return projectPrefix + id + ".json" }

// write stores v as JSON under key unless the stored content is already
// the same. It returns whether anything was written.
func (s *Store) write(ctx context.Context, key string, v interface{}) (bool, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false, fmt.Errorf("cloud: encoding %s: %v", key, err)
	}
	h := hash.Hash(v)
	s.mu.Lock()
	same := s.hashes[key] == h
	s.mu.Unlock()
	if same {
		s.Log.WithField("key", key).Debug("unchanged; skipping write")
		return false, nil
	}
	if err := writeBlob(ctx, s.Bucket, key, b, s.Log); err != nil {
		return false, err
	}
	s.remember(key, h)
	s.Log.WithFields(logrus.Fields{"key": key, "bytes": len(b)}).Debug("wrote blob")
	return true, nil
}

// read decodes the JSON stored under key into v.
func (s *Store) read(ctx context.Context, key string, v interface{}) error {
	b, err := readBlob(ctx, s.Bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("cloud: decoding %s: %v", key, err)
	}
	s.remember(key, hash.Hash(v))
	return nil
}

func (s *Store) remember(key, h string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == "" {
		delete(s.hashes, key)
		return
	}
	s.hashes[key] = h
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := deleteBlob(ctx, s.Bucket, key); err != nil {
		return err
	}
	s.remember(key, "")
	return nil
}

// Index returns the project index. A bucket without an index has no
// projects.
func (s *Store) Index(ctx context.Context) (*Index, error) {
	ix := new(Index)
	err := s.read(ctx, IndexKey, ix)
	if err == ErrNotFound {
		return &Index{Projects: []Entry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// List returns the index entries of all stored projects.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ix, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Projects, nil
}

// Save stores p and updates its index entry. Nothing is written if
// neither the project nor its index entry has changed since it was last
// saved or loaded through s.
func (s *Store) Save(ctx context.Context, p *jetwater.Project) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.save(ctx, p)
}

func (s *Store) save(ctx context.Context, p *jetwater.Project) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("cloud: cannot save a project without an ID")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	log := s.Log.WithField("project", p.ID)
	wrote, err := s.write(ctx, projectKey(p.ID), p)
	if err != nil {
		return err
	}
	if wrote {
		log.Info("saved project")
	}

	ix, err := s.Index(ctx)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(p.FacilityName)
	if name == "" {
		name = UntitledProject
	}
	e := Entry{
		ID:           p.ID,
		Name:         name,
		BusinessType: p.BusinessType,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if i := ix.find(p.ID); i >= 0 {
		ix.Projects[i] = e
	} else {
		ix.Projects = append(ix.Projects, e)
	}
	_, err = s.write(ctx, IndexKey, ix)
	return err
}

// Load returns the stored project with the given ID, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (*jetwater.Project, error) {
	p := new(jetwater.Project)
	if err := s.read(ctx, projectKey(id), p); err != nil {
		return nil, err
	}
	s.Log.WithField("project", id).Debug("loaded project")
	return p, nil
}

// Delete removes the project with the given ID and its index entry.
// If it was the active project, no project is active afterwards.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	ix, err := s.Index(ctx)
	if err != nil {
		return err
	}
	i := ix.find(id)
	if i < 0 {
		return ErrNotFound
	}
	if err := s.remove(ctx, projectKey(id)); err != nil {
		return err
	}
	ix.Projects = append(ix.Projects[:i], ix.Projects[i+1:]...)
	if ix.ActiveProjectID == id {
		ix.ActiveProjectID = ""
	}
	if _, err := s.write(ctx, IndexKey, ix); err != nil {
		return err
	}
	s.Log.WithField("project", id).Info("deleted project")
	return nil
}

// SetActive makes the project with the given ID the active project.
func (s *Store) SetActive(ctx context.Context, id string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.setActive(ctx, id)
}

func (s *Store) setActive(ctx context.Context, id string) error {
	ix, err := s.Index(ctx)
	if err != nil {
		return err
	}
	if ix.find(id) < 0 {
		return ErrNotFound
	}
	ix.ActiveProjectID = id
	_, err = s.write(ctx, IndexKey, ix)
	return err
}

// Active returns the active project, or ErrNotFound if there is none.
func (s *Store) Active(ctx context.Context) (*jetwater.Project, error) {
	ix, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	if ix.ActiveProjectID == "" {
		return nil, ErrNotFound
	}
	return s.Load(ctx, ix.ActiveProjectID)
}

// ClearAll deletes every stored project and the index.
func (s *Store) ClearAll(ctx context.Context) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	keys, err := listKeys(ctx, s.Bucket, projectPrefix)
	if err != nil {
		return err
	}
	for _, key := range append(keys, IndexKey) {
		if err := s.remove(ctx, key); err != nil {
			return err
		}
	}
	s.Log.WithField("projects", len(keys)).Info("cleared all projects")
	return nil
}

// legacyProject is the document kept by versions that stored a single
// project.
type legacyProject struct {
	FacilityName string                `json:"facilityName"`
	BusinessType string                `json:"businessType"`
	DesignFlow   float64               `json:"designFlow"`
	ReportItems  []jetwater.ReportItem `json:"reportItems"`
	Lines        []*jetwater.Line      `json:"lines"`
	CurrentStep  int                   `json:"currentStep"`
	SavedAt      string                `json:"savedAt"`
}

// MigrateLegacy converts the single-project document under key into a
// stored project, makes it the active project and deletes key. Nothing
// happens, and ok is false, if key does not exist or the store already
// has projects.
func (s *Store) MigrateLegacy(ctx context.Context, key string) (p *jetwater.Project, ok bool, err error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	ix, err := s.Index(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(ix.Projects) > 0 {
		return nil, false, nil
	}
	b, err := readBlob(ctx, s.Bucket, key)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var old legacyProject
	if err := json.Unmarshal(b, &old); err != nil {
		return nil, false, fmt.Errorf("cloud: decoding legacy project %s: %v", key, err)
	}

	p = jetwater.NewProject(old.FacilityName)
	p.BusinessType = old.BusinessType
	if old.DesignFlow > 0 {
		p.DesignFlow = old.DesignFlow
	}
	if old.ReportItems != nil {
		p.ReportItems = old.ReportItems
	}
	if old.Lines != nil {
		p.Lines = old.Lines
	}
	if old.CurrentStep > 0 {
		p.CurrentStep = old.CurrentStep
	}
	if t, err := time.Parse(time.RFC3339Nano, old.SavedAt); err == nil {
		p.CreatedAt = t.UTC()
	}

	if err := s.save(ctx, p); err != nil {
		return nil, false, err
	}
	if err := s.setActive(ctx, p.ID); err != nil {
		return nil, false, err
	}
	if err := s.remove(ctx, key); err != nil {
		return nil, false, err
	}
	s.Log.WithFields(logrus.Fields{"project": p.ID, "key": key}).Info("migrated legacy project")
	return p, true, nil
}

// Export writes the stored project with the given ID as indented JSON.
func (s *Store) Export(ctx context.Context, id string) ([]byte, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// Import stores a project read from JSON, replacing any stored project
// with the same ID.
func (s *Store) Import(ctx context.Context, r io.Reader) (*jetwater.Project, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading project: %v", err)
	}
	p := new(jetwater.Project)
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("cloud: decoding project: %v", err)
	}
	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
