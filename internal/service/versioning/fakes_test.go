package versioning

import (
	"context"
	"fmt"
	"time"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type fakePhaseStore struct {
	phases map[int]*model.ProjectPhase
}

func newFakePhaseStore(ids ...int) *fakePhaseStore {
	s := &fakePhaseStore{phases: make(map[int]*model.ProjectPhase)}
	for _, id := range ids {
		s.phases[id] = &model.ProjectPhase{ID: id, Kind: model.PhaseTransition}
	}
	return s
}

func (s *fakePhaseStore) FindByID(_ context.Context, id int) (*model.ProjectPhase, error) {
	p, ok := s.phases[id]
	if !ok {
		return nil, apperr.NotFound("phase %d not found", id)
	}
	return p, nil
}

type fakeArtifactStore struct {
	artifacts map[int]*model.Artifact
	versions  map[int][]model.ArtifactVersion
	nextID    int
	now       time.Time
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{
		artifacts: make(map[int]*model.Artifact),
		versions:  make(map[int][]model.ArtifactVersion),
		now:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeArtifactStore) InsertWithVersion(_ context.Context, a *model.Artifact, v *model.ArtifactVersion) error {
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = s.now
	a.UpdatedAt = s.now
	s.artifacts[a.ID] = a

	v.ID = s.nextID * 100
	v.ArtifactID = a.ID
	v.Number = 1
	v.CreatedAt = s.now
	s.versions[a.ID] = []model.ArtifactVersion{*v}
	return nil
}

func (s *fakeArtifactStore) FindByID(_ context.Context, id int) (*model.Artifact, error) {
	a, ok := s.artifacts[id]
	if !ok {
		return nil, apperr.NotFound("artifact %d not found", id)
	}
	copied := *a
	return &copied, nil
}

func (s *fakeArtifactStore) AppendVersion(_ context.Context, v *model.ArtifactVersion) error {
	a, ok := s.artifacts[v.ArtifactID]
	if !ok {
		return apperr.NotFound("artifact %d not found", v.ArtifactID)
	}

	max := 0
	for _, existing := range s.versions[v.ArtifactID] {
		if existing.Number > max {
			max = existing.Number
		}
	}
	v.Number = max + 1
	v.ID = v.ArtifactID*100 + v.Number
	v.CreatedAt = s.now
	s.versions[v.ArtifactID] = append(s.versions[v.ArtifactID], *v)
	a.UpdatedAt = s.now
	return nil
}

func (s *fakeArtifactStore) UpdateArtifact(_ context.Context, a *model.Artifact) error {
	if _, ok := s.artifacts[a.ID]; !ok {
		return apperr.NotFound("artifact %d not found", a.ID)
	}
	copied := *a
	s.artifacts[a.ID] = &copied
	return nil
}

func (s *fakeArtifactStore) ListVersions(_ context.Context, artifactID int) ([]model.ArtifactVersion, error) {
	return s.versions[artifactID], nil
}

func (s *fakeArtifactStore) FindVersion(_ context.Context, artifactID, number int) (*model.ArtifactVersion, error) {
	for _, v := range s.versions[artifactID] {
		if v.Number == number {
			copied := v
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("artifact %d has no version %d", artifactID, number)
}

// setVersion overwrites a stored version, for shaping compare scenarios.
func (s *fakeArtifactStore) setVersion(artifactID int, v model.ArtifactVersion) {
	for i, existing := range s.versions[artifactID] {
		if existing.Number == v.Number {
			s.versions[artifactID][i] = v
			return
		}
	}
	s.versions[artifactID] = append(s.versions[artifactID], v)
}

type fakeBlob struct {
	name        string
	contentType string
	data        []byte
}

type fakeBlobStore struct {
	blobs  map[string]fakeBlob
	nextID int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string]fakeBlob)}
}

func (s *fakeBlobStore) Save(_ context.Context, name, contentType string, data []byte) (string, error) {
	s.nextID++
	key := fmt.Sprintf("blob-%d", s.nextID)
	s.blobs[key] = fakeBlob{name: name, contentType: contentType, data: data}
	return key, nil
}

func (s *fakeBlobStore) Load(_ context.Context, key string) (string, string, []byte, error) {
	b, ok := s.blobs[key]
	if !ok {
		return "", "", nil, apperr.NotFound("blob %s not found", key)
	}
	return b.name, b.contentType, b.data, nil
}

type publishedEvent struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(routingKey string, payload any) error {
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}
