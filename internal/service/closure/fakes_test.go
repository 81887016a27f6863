package closure

import (
	"context"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/internal/repository"
)

type fakeProjectStore struct {
	projects map[int]*model.Project
}

func (s *fakeProjectStore) FindByID(_ context.Context, id int) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, apperr.NotFound("project %d not found", id)
	}
	copied := *p
	return &copied, nil
}

type fakePhaseStore struct {
	phases []model.ProjectPhase
}

func (s *fakePhaseStore) FindByProjectAndKind(_ context.Context, projectID int, kind string) (*model.ProjectPhase, error) {
	for _, p := range s.phases {
		if p.ProjectID == projectID && p.Kind == kind {
			copied := p
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("project %d has no %s phase", projectID, kind)
}

func (s *fakePhaseStore) ListByProject(_ context.Context, projectID int) ([]model.ProjectPhase, error) {
	var out []model.ProjectPhase
	for _, p := range s.phases {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeArtifactStore struct {
	byPhase map[int][]model.Artifact
}

func (s *fakeArtifactStore) ListByPhase(_ context.Context, phaseID int) ([]model.Artifact, error) {
	return s.byPhase[phaseID], nil
}

type fakeDefectStore struct {
	open map[int]int
}

func (s *fakeDefectStore) CountOpenByProject(_ context.Context, projectID int) (int, error) {
	return s.open[projectID], nil
}

type fakeMemberStore struct {
	members []model.ProjectMember
}

func (s *fakeMemberStore) ListAccepted(_ context.Context, projectID int) ([]model.ProjectMember, error) {
	var out []model.ProjectMember
	for _, m := range s.members {
		if m.ProjectID == projectID && m.Status == model.MemberStatusAccepted {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeClosureStore struct {
	projects *fakeProjectStore
	commits  []repository.ClosureCommit
	reopens  int
}

func (s *fakeClosureStore) CommitClosure(_ context.Context, commit repository.ClosureCommit) error {
	p, ok := s.projects.projects[commit.Closure.ProjectID]
	if !ok || p.Status != model.ProjectStatusActive {
		return apperr.Conflict("project %d is not active", commit.Closure.ProjectID)
	}
	p.Status = model.ProjectStatusClosed
	s.commits = append(s.commits, commit)
	return nil
}

func (s *fakeClosureStore) Reopen(_ context.Context, projectID int, _, _ string) error {
	p, ok := s.projects.projects[projectID]
	if !ok || p.Status != model.ProjectStatusClosed {
		return apperr.Validation("project %d is not closed", projectID)
	}
	p.Status = model.ProjectStatusActive
	s.reopens++
	return nil
}

func (s *fakeClosureStore) FindByProject(_ context.Context, projectID int) (*model.ProjectClosure, error) {
	for i := len(s.commits) - 1; i >= 0; i-- {
		if s.commits[i].Closure.ProjectID == projectID {
			copied := *s.commits[i].Closure
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("project %d has no closure record", projectID)
}

type fakeLocker struct {
	denied bool
	held   int
}

func (l *fakeLocker) Acquire(_ context.Context, _ int) bool {
	if l.denied {
		return false
	}
	l.held++
	return true
}

func (l *fakeLocker) Release(_ context.Context, _ int) {
	l.held--
}
