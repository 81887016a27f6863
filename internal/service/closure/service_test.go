package closure

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type closureFixture struct {
	svc       *Service
	projects  *fakeProjectStore
	artifacts *fakeArtifactStore
	closures  *fakeClosureStore
	lock      *fakeLocker
}

func newClosureFixture(artifactsByPhase map[int][]model.Artifact) *closureFixture {
	projects := &fakeProjectStore{projects: map[int]*model.Project{
		testProjectID: {
			ID:     testProjectID,
			Name:   "Inventory Tracker",
			Code:   "INV-01",
			Status: model.ProjectStatusActive,
		},
	}}
	phases := seedPhases()
	artifacts := &fakeArtifactStore{byPhase: artifactsByPhase}
	defects := &fakeDefectStore{open: map[int]int{}}
	members := &fakeMemberStore{members: []model.ProjectMember{
		{ID: 1, ProjectID: testProjectID, Name: "alice", Role: "lead", Status: model.MemberStatusAccepted},
		{ID: 2, ProjectID: testProjectID, Name: "bob", Role: "dev", Status: model.MemberStatusInvited},
	}}
	closures := &fakeClosureStore{projects: projects}
	lock := &fakeLocker{}

	validator := NewValidator(phases, artifacts, defects, zap.NewNop())
	svc := NewService(projects, phases, artifacts, members, closures, validator, lock, zap.NewNop())

	return &closureFixture{
		svc:       svc,
		projects:  projects,
		artifacts: artifacts,
		closures:  closures,
		lock:      lock,
	}
}

func TestCloseSucceedsWhenValid(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	})

	closure, err := f.svc.Close(context.Background(), testProjectID, false, "", "alice")
	require.NoError(t, err)

	assert.False(t, closure.Forced)
	assert.Equal(t, "alice", closure.ClosedBy)
	assert.Equal(t, model.ProjectStatusClosed, f.projects.projects[testProjectID].Status)
	assert.Equal(t, 0, f.lock.held)

	require.Len(t, f.closures.commits, 1)
	commit := f.closures.commits[0]
	// A closure document already exists, so none is synthesized.
	assert.Nil(t, commit.Artifact)
	assert.Nil(t, commit.Version)

	var snapshot model.ClosureValidationResult
	require.NoError(t, json.Unmarshal(closure.ValidationSnapshot, &snapshot))
	assert.True(t, snapshot.CanClose)

	var team []model.ProjectMember
	require.NoError(t, json.Unmarshal(closure.TeamSnapshot, &team))
	require.Len(t, team, 1)
	assert.Equal(t, "alice", team[0].Name)

	var summaries []model.PhaseArtifactSummary
	require.NoError(t, json.Unmarshal(closure.ArtifactSnapshot, &summaries))
	assert.Len(t, summaries, 4)
}

func TestCloseRejectedWhenInvalid(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{})

	_, err := f.svc.Close(context.Background(), testProjectID, false, "", "alice")
	require.True(t, apperr.IsValidation(err))

	// The rejection carries the full validation result.
	details, ok := apperr.DetailsOf(err).(*model.ClosureValidationResult)
	require.True(t, ok)
	assert.Equal(t, TransitionMandatoryCategories(), details.MissingCategories)

	assert.Equal(t, model.ProjectStatusActive, f.projects.projects[testProjectID].Status)
	assert.Empty(t, f.closures.commits)
	assert.Equal(t, 0, f.lock.held)
}

func TestForcedCloseRequiresJustification(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{})

	_, err := f.svc.Close(context.Background(), testProjectID, true, "", "alice")
	require.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "justification")
	assert.Empty(t, f.closures.commits)
}

func TestForcedCloseSynthesizesClosureDocument(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{})

	closure, err := f.svc.Close(context.Background(), testProjectID, true, "sponsor pulled funding", "alice")
	require.NoError(t, err)

	assert.True(t, closure.Forced)
	assert.Equal(t, "sponsor pulled funding", closure.Justification)

	require.Len(t, f.closures.commits, 1)
	commit := f.closures.commits[0]
	require.NotNil(t, commit.Artifact)
	assert.Equal(t, model.CategoryClosureDocument, commit.Artifact.Category)
	assert.Equal(t, model.ArtifactStatusApproved, commit.Artifact.Status)
	assert.True(t, commit.Artifact.Mandatory)
	assert.Equal(t, transitionID, commit.Artifact.PhaseID)

	require.NotNil(t, commit.Version)
	assert.Equal(t, "alice", commit.Version.Author)
	assert.Equal(t, "auto-generated at project closure", commit.Version.ChangeDescription)
	assert.True(t, strings.Contains(commit.Version.Content, "Inventory Tracker"))
	assert.True(t, strings.Contains(commit.Version.Content, "sponsor pulled funding"))
	// Four required lines fail, the two advisory lines pass.
	assert.True(t, strings.Contains(commit.Version.Content, "2/6 criteria passed"))

	assert.True(t, commit.Event.Forced)
	assert.Equal(t, "alice", commit.Event.ClosedBy)
}

func TestCloseKeepsExistingClosureDocument(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: {
			{ID: 1, PhaseID: transitionID, Category: model.CategoryClosureDocument,
				Status: model.ArtifactStatusPending, VersionCount: 1},
		},
	})

	_, err := f.svc.Close(context.Background(), testProjectID, true, "deadline", "alice")
	require.NoError(t, err)

	require.Len(t, f.closures.commits, 1)
	assert.Nil(t, f.closures.commits[0].Artifact)
}

func TestCloseAlreadyClosedConflicts(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	})

	_, err := f.svc.Close(context.Background(), testProjectID, false, "", "alice")
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), testProjectID, false, "", "bob")
	assert.True(t, apperr.IsConflict(err))
	assert.Len(t, f.closures.commits, 1)
}

func TestCloseLockedConflicts(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	})
	f.lock.denied = true

	_, err := f.svc.Close(context.Background(), testProjectID, false, "", "alice")
	assert.True(t, apperr.IsConflict(err))
	assert.Empty(t, f.closures.commits)
}

func TestCloseUnknownProject(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{})

	_, err := f.svc.Close(context.Background(), 999, false, "", "alice")
	assert.True(t, apperr.IsNotFound(err))
}

func TestCloseDefaultsActorToSystem(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	})

	closure, err := f.svc.Close(context.Background(), testProjectID, false, "", "")
	require.NoError(t, err)
	assert.Equal(t, "System", closure.ClosedBy)
}

func TestReopen(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	})

	// Not closed yet.
	err := f.svc.Reopen(context.Background(), testProjectID, "late deliverable", "alice")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.Close(context.Background(), testProjectID, false, "", "alice")
	require.NoError(t, err)

	err = f.svc.Reopen(context.Background(), testProjectID, "late deliverable", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, f.projects.projects[testProjectID].Status)
	assert.Equal(t, 1, f.closures.reopens)

	// The audit record from the first closure stays readable.
	closure, err := f.svc.GetClosure(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, "alice", closure.ClosedBy)
}

func TestReopenUnknownProject(t *testing.T) {
	f := newClosureFixture(map[int][]model.Artifact{})

	err := f.svc.Reopen(context.Background(), 999, "reason", "alice")
	assert.True(t, apperr.IsNotFound(err))
}
