package closure

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"phasetrack/internal/model"
)

const (
	testProjectID = 1
	transitionID  = 40
)

func seedPhases() *fakePhaseStore {
	phases := &fakePhaseStore{}
	for i, kind := range model.PhaseKinds {
		phases.phases = append(phases.phases, model.ProjectPhase{
			ID:        10 * (i + 1),
			ProjectID: testProjectID,
			Kind:      kind,
			Status:    model.PhaseStatusCompleted,
			Ordering:  i + 1,
		})
	}
	return phases
}

func approvedTransitionSet() []model.Artifact {
	var out []model.Artifact
	for i, category := range TransitionMandatoryCategories() {
		out = append(out, model.Artifact{
			ID:           100 + i,
			PhaseID:      transitionID,
			Category:     category,
			Mandatory:    true,
			Status:       model.ArtifactStatusApproved,
			VersionCount: 1,
		})
	}
	return out
}

func newTestValidator(artifacts *fakeArtifactStore, defects *fakeDefectStore) *Validator {
	if defects == nil {
		defects = &fakeDefectStore{open: map[int]int{}}
	}
	return NewValidator(seedPhases(), artifacts, defects, zap.NewNop())
}

func TestValidateForClosureEmptyPhase(t *testing.T) {
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{}}, nil)

	result, err := v.ValidateForClosure(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.False(t, result.CanClose)
	assert.False(t, result.TransitionMissing)
	assert.Equal(t, TransitionMandatoryCategories(), result.MissingCategories)
	assert.Empty(t, result.PendingApproval)
	assert.False(t, result.Checklist.Valid)
}

func TestValidateForClosureAllApproved(t *testing.T) {
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: approvedTransitionSet(),
	}}, nil)

	result, err := v.ValidateForClosure(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.True(t, result.CanClose)
	assert.Empty(t, result.MissingCategories)
	assert.Empty(t, result.PendingApproval)
	assert.True(t, result.Checklist.Valid)
}

func TestValidateForClosureUnapprovedOptionalBlocks(t *testing.T) {
	set := approvedTransitionSet()
	set = append(set, model.Artifact{
		ID:       200,
		PhaseID:  transitionID,
		Category: model.CategoryTestPlan,
		Status:   model.ArtifactStatusInReview,
	})
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: set,
	}}, nil)

	result, err := v.ValidateForClosure(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.False(t, result.CanClose)
	assert.Empty(t, result.MissingCategories)
	require.Len(t, result.PendingApproval, 1)
	assert.Equal(t, 200, result.PendingApproval[0].ID)
	assert.Equal(t, model.ArtifactStatusInReview, result.PendingApproval[0].Status)
}

func TestValidateForClosureChecklistBlocks(t *testing.T) {
	set := approvedTransitionSet()
	raw, err := json.Marshal([]model.ChecklistItem{
		{Description: "handover meeting held", Mandatory: true, Completed: false},
	})
	require.NoError(t, err)
	for i := range set {
		if set[i].Category == model.CategoryClosureDocument {
			set[i].Checklist = raw
		}
	}
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: set,
	}}, nil)

	result, err := v.ValidateForClosure(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.False(t, result.CanClose)
	assert.False(t, result.Checklist.Valid)
	assert.Equal(t, []string{"handover meeting held"}, result.Checklist.PendingItems)
}

func TestValidateForClosureMissingTransitionPhase(t *testing.T) {
	phases := &fakePhaseStore{} // no phases at all
	v := NewValidator(phases, &fakeArtifactStore{byPhase: map[int][]model.Artifact{}},
		&fakeDefectStore{open: map[int]int{}}, zap.NewNop())

	result, err := v.ValidateForClosure(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.False(t, result.CanClose)
	assert.True(t, result.TransitionMissing)
	assert.Equal(t, TransitionMandatoryCategories(), result.MissingCategories)
}

func TestReportLineStatuses(t *testing.T) {
	artifacts := []model.Artifact{
		{ID: 1, PhaseID: transitionID, Category: model.CategoryUserManual,
			Status: model.ArtifactStatusApproved, VersionCount: 2},
		{ID: 2, PhaseID: transitionID, Category: model.CategoryTechnicalManual,
			Status: model.ArtifactStatusApproved, VersionCount: 0},
		{ID: 3, PhaseID: transitionID, Category: model.CategoryDeploymentPlan,
			Status: model.ArtifactStatusPending, VersionCount: 1},
		// final_build absent entirely
	}
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: artifacts,
	}}, &fakeDefectStore{open: map[int]int{testProjectID: 3}})

	report, err := v.PerformClosureValidation(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.False(t, report.CanClose)
	require.Len(t, report.Lines, 6)

	byName := make(map[string]model.ClosureCheckLine)
	for _, l := range report.Lines {
		byName[l.Name] = l
	}

	assert.Equal(t, "Completed", byName[model.CategoryUserManual].Status)
	assert.True(t, byName[model.CategoryUserManual].Passed)
	assert.Equal(t, "No version delivered", byName[model.CategoryTechnicalManual].Status)
	assert.Equal(t, "Pending approval (Status: pending)", byName[model.CategoryDeploymentPlan].Status)
	assert.Equal(t, "Missing", byName[model.CategoryFinalBuild].Status)

	assert.Equal(t, "4 of 4 phases completed", byName["All phases completed"].Status)
	assert.True(t, byName["All phases completed"].Passed)
	assert.Equal(t, "3 open defects", byName["No open defects"].Status)
	assert.False(t, byName["No open defects"].Passed)
}

func TestReportAdvisoryLinesNeverBlock(t *testing.T) {
	var set []model.Artifact
	for i, category := range reportCategories {
		set = append(set, model.Artifact{
			ID: 300 + i, PhaseID: transitionID, Category: category,
			Status: model.ArtifactStatusApproved, VersionCount: 1,
		})
	}
	// Open defects and an incomplete phase would fail the advisory lines.
	phases := seedPhases()
	phases.phases[0].Status = model.PhaseStatusInProgress
	v := NewValidator(phases, &fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: set,
	}}, &fakeDefectStore{open: map[int]int{testProjectID: 2}}, zap.NewNop())

	report, err := v.PerformClosureValidation(context.Background(), testProjectID)
	require.NoError(t, err)

	assert.True(t, report.CanClose)
	passed, total := report.PassedTally()
	assert.Equal(t, 4, passed)
	assert.Equal(t, 6, total)
}

func TestFindMissing(t *testing.T) {
	v := newTestValidator(&fakeArtifactStore{byPhase: map[int][]model.Artifact{
		transitionID: {
			{ID: 1, PhaseID: transitionID, Category: model.CategoryUserManual, Status: model.ArtifactStatusPending},
			{ID: 2, PhaseID: transitionID, Category: model.CategoryFinalBuild, Status: model.ArtifactStatusPending},
		},
	}}, nil)

	missing, err := v.FindMissing(context.Background(), transitionID)
	require.NoError(t, err)

	// Presence counts regardless of status.
	assert.Equal(t, []string{
		model.CategoryTechnicalManual,
		model.CategoryDeploymentPlan,
		model.CategoryClosureDocument,
		model.CategoryBetaTestReport,
	}, missing)
}
