package versioning

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/internal/mq"
)

func newTestService() (*Service, *fakeArtifactStore, *fakeBlobStore, *fakePublisher) {
	artifacts := newFakeArtifactStore()
	blobs := newFakeBlobStore()
	pub := &fakePublisher{}
	svc := NewService(newFakePhaseStore(1), artifacts, blobs, pub, zap.NewNop())
	return svc, artifacts, blobs, pub
}

func TestCreateArtifactSeedsVersionOne(t *testing.T) {
	svc, _, _, _ := newTestService()

	a, err := svc.CreateArtifact(context.Background(), CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryUserManual,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ArtifactStatusPending, a.Status)
	require.Len(t, a.Versions, 1)
	assert.Equal(t, 1, a.Versions[0].Number)
	assert.Equal(t, "initial version", a.Versions[0].ChangeDescription)
	assert.Equal(t, DefaultAuthor, a.Versions[0].Author)
}

func TestCreateArtifactRejectsUnknownCategory(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateArtifact(context.Background(), CreateArtifactInput{
		PhaseID:  1,
		Category: "meeting_notes",
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateArtifactUnknownPhase(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateArtifact(context.Background(), CreateArtifactInput{
		PhaseID:  42,
		Category: model.CategoryUserManual,
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreateArtifactGatesBuildAndChecklist(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	// Build info on a non-build category is dropped.
	manual, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryUserManual,
		Build:    &model.BuildInfo{BuildID: "b-1"},
		Checklist: []model.ChecklistItem{
			{Description: "handover done", Mandatory: true},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, manual.Build)
	assert.Empty(t, manual.Checklist)

	build, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryFinalBuild,
		Build:    &model.BuildInfo{BuildID: "b-1", DownloadURL: "https://example.com/b-1"},
	})
	require.NoError(t, err)
	require.NotNil(t, build.Build)
	assert.Equal(t, "b-1", build.Build.BuildID)

	doc, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryClosureDocument,
		Checklist: []model.ChecklistItem{
			{Description: "handover done", Mandatory: true},
		},
	})
	require.NoError(t, err)

	var items []model.ChecklistItem
	require.NoError(t, json.Unmarshal(doc.Checklist, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "handover done", items[0].Description)
}

func TestAddVersionNumbersAreContiguous(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryTestPlan,
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		v, err := svc.AddVersion(ctx, a.ID, AddVersionInput{
			Author:            "alice",
			ChangeDescription: "revised test matrix",
		})
		require.NoError(t, err)
		assert.Equal(t, i+2, v.Number)
	}

	got, err := svc.GetArtifact(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Versions, 5)
	for i, v := range got.Versions {
		assert.Equal(t, i+1, v.Number)
	}
}

func TestAddVersionRequiresChangeDescription(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryTestPlan,
	})
	require.NoError(t, err)

	_, err = svc.AddVersion(ctx, a.ID, AddVersionInput{Author: "alice"})
	assert.True(t, apperr.IsValidation(err))
}

func TestAddVersionUnknownArtifact(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.AddVersion(context.Background(), 999, AddVersionInput{
		ChangeDescription: "whatever",
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddVersionPublishesEvent(t *testing.T) {
	svc, _, _, pub := newTestService()
	ctx := context.Background()

	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryFinalBuild,
	})
	require.NoError(t, err)

	v, err := svc.AddVersion(ctx, a.ID, AddVersionInput{
		Author:            "bob",
		ChangeDescription: "release candidate",
	})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, mq.EventArtifactVersionAdded, pub.events[0].routingKey)
	payload, ok := pub.events[0].payload.(mq.ArtifactVersionAddedPayload)
	require.True(t, ok)
	assert.Equal(t, a.ID, payload.ArtifactID)
	assert.Equal(t, v.Number, payload.Number)
}

func TestSetStatusAllowsAnyDirection(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryUserManual,
	})
	require.NoError(t, err)

	a, err = svc.SetStatus(ctx, a.ID, model.ArtifactStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactStatusApproved, a.Status)

	// Moving back out of approved is allowed.
	a, err = svc.SetStatus(ctx, a.ID, model.ArtifactStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactStatusPending, a.Status)

	_, err = svc.SetStatus(ctx, a.ID, "shipped")
	assert.True(t, apperr.IsValidation(err))
}

func TestFileUploadRoundTrip(t *testing.T) {
	svc, _, blobs, _ := newTestService()
	ctx := context.Background()

	data := []byte("installer bytes")
	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryFinalBuild,
		File: &FileUpload{
			Name:        "installer.zip",
			ContentType: "application/zip",
			Data:        data,
		},
	})
	require.NoError(t, err)

	require.NotNil(t, a.Versions[0].File)
	assert.Equal(t, int64(len(data)), a.Versions[0].File.SizeBytes)
	assert.Len(t, blobs.blobs, 1)

	name, contentType, got, err := svc.DownloadFile(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "installer.zip", name)
	assert.Equal(t, "application/zip", contentType)
	assert.Equal(t, data, got)
}

func TestDownloadFileWithoutAttachment(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateArtifact(ctx, CreateArtifactInput{
		PhaseID:  1,
		Category: model.CategoryUserManual,
	})
	require.NoError(t, err)

	_, _, _, err = svc.DownloadFile(ctx, a.ID, 1)
	assert.True(t, apperr.IsNotFound(err))
}
