// Package versioning implements the artifact lifecycle: creation, append-only
// version history and status transitions.
package versioning

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/internal/mq"
	"phasetrack/pkg/metrics"
)

// DefaultAuthor is attributed when the identity context supplies no actor.
const DefaultAuthor = "System"

const defaultChangeDescription = "initial version"

type PhaseStore interface {
	FindByID(ctx context.Context, id int) (*model.ProjectPhase, error)
}

type ArtifactStore interface {
	InsertWithVersion(ctx context.Context, a *model.Artifact, v *model.ArtifactVersion) error
	FindByID(ctx context.Context, id int) (*model.Artifact, error)
	AppendVersion(ctx context.Context, v *model.ArtifactVersion) error
	UpdateArtifact(ctx context.Context, a *model.Artifact) error
	ListVersions(ctx context.Context, artifactID int) ([]model.ArtifactVersion, error)
	FindVersion(ctx context.Context, artifactID, number int) (*model.ArtifactVersion, error)
}

type BlobStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Load(ctx context.Context, key string) (name, contentType string, data []byte, err error)
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	phases    PhaseStore
	artifacts ArtifactStore
	blobs     BlobStore
	publisher Publisher
	logger    *zap.Logger
}

func NewService(phases PhaseStore, artifacts ArtifactStore, blobs BlobStore, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		phases:    phases,
		artifacts: artifacts,
		blobs:     blobs,
		publisher: publisher,
		logger:    logger,
	}
}

// FileUpload carries an uploaded file before it reaches the blob store.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

type CreateArtifactInput struct {
	PhaseID           int
	Category          string
	Mandatory         bool
	Author            string
	ChangeDescription string
	Content           string
	RepoLink          string
	File              *FileUpload
	Build             *model.BuildInfo
	Checklist         []model.ChecklistItem
}

// CreateArtifact creates the artifact in Pending status and seeds its
// version 1 in the same store transaction.
func (s *Service) CreateArtifact(ctx context.Context, in CreateArtifactInput) (*model.Artifact, error) {
	if !validCategory(in.Category) {
		return nil, apperr.Validation("unknown artifact category %q", in.Category)
	}

	if _, err := s.phases.FindByID(ctx, in.PhaseID); err != nil {
		return nil, err
	}

	a := &model.Artifact{
		PhaseID:   in.PhaseID,
		Category:  in.Category,
		Mandatory: in.Mandatory,
		Status:    model.ArtifactStatusPending,
	}
	// Build info only means anything on a final build, a checklist only on a
	// closure document; anything else is silently dropped.
	if in.Category == model.CategoryFinalBuild {
		a.Build = in.Build
	}
	if in.Category == model.CategoryClosureDocument && in.Checklist != nil {
		raw, err := json.Marshal(in.Checklist)
		if err != nil {
			return nil, apperr.Validation("invalid checklist: %v", err)
		}
		a.Checklist = raw
	}

	desc := in.ChangeDescription
	if desc == "" {
		desc = defaultChangeDescription
	}

	v := &model.ArtifactVersion{
		Author:            authorOrDefault(in.Author),
		ChangeDescription: desc,
		Content:           in.Content,
		RepoLink:          in.RepoLink,
	}

	file, err := s.storeFile(ctx, in.File)
	if err != nil {
		return nil, err
	}
	v.File = file

	if err := s.artifacts.InsertWithVersion(ctx, a, v); err != nil {
		return nil, err
	}
	a.Versions = []model.ArtifactVersion{*v}

	metrics.IncrementVersionCreated(a.Category)
	s.logger.Info("Artifact created",
		zap.Int("artifact_id", a.ID),
		zap.Int("phase_id", a.PhaseID),
		zap.String("category", a.Category),
	)
	return a, nil
}

type AddVersionInput struct {
	Author            string
	ChangeDescription string
	Content           string
	RepoLink          string
	File              *FileUpload
}

// AddVersion appends the next version to an existing artifact. The change
// description is the one mandatory field: a version with no stated reason for
// change is rejected.
func (s *Service) AddVersion(ctx context.Context, artifactID int, in AddVersionInput) (*model.ArtifactVersion, error) {
	a, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	if in.ChangeDescription == "" {
		return nil, apperr.Validation("change description is required")
	}

	v := &model.ArtifactVersion{
		ArtifactID:        a.ID,
		Author:            authorOrDefault(in.Author),
		ChangeDescription: in.ChangeDescription,
		Content:           in.Content,
		RepoLink:          in.RepoLink,
	}

	file, err := s.storeFile(ctx, in.File)
	if err != nil {
		return nil, err
	}
	v.File = file

	if err := s.artifacts.AppendVersion(ctx, v); err != nil {
		return nil, err
	}

	metrics.IncrementVersionCreated(a.Category)

	payload := mq.ArtifactVersionAddedPayload{
		ArtifactID: a.ID,
		PhaseID:    a.PhaseID,
		Category:   a.Category,
		Number:     v.Number,
		Author:     v.Author,
		CreatedAt:  v.CreatedAt,
	}
	if err := s.publisher.Publish(mq.EventArtifactVersionAdded, payload); err != nil {
		// the version is committed; a lost event is not worth failing the call
		s.logger.Warn("Failed to publish version added event",
			zap.Int("artifact_id", a.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Version added",
		zap.Int("artifact_id", a.ID),
		zap.Int("number", v.Number),
	)
	return v, nil
}

// SetStatus moves the artifact to a new status. Transitions between the three
// statuses are unrestricted in either direction.
func (s *Service) SetStatus(ctx context.Context, artifactID int, status string) (*model.Artifact, error) {
	if !model.ValidArtifactStatus(status) {
		return nil, apperr.Validation("unknown artifact status %q", status)
	}

	a, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	a.Status = status
	if err := s.artifacts.UpdateArtifact(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("Artifact status updated",
		zap.Int("artifact_id", a.ID),
		zap.String("status", status),
	)
	return a, nil
}

type UpdateArtifactInput struct {
	Status    *string
	Build     *model.BuildInfo
	Checklist *[]model.ChecklistItem
}

// UpdateArtifact applies the inbound "update artifact" operation: status,
// build info and checklist, each optional. Category gating matches
// CreateArtifact.
func (s *Service) UpdateArtifact(ctx context.Context, artifactID int, in UpdateArtifactInput) (*model.Artifact, error) {
	a, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		if !model.ValidArtifactStatus(*in.Status) {
			return nil, apperr.Validation("unknown artifact status %q", *in.Status)
		}
		a.Status = *in.Status
	}
	if in.Build != nil && a.Category == model.CategoryFinalBuild {
		a.Build = in.Build
	}
	if in.Checklist != nil && a.Category == model.CategoryClosureDocument {
		raw, err := json.Marshal(*in.Checklist)
		if err != nil {
			return nil, apperr.Validation("invalid checklist: %v", err)
		}
		a.Checklist = raw
	}

	if err := s.artifacts.UpdateArtifact(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// GetArtifact loads the artifact with its full version history.
func (s *Service) GetArtifact(ctx context.Context, artifactID int) (*model.Artifact, error) {
	a, err := s.artifacts.FindByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	versions, err := s.artifacts.ListVersions(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	a.Versions = versions

	return a, nil
}

// DownloadFile resolves the file attached to one version back to its bytes.
func (s *Service) DownloadFile(ctx context.Context, artifactID, number int) (name, contentType string, data []byte, err error) {
	v, err := s.artifacts.FindVersion(ctx, artifactID, number)
	if err != nil {
		return "", "", nil, err
	}
	if v.File == nil {
		return "", "", nil, apperr.NotFound("version %d of artifact %d has no file", number, artifactID)
	}

	return s.blobs.Load(ctx, v.File.BlobKey)
}

func (s *Service) storeFile(ctx context.Context, f *FileUpload) (*model.FileRef, error) {
	if f == nil {
		return nil, nil
	}

	key, err := s.blobs.Save(ctx, f.Name, f.ContentType, f.Data)
	if err != nil {
		return nil, err
	}

	return &model.FileRef{
		BlobKey:     key,
		Name:        f.Name,
		ContentType: f.ContentType,
		SizeBytes:   int64(len(f.Data)),
	}, nil
}

func authorOrDefault(author string) string {
	if author == "" {
		return DefaultAuthor
	}
	return author
}

func validCategory(category string) bool {
	switch category {
	case model.CategoryVisionDocument, model.CategoryRequirementsSpec,
		model.CategoryArchitectureDoc, model.CategoryTestPlan,
		model.CategoryUserManual, model.CategoryTechnicalManual,
		model.CategoryDeploymentPlan, model.CategoryClosureDocument,
		model.CategoryFinalBuild, model.CategoryBetaTestReport:
		return true
	}
	return false
}
