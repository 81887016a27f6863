// Package closure decides whether a project may close and executes the
// closure itself, including the forced-close override and the reopen path.
package closure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/internal/mq"
	"phasetrack/internal/repository"
	"phasetrack/pkg/metrics"
)

type MemberStore interface {
	ListAccepted(ctx context.Context, projectID int) ([]model.ProjectMember, error)
}

type ClosureStore interface {
	CommitClosure(ctx context.Context, commit repository.ClosureCommit) error
	Reopen(ctx context.Context, projectID int, actor, reason string) error
	FindByProject(ctx context.Context, projectID int) (*model.ProjectClosure, error)
}

// Locker serializes concurrent close attempts on one project.
type Locker interface {
	Acquire(ctx context.Context, projectID int) bool
	Release(ctx context.Context, projectID int)
}

type Service struct {
	projects  ProjectStore
	phases    PhaseStore
	artifacts ArtifactStore
	members   MemberStore
	closures  ClosureStore
	validator *Validator
	lock      Locker
	logger    *zap.Logger
}

func NewService(
	projects ProjectStore,
	phases PhaseStore,
	artifacts ArtifactStore,
	members MemberStore,
	closures ClosureStore,
	validator *Validator,
	lock Locker,
	logger *zap.Logger,
) *Service {
	return &Service{
		projects:  projects,
		phases:    phases,
		artifacts: artifacts,
		members:   members,
		closures:  closures,
		validator: validator,
		lock:      lock,
		logger:    logger,
	}
}

// Close validates and executes a project closure. A failing validation can be
// overridden with force plus a non-empty justification; the rejection always
// carries the full validation result so the caller can show what is missing.
func (s *Service) Close(ctx context.Context, projectID int, force bool, justification, actor string) (*model.ProjectClosure, error) {
	if !s.lock.Acquire(ctx, projectID) {
		return nil, apperr.Conflict("a close of project %d is already in progress", projectID)
	}
	defer s.lock.Release(ctx, projectID)

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == model.ProjectStatusClosed {
		return nil, apperr.Conflict("project %d is already closed", projectID)
	}

	result, err := s.validator.ValidateForClosure(ctx, projectID)
	if err != nil {
		return nil, err
	}

	forced := false
	if !result.CanClose {
		if !force {
			return nil, apperr.ValidationWith(result, "project %d cannot be closed", projectID)
		}
		if justification == "" {
			return nil, apperr.ValidationWith(result, "forced close requires a justification")
		}
		forced = true
	}

	report, err := s.validator.PerformClosureValidation(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if actor == "" {
		actor = "System"
	}

	closure := &model.ProjectClosure{
		ProjectID: projectID,
		ClosedBy:  actor,
		Forced:    forced,
	}
	if forced {
		closure.Justification = justification
	}

	if err := s.freezeSnapshots(ctx, closure, result); err != nil {
		return nil, err
	}

	commit := repository.ClosureCommit{
		Closure: closure,
		Event: mq.ProjectClosedPayload{
			ProjectID: projectID,
			ClosedBy:  actor,
			Forced:    forced,
			ClosedAt:  time.Now(),
		},
	}

	artifact, version, err := s.synthesizeClosureDocument(ctx, project, actor, forced, justification, report)
	if err != nil {
		return nil, err
	}
	commit.Artifact = artifact
	commit.Version = version

	if err := s.closures.CommitClosure(ctx, commit); err != nil {
		return nil, err
	}

	metrics.IncrementProjectClosed(forced)
	s.logger.Info("Project closure committed",
		zap.Int("project_id", projectID),
		zap.String("closed_by", actor),
		zap.Bool("forced", forced),
	)
	return closure, nil
}

// Reopen returns a closed project to active. The closure audit record stays.
func (s *Service) Reopen(ctx context.Context, projectID int, reason, actor string) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status != model.ProjectStatusClosed {
		return apperr.Validation("project %d is not closed", projectID)
	}

	if actor == "" {
		actor = "System"
	}

	return s.closures.Reopen(ctx, projectID, actor, reason)
}

// GetClosure returns the most recent closure record of the project.
func (s *Service) GetClosure(ctx context.Context, projectID int) (*model.ProjectClosure, error) {
	return s.closures.FindByProject(ctx, projectID)
}

// freezeSnapshots captures the validation result, the per-phase artifact
// summary and the accepted roster as of this moment.
func (s *Service) freezeSnapshots(ctx context.Context, closure *model.ProjectClosure, result *model.ClosureValidationResult) error {
	validationJSON, err := json.Marshal(result)
	if err != nil {
		return apperr.Storage(err, "failed to snapshot validation result")
	}
	closure.ValidationSnapshot = validationJSON

	phases, err := s.phases.ListByProject(ctx, closure.ProjectID)
	if err != nil {
		return err
	}
	summaries := []model.PhaseArtifactSummary{}
	for _, phase := range phases {
		artifacts, err := s.artifacts.ListByPhase(ctx, phase.ID)
		if err != nil {
			return err
		}
		summary := model.PhaseArtifactSummary{PhaseKind: phase.Kind, Artifacts: []model.ArtifactRef{}}
		for _, a := range artifacts {
			summary.Artifacts = append(summary.Artifacts, model.ArtifactRef{
				ID:       a.ID,
				Category: a.Category,
				Status:   a.Status,
			})
		}
		summaries = append(summaries, summary)
	}
	artifactJSON, err := json.Marshal(summaries)
	if err != nil {
		return apperr.Storage(err, "failed to snapshot artifacts")
	}
	closure.ArtifactSnapshot = artifactJSON

	members, err := s.members.ListAccepted(ctx, closure.ProjectID)
	if err != nil {
		return err
	}
	teamJSON, err := json.Marshal(members)
	if err != nil {
		return apperr.Storage(err, "failed to snapshot team")
	}
	closure.TeamSnapshot = teamJSON

	return nil
}

// synthesizeClosureDocument builds the auto-generated closure document when
// the Transition phase has none. Returns nils when one already exists or when
// there is no Transition phase to attach it to.
func (s *Service) synthesizeClosureDocument(
	ctx context.Context,
	project *model.Project,
	actor string,
	forced bool,
	justification string,
	report *model.ProjectClosureReport,
) (*model.Artifact, *model.ArtifactVersion, error) {
	phase, err := s.phases.FindByProjectAndKind(ctx, project.ID, model.PhaseTransition)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	artifacts, err := s.artifacts.ListByPhase(ctx, phase.ID)
	if err != nil {
		return nil, nil, err
	}
	if latestByCategory(artifacts, model.CategoryClosureDocument) != nil {
		return nil, nil, nil
	}

	artifact := &model.Artifact{
		PhaseID:   phase.ID,
		Category:  model.CategoryClosureDocument,
		Mandatory: true,
		Status:    model.ArtifactStatusApproved,
	}
	version := &model.ArtifactVersion{
		Author:            actor,
		ChangeDescription: "auto-generated at project closure",
		Content:           closureNarrative(project, actor, forced, justification, report),
	}

	return artifact, version, nil
}

func closureNarrative(project *model.Project, actor string, forced bool, justification string, report *model.ProjectClosureReport) string {
	passed, total := report.PassedTally()

	content := fmt.Sprintf("Closure report for project %s (%s).\n", project.Name, project.Code)
	content += fmt.Sprintf("Closed by: %s\n", actor)
	if forced {
		content += "Forced close: yes\n"
		content += fmt.Sprintf("Justification: %s\n", justification)
	} else {
		content += "Forced close: no\n"
	}
	content += fmt.Sprintf("Closure checklist: %d/%d criteria passed.\n", passed, total)
	return content
}
