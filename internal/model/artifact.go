package model

import (
	"encoding/json"
	"time"
)

// Artifact categories. Earlier-phase categories exist for display; the
// Transition set gates closure (see service/closure).
const (
	CategoryVisionDocument   = "vision_document"
	CategoryRequirementsSpec = "requirements_spec"
	CategoryArchitectureDoc  = "architecture_doc"
	CategoryTestPlan         = "test_plan"
	CategoryUserManual       = "user_manual"
	CategoryTechnicalManual  = "technical_manual"
	CategoryDeploymentPlan   = "deployment_plan"
	CategoryClosureDocument  = "closure_document"
	CategoryFinalBuild       = "final_build"
	CategoryBetaTestReport   = "beta_test_report"
)

const (
	ArtifactStatusPending  = "pending"
	ArtifactStatusInReview = "in_review"
	ArtifactStatusApproved = "approved"
)

// ValidArtifactStatus reports whether s is one of the known status values.
// Transitions between valid statuses are deliberately unrestricted.
func ValidArtifactStatus(s string) bool {
	switch s {
	case ArtifactStatusPending, ArtifactStatusInReview, ArtifactStatusApproved:
		return true
	}
	return false
}

// BuildInfo is only meaningful for final_build artifacts.
type BuildInfo struct {
	BuildID     string `json:"build_id"`
	DownloadURL string `json:"download_url"`
}

type Artifact struct {
	ID        int        `json:"id"`
	PhaseID   int        `json:"phase_id"`
	Category  string     `json:"category"`
	Mandatory bool       `json:"mandatory"`
	Status    string     `json:"status"` // pending / in_review / approved
	Build     *BuildInfo `json:"build,omitempty"`
	// Checklist is the raw closure-checklist payload, only meaningful for
	// closure_document artifacts. Kept raw so a malformed persisted payload
	// degrades at validation time instead of failing the load.
	Checklist json.RawMessage   `json:"checklist,omitempty"`
	Versions  []ArtifactVersion `json:"versions,omitempty"`
	// VersionCount is filled on phase listings where versions themselves are
	// not loaded.
	VersionCount int       `json:"version_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CurrentVersion returns the version with the highest number, or nil if the
// artifact has no versions loaded.
func (a *Artifact) CurrentVersion() *ArtifactVersion {
	var cur *ArtifactVersion
	for i := range a.Versions {
		if cur == nil || a.Versions[i].Number > cur.Number {
			cur = &a.Versions[i]
		}
	}
	return cur
}

// FileRef points at an uploaded file stored in the blob store.
type FileRef struct {
	BlobKey     string `json:"blob_key"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type ArtifactVersion struct {
	ID                int       `json:"id"`
	ArtifactID        int       `json:"artifact_id"`
	Number            int       `json:"number"`
	Author            string    `json:"author"`
	ChangeDescription string    `json:"change_description"`
	Content           string    `json:"content,omitempty"`
	File              *FileRef  `json:"file,omitempty"`
	RepoLink          string    `json:"repo_link,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
