package closure

import "phasetrack/internal/model"

// transitionMandatory is the single source of truth for which categories gate
// project closure, consumed by both the missing-artifact resolver and the
// project-level report.
var transitionMandatory = []string{
	model.CategoryUserManual,
	model.CategoryTechnicalManual,
	model.CategoryDeploymentPlan,
	model.CategoryClosureDocument,
	model.CategoryFinalBuild,
	model.CategoryBetaTestReport,
}

// reportCategories are the four artifact types scored individually on the
// project-level closure report.
var reportCategories = []string{
	model.CategoryUserManual,
	model.CategoryTechnicalManual,
	model.CategoryDeploymentPlan,
	model.CategoryFinalBuild,
}

// TransitionMandatoryCategories returns the ordered set of categories that
// must exist (and be approved) before a project can close.
func TransitionMandatoryCategories() []string {
	out := make([]string, len(transitionMandatory))
	copy(out, transitionMandatory)
	return out
}

// IsMandatoryForTransition reports whether the category gates closure.
func IsMandatoryForTransition(category string) bool {
	for _, c := range transitionMandatory {
		if c == category {
			return true
		}
	}
	return false
}

// ExpectedCategories lists the categories conventionally delivered in each
// phase. Display guidance only; nothing outside the Transition set gates
// closure.
var ExpectedCategories = map[string][]string{
	model.PhaseInception:    {model.CategoryVisionDocument},
	model.PhaseElaboration:  {model.CategoryRequirementsSpec, model.CategoryArchitectureDoc},
	model.PhaseConstruction: {model.CategoryTestPlan},
	model.PhaseTransition:   TransitionMandatoryCategories(),
}
