package hermes

const (
	// SubjectAssessmentSubmit carries raw submissions from collection front-ends.
	SubjectAssessmentSubmit = "psyche.assessment.submit"

	StreamName   = "PSYCHE_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAssessmentScored(assessmentID string) string {
	return "psyche.assessment." + assessmentID + ".scored"
}
func SubjectAssessmentRejected() string { return "psyche.assessment.rejected" }
func SubjectAssessmentRelabeled(assessmentID string) string {
	return "psyche.assessment." + assessmentID + ".relabeled"
}

func SubjectReportComposed(companyID string) string { return "psyche.report." + companyID + ".composed" }
func SubjectReportExported(companyID string) string { return "psyche.report." + companyID + ".exported" }

// Template lifecycle subjects
func SubjectTemplateCreated(templateID string) string  { return "psyche.template." + templateID + ".created" }
func SubjectTemplateUpdated(templateID string) string  { return "psyche.template." + templateID + ".updated" }
func SubjectTemplateDeleted(templateID string) string  { return "psyche.template." + templateID + ".deleted" }
func SubjectTemplateDefaulted(templateID string) string { return "psyche.template." + templateID + ".defaulted" }
