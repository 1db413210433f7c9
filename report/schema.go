package report

// ThreatLevel classifies the risk of an incoming query.
type ThreatLevel string

// Threat levels. High and critical force a security block.
const (
	ThreatNone     ThreatLevel = "none"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// SecurityAssessment is the structured verdict of the security screener.
type SecurityAssessment struct {
	IsSafe          bool        `json:"is_safe"`
	ThreatLevel     ThreatLevel `json:"threat_level"`
	ThreatsDetected []string    `json:"threats_detected"`
	Reasoning       string      `json:"reasoning"`
	Recommendation  string      `json:"recommendation"` // "SAFE" or "BLOCK"
}

// Blocked applies the screening decision rule to the assessment.
func (a SecurityAssessment) Blocked() bool {
	return a.Recommendation == "BLOCK" ||
		!a.IsSafe ||
		a.ThreatLevel == ThreatHigh ||
		a.ThreatLevel == ThreatCritical
}

// DraftAssessment is the structured output of the drafting stage.
type DraftAssessment struct {
	ReportDraft string   `json:"report_draft"`
	KeyPoints   []string `json:"key_points"`
	Confidence  string   `json:"confidence"` // low, medium, high
}

// AdversarialReview is the structured critique of a draft.
type AdversarialReview struct {
	ReviewNotes []string `json:"review_notes"`
	Severity    Severity `json:"severity"`
}

// ReflectionPatch is the structured output of a reflection pass.
type ReflectionPatch struct {
	ImprovedDraft string `json:"improved_draft"`
	Reasoning     string `json:"reasoning"`
}

// orchestratorDecision is the structured output of an optional gateway
// consult for the next action. Advisory only.
type orchestratorDecision struct {
	NextAction Action `json:"next_action"`
	Reasoning  string `json:"reasoning"`
}
