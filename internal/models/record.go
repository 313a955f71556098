package models

// AnalysisKeys lists the eight CV sub-scores in report order.
var AnalysisKeys = []string{
	"technical_experience",
	"project_relevance",
	"extra_curricular",
	"business_acumen",
	"communication",
	"leadership",
	"innovative",
	"cultural_fit",
}

// AudioAnalysisKeys lists the four interview audio sub-scores.
var AudioAnalysisKeys = []string{
	"communication_score",
	"technical_depth",
	"confidence",
	"keyword_usage",
}

type Education struct {
	Degree     string `json:"degree"`
	University string `json:"university"`
}

type Experience struct {
	LastTitle string  `json:"last_title"`
	ATSScore  float64 `json:"ats_score"`
}

// Analysis holds the eight 1-5 sub-scores of a CV evaluation.
type Analysis struct {
	TechnicalExperience float64 `json:"technical_experience"`
	ProjectRelevance    float64 `json:"project_relevance"`
	ExtraCurricular     float64 `json:"extra_curricular"`
	BusinessAcumen      float64 `json:"business_acumen"`
	Communication       float64 `json:"communication"`
	Leadership          float64 `json:"leadership"`
	Innovative          float64 `json:"innovative"`
	CulturalFit         float64 `json:"cultural_fit"`
}

// Values returns the sub-scores in AnalysisKeys order.
func (a Analysis) Values() []float64 {
	return []float64{
		a.TechnicalExperience,
		a.ProjectRelevance,
		a.ExtraCurricular,
		a.BusinessAcumen,
		a.Communication,
		a.Leadership,
		a.Innovative,
		a.CulturalFit,
	}
}

// Set assigns a sub-score by key. Unknown keys are ignored.
func (a *Analysis) Set(key string, v float64) {
	switch key {
	case "technical_experience":
		a.TechnicalExperience = v
	case "project_relevance":
		a.ProjectRelevance = v
	case "extra_curricular":
		a.ExtraCurricular = v
	case "business_acumen":
		a.BusinessAcumen = v
	case "communication":
		a.Communication = v
	case "leadership":
		a.Leadership = v
	case "innovative":
		a.Innovative = v
	case "cultural_fit":
		a.CulturalFit = v
	}
}

// CandidateRecord is the validated, aggregated result of screening one CV.
type CandidateRecord struct {
	DocumentID         string     `json:"document_id"`
	JobCategory        string     `json:"job_category"`
	Name               string     `json:"name"`
	Education          Education  `json:"education"`
	Experience         Experience `json:"experience"`
	Analysis           Analysis   `json:"analysis"`
	Summary            string     `json:"summary"`
	InterviewQuestions []string   `json:"interview_questions"`
	AverageScore       float64    `json:"average_score"`
	CVExcerpt          string     `json:"cv_excerpt,omitempty"`
	Warnings           []string   `json:"warnings,omitempty"`
}

type AudioAnalysis struct {
	CommunicationScore float64 `json:"communication_score"`
	TechnicalDepth     float64 `json:"technical_depth"`
	Confidence         float64 `json:"confidence"`
	KeywordUsage       float64 `json:"keyword_usage"`
}

// Values returns the sub-scores in AudioAnalysisKeys order.
func (a AudioAnalysis) Values() []float64 {
	return []float64{a.CommunicationScore, a.TechnicalDepth, a.Confidence, a.KeywordUsage}
}

// Set assigns a sub-score by key. Unknown keys are ignored.
func (a *AudioAnalysis) Set(key string, v float64) {
	switch key {
	case "communication_score":
		a.CommunicationScore = v
	case "technical_depth":
		a.TechnicalDepth = v
	case "confidence":
		a.Confidence = v
	case "keyword_usage":
		a.KeywordUsage = v
	}
}

// AudioRecord is the validated result of screening one interview recording.
type AudioRecord struct {
	DocumentID string        `json:"document_id"`
	Analysis   AudioAnalysis `json:"analysis"`
	RedFlags   []string      `json:"red_flags"`
	Summary    string        `json:"summary"`
	Warnings   []string      `json:"warnings,omitempty"`
}
