package services

import (
	"fmt"
	"strings"
)

// DefaultExcerptBudget is the maximum number of characters of document text
// placed in a prompt.
const DefaultExcerptBudget = 3000

const categoryPlaceholder = "{job_category}"

// JobCategories is the fixed set of roles a candidate can be screened for.
var JobCategories = []string{
	"Data Engineer",
	"Data Analyst",
	"AI Engineer",
	"UI/UX Developer",
}

func IsValidJobCategory(category string) bool {
	for _, c := range JobCategories {
		if c == category {
			return true
		}
	}
	return false
}

// CVTemplate asks the model for a CandidateRecord.
const CVTemplate = "Generate VALID JSON analysis using this EXACT structure:\n" +
	"```json\n" +
	`{
  "name": "Full Name",
  "education": {
    "degree": "Highest Degree",
    "university": "University Name"
  },
  "experience": {
    "last_title": "Most Recent Job Title",
    "ats_score": 0-100
  },
  "analysis": {
    "technical_experience": 1-5,
    "project_relevance": 1-5,
    "extra_curricular": 1-5,
    "business_acumen": 1-5,
    "communication": 1-5,
    "leadership": 1-5,
    "innovative": 1-5,
    "cultural_fit": 1-5
  },
  "summary": "50-word professional summary",
  "interview_questions": ["Question 1", "..."]
}
Guidelines:
- Cultural Fit: Alignment with our no-micromanagement philosophy
- Innovation: Evidence of novel solutions/approaches
- Leadership: Formal roles or demonstrated initiative
- Convert all scores to numbers
- Be critical - we want top 10% candidates

Include Kermit Tech's core values explicitly:
- Emphasize experience with secure application development
- Look for evidence of self-direction
- Prioritize candidates with data literacy certifications
- Reward innovative problem-solving examples
` + "```\n\nAnalyze this CV for a {job_category} position:"

// AudioTemplate asks the model for an AudioRecord from an interview transcript.
const AudioTemplate = "Generate VALID JSON analysis of this interview transcript using this EXACT structure:\n" +
	"```json\n" +
	`{
  "analysis": {
    "communication_score": 1-5,
    "technical_depth": 1-5,
    "confidence": 1-5,
    "keyword_usage": 1-5
  },
  "red_flags": ["Concern 1", "..."],
  "summary": "50-word summary of the interview"
}
Guidelines:
- Communication: clarity and structure of answers
- Technical depth: accuracy and detail when discussing the role's core skills
- Keyword usage: natural use of domain vocabulary, not buzzword stuffing
- red_flags may be an empty list
- Convert all scores to numbers
` + "```\n\nAnalyze this interview for a {job_category} position:"

const (
	cvExcerptLabel    = "\n\nCV Text:\n"
	audioExcerptLabel = "\n\nTranscript:\n"
)

type PromptBuilder struct {
	budget int
}

func NewPromptBuilder(budget int) *PromptBuilder {
	if budget <= 0 {
		budget = DefaultExcerptBudget
	}
	return &PromptBuilder{budget: budget}
}

// BuildPrompt substitutes the job category into the template and appends the
// excerpt, cut to the character budget. The category is not validated here.
func (pb *PromptBuilder) BuildPrompt(template, category, excerpt string) string {
	return pb.build(template, category, "", excerpt)
}

// BuildPromptWithGuidelines inserts retrieved role guidelines between the
// instructions and the excerpt.
func (pb *PromptBuilder) BuildPromptWithGuidelines(template, category, guidelines, excerpt string) string {
	return pb.build(template, category, guidelines, excerpt)
}

func (pb *PromptBuilder) build(template, category, guidelines, excerpt string) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(template, categoryPlaceholder, category))

	if guidelines = strings.TrimSpace(guidelines); guidelines != "" {
		fmt.Fprintf(&b, "\n\nRole guidelines for %s:\n%s", category, guidelines)
	}

	label := cvExcerptLabel
	if template == AudioTemplate {
		label = audioExcerptLabel
	}
	b.WriteString(label)
	b.WriteString(TruncateExcerpt(excerpt, pb.budget))
	return b.String()
}

// TruncateExcerpt returns the first limit characters of text.
func TruncateExcerpt(text string, limit int) string {
	return truncateRunes(text, limit)
}

// BuildGuidelineQuery creates the retrieval query for a role.
func (pb *PromptBuilder) BuildGuidelineQuery(category string) string {
	return fmt.Sprintf("Screening criteria, required skills and red flags for a %s", category)
}

// FormatGuidelines joins retrieved guideline chunks into one section.
func FormatGuidelines(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Guideline %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
