package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"kermittech/cv-screener/internal/models"
)

// SchemaKind selects which record shape a mapping is validated against.
type SchemaKind string

const (
	SchemaCV    SchemaKind = "cv"
	SchemaAudio SchemaKind = "audio"
)

type scoreRange struct {
	min, max float64
}

var (
	subScoreRange = scoreRange{1, 5}
	atsScoreRange = scoreRange{0, 100}
)

// recordSchema describes one record shape. Required keys are checked in
// declaration order so the first missing key is deterministic.
type recordSchema struct {
	required []string
	// nested lists the required sub-keys of mapping-valued fields.
	nested map[string][]string
	// nestedOrder fixes the order in which nested mappings are checked.
	nestedOrder []string
	// scores maps dotted score paths to their advisory range.
	scores      map[string]scoreRange
	scoreOrder  []string
	nonEmpty    []string
	shapeSchema map[string]interface{}
}

var cvSchema = recordSchema{
	required:    []string{"name", "education", "experience", "analysis", "summary", "interview_questions"},
	nestedOrder: []string{"analysis", "education", "experience"},
	nested: map[string][]string{
		"analysis":   models.AnalysisKeys,
		"education":  {"degree", "university"},
		"experience": {"last_title", "ats_score"},
	},
	scores:     cvScores(),
	scoreOrder: append(prefixed("analysis", models.AnalysisKeys), "experience.ats_score"),
	nonEmpty:   []string{"interview_questions"},
	shapeSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name":    map[string]interface{}{"type": "string"},
			"summary": map[string]interface{}{"type": "string"},
			"education": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"degree":     map[string]interface{}{"type": "string"},
					"university": map[string]interface{}{"type": "string"},
				},
			},
			"experience": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"last_title": map[string]interface{}{"type": "string"},
				},
			},
			"interview_questions": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	},
}

var audioSchema = recordSchema{
	required:    []string{"analysis", "red_flags", "summary"},
	nestedOrder: []string{"analysis"},
	nested: map[string][]string{
		"analysis": models.AudioAnalysisKeys,
	},
	scores:     audioScores(),
	scoreOrder: prefixed("analysis", models.AudioAnalysisKeys),
	shapeSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"summary": map[string]interface{}{"type": "string"},
			"red_flags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	},
}

func cvScores() map[string]scoreRange {
	scores := map[string]scoreRange{"experience.ats_score": atsScoreRange}
	for _, key := range models.AnalysisKeys {
		scores["analysis."+key] = subScoreRange
	}
	return scores
}

func audioScores() map[string]scoreRange {
	scores := map[string]scoreRange{}
	for _, key := range models.AudioAnalysisKeys {
		scores["analysis."+key] = subScoreRange
	}
	return scores
}

func prefixed(prefix string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + "." + k
	}
	return out
}

// ValidatedRecord is a mapping that passed schema validation. Exactly one
// of Candidate or Audio is set, according to Kind.
type ValidatedRecord struct {
	Kind      SchemaKind
	Candidate *models.CandidateRecord
	Audio     *models.AudioRecord
	Warnings  []string
}

type SchemaValidator interface {
	Validate(mapping map[string]any, kind SchemaKind) (*ValidatedRecord, error)
}

type schemaValidator struct {
	schemas map[SchemaKind]recordSchema
	shapes  map[SchemaKind]*gojsonschema.Schema
}

func NewSchemaValidator() (SchemaValidator, error) {
	v := &schemaValidator{
		schemas: map[SchemaKind]recordSchema{
			SchemaCV:    cvSchema,
			SchemaAudio: audioSchema,
		},
		shapes: make(map[SchemaKind]*gojsonschema.Schema),
	}

	for kind, schema := range v.schemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema.shapeSchema))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		v.shapes[kind] = compiled
	}

	return v, nil
}

// Validate checks, in order: required top-level keys, required sub-keys,
// numeric score fields, then string/array field shapes. Out-of-range scores
// are reported as warnings, never as violations.
func (v *schemaValidator) Validate(mapping map[string]any, kind SchemaKind) (*ValidatedRecord, error) {
	schema, ok := v.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema kind %q", kind)
	}

	for _, key := range schema.required {
		if _, present := mapping[key]; !present {
			return nil, &SchemaViolationError{Kind: kind, Reason: ViolationMissingKey, Key: key}
		}
	}

	for _, parent := range schema.nestedOrder {
		sub, ok := mapping[parent].(map[string]any)
		if !ok {
			return nil, &SchemaViolationError{
				Kind:   kind,
				Reason: ViolationBadType,
				Key:    parent,
				Detail: fmt.Sprintf("expected object, got %s", jsonTypeName(mapping[parent])),
			}
		}
		for _, key := range schema.nested[parent] {
			if _, present := sub[key]; !present {
				return nil, &SchemaViolationError{Kind: kind, Reason: ViolationMissingKey, Key: parent + "." + key}
			}
		}
	}

	scores := make(map[string]float64, len(schema.scoreOrder))
	var warnings []string
	for _, path := range schema.scoreOrder {
		parent, key, _ := strings.Cut(path, ".")
		raw := mapping[parent].(map[string]any)[key]
		num, ok := toNumber(raw)
		if !ok {
			return nil, &SchemaViolationError{
				Kind:   kind,
				Reason: ViolationBadType,
				Key:    path,
				Detail: fmt.Sprintf("expected number, got %s", jsonTypeName(raw)),
			}
		}
		scores[path] = num

		r := schema.scores[path]
		if num < r.min || num > r.max {
			warnings = append(warnings, fmt.Sprintf("%s=%s outside [%s, %s]", path, formatScore(num), formatScore(r.min), formatScore(r.max)))
		}
	}

	if err := v.checkShape(kind, mapping); err != nil {
		return nil, err
	}

	for _, key := range schema.nonEmpty {
		if list, _ := mapping[key].([]any); len(list) == 0 {
			return nil, &SchemaViolationError{Kind: kind, Reason: ViolationEmptyValue, Key: key}
		}
	}

	record := &ValidatedRecord{Kind: kind, Warnings: warnings}
	switch kind {
	case SchemaCV:
		record.Candidate = buildCandidate(mapping, scores, warnings)
	case SchemaAudio:
		record.Audio = buildAudio(mapping, scores, warnings)
	}
	return record, nil
}

func (v *schemaValidator) checkShape(kind SchemaKind, mapping map[string]any) error {
	result, err := v.shapes[kind].Validate(gojsonschema.NewGoLoader(mapping))
	if err != nil {
		return fmt.Errorf("failed to run %s shape check: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	return &SchemaViolationError{
		Kind:   kind,
		Reason: ViolationBadType,
		Key:    first.Field(),
		Detail: first.Description(),
	}
}

// toNumber accepts JSON numbers and strings that parse losslessly as a
// finite number ("4", " 3.5 "). Anything else is not a score.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// formatScore keeps huge or tiny model scores in exponent form.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func buildCandidate(m map[string]any, scores map[string]float64, warnings []string) *models.CandidateRecord {
	education := m["education"].(map[string]any)
	experience := m["experience"].(map[string]any)

	rec := &models.CandidateRecord{
		Name: m["name"].(string),
		Education: models.Education{
			Degree:     education["degree"].(string),
			University: education["university"].(string),
		},
		Experience: models.Experience{
			LastTitle: experience["last_title"].(string),
			ATSScore:  scores["experience.ats_score"],
		},
		Summary:            m["summary"].(string),
		InterviewQuestions: toStrings(m["interview_questions"]),
		Warnings:           warnings,
	}
	for _, key := range models.AnalysisKeys {
		rec.Analysis.Set(key, scores["analysis."+key])
	}
	return rec
}

func buildAudio(m map[string]any, scores map[string]float64, warnings []string) *models.AudioRecord {
	rec := &models.AudioRecord{
		RedFlags: toStrings(m["red_flags"]),
		Summary:  m["summary"].(string),
		Warnings: warnings,
	}
	for _, key := range models.AudioAnalysisKeys {
		rec.Analysis.Set(key, scores["analysis."+key])
	}
	return rec
}

func toStrings(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.(string))
	}
	return out
}
