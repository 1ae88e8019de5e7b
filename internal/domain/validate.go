package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Limits for host-uploaded question sets.
const (
	MaxCustomQuestions = 500
	MaxFieldLength     = 5000
	MaxOptions         = 10
	MinOptions         = 2
)

// CustomSetResult is the outcome of validating an uploaded set. Partially
// valid sets are accepted: the valid subset is usable and the per-entry
// problems are reported as warnings.
type CustomSetResult struct {
	Questions []Question
	Warnings  []string
}

// rawCustomQuestion tolerates loosely shaped uploads before validation.
type rawCustomQuestion struct {
	Type        string            `json:"type"`
	Question    string            `json:"question"`
	Options     []json.RawMessage `json:"options"`
	Answer      json.RawMessage   `json:"answer"`
	Explanation string            `json:"explanation"`
}

// ValidateCustomSet checks an uploaded question array, sanitizing free text
// and enforcing structural limits. It fails with a validation rejection only
// when the payload is malformed or no entry survives.
func ValidateCustomSet(raw []byte) (CustomSetResult, error) {
	var entries []rawCustomQuestion
	if err := json.Unmarshal(raw, &entries); err != nil {
		return CustomSetResult{}, Reject(KindValidation, "invalid format: expected an array of questions")
	}
	if len(entries) > MaxCustomQuestions {
		return CustomSetResult{}, Reject(KindValidation,
			fmt.Sprintf("too many questions: maximum is %d per set", MaxCustomQuestions))
	}

	result := CustomSetResult{}
	for i, entry := range entries {
		question, err := validateCustomQuestion(entry)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("question %d: %v", i+1, err))
			continue
		}
		result.Questions = append(result.Questions, question)
	}

	if len(result.Questions) == 0 && len(result.Warnings) > 0 {
		return CustomSetResult{}, Reject(KindValidation, strings.Join(result.Warnings, "; "))
	}
	if len(result.Questions) == 0 {
		return CustomSetResult{}, Reject(KindValidation, "question set is empty")
	}
	return result, nil
}

func validateCustomQuestion(entry rawCustomQuestion) (Question, error) {
	if entry.Type == "" || entry.Question == "" {
		return Question{}, fmt.Errorf("missing required fields (type, question)")
	}
	kind := QuestionKind(entry.Type)
	if !kind.Valid() {
		return Question{}, fmt.Errorf("invalid type %q", entry.Type)
	}

	question := Question{
		Kind:        kind,
		Prompt:      SanitizeText(entry.Question),
		Explanation: SanitizeText(entry.Explanation),
	}
	if !kind.HasCorrectAnswer() {
		return question, nil
	}

	if len(entry.Options) < MinOptions {
		return Question{}, fmt.Errorf("invalid options array")
	}
	options := make([]string, 0, len(entry.Options))
	for _, opt := range entry.Options {
		options = append(options, SanitizeText(coerceString(opt)))
		if len(options) == MaxOptions {
			break
		}
	}
	question.Options = options

	var key AnswerKey
	if len(entry.Answer) == 0 || key.UnmarshalJSON(entry.Answer) != nil {
		return Question{}, fmt.Errorf("invalid answer")
	}
	switch kind {
	case KindMultiSelect:
		if !key.Multi || len(key.Indices) == 0 {
			return Question{}, fmt.Errorf("invalid answer index set")
		}
		for _, index := range key.Indices {
			if index < 0 || index >= len(options) {
				return Question{}, fmt.Errorf("answer index out of range")
			}
		}
	default:
		if key.Multi || key.Index < 0 || key.Index >= len(options) {
			return Question{}, fmt.Errorf("invalid answer index")
		}
	}
	question.Answer = &key
	return question, nil
}

// coerceString renders a JSON scalar as text, matching the permissive intake
// of option entries.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), "\n\t ")
}

// SanitizeText escapes HTML metacharacters and caps free text length.
var textEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

func SanitizeText(s string) string {
	escaped := textEscaper.Replace(s)
	if len(escaped) > MaxFieldLength {
		return escaped[:MaxFieldLength]
	}
	return escaped
}
