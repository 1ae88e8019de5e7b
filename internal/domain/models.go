package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// QuestionKind is the closed set of question variants. Multiple-choice and
// true/false keep distinct wire names for the catalogs but behave identically
// (single correct index).
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindTrueFalse      QuestionKind = "truefalse"
	KindMultiSelect    QuestionKind = "multi-choice"
	KindOpenText       QuestionKind = "text"
	KindFlashcard      QuestionKind = "flashcard"
	KindDecision       QuestionKind = "decision"
)

// Valid reports whether k is one of the supported kinds.
func (k QuestionKind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindTrueFalse, KindMultiSelect, KindOpenText, KindFlashcard, KindDecision:
		return true
	}
	return false
}

// HasCorrectAnswer reports whether the kind carries a correctness notion.
// Open-text, flashcard, and decision questions are never graded.
func (k QuestionKind) HasCorrectAnswer() bool {
	switch k {
	case KindMultipleChoice, KindTrueFalse, KindMultiSelect:
		return true
	}
	return false
}

// AnswerKey is the correct answer for graded kinds: a single option index,
// or a set of indices for multi-choice.
type AnswerKey struct {
	Index   int
	Indices []int
	Multi   bool
}

func SingleKey(index int) *AnswerKey {
	return &AnswerKey{Index: index}
}

func MultiKey(indices ...int) *AnswerKey {
	return &AnswerKey{Indices: indices, Multi: true}
}

// MarshalJSON emits the key in catalog form: a bare number or an array.
func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.Multi {
		if k.Indices == nil {
			return json.Marshal([]int{})
		}
		return json.Marshal(k.Indices)
	}
	return json.Marshal(k.Index)
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		k.Multi = true
		return json.Unmarshal(trimmed, &k.Indices)
	}
	k.Multi = false
	return json.Unmarshal(trimmed, &k.Index)
}

// Question is an immutable quiz question, catalog-provided or host-uploaded.
type Question struct {
	Kind        QuestionKind `json:"type"`
	Prompt      string       `json:"question"`
	Options     []string     `json:"options,omitempty"`
	Answer      *AnswerKey   `json:"answer,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// Sanitized returns a copy safe to send to players and presenters: the
// correct answer is stripped for graded kinds until reveal.
func (q Question) Sanitized() Question {
	if q.Kind.HasCorrectAnswer() {
		q.Answer = nil
	}
	return q
}

// AnswerValueKind discriminates the shape of a submitted answer.
type AnswerValueKind int

const (
	ValueIndex AnswerValueKind = iota
	ValueIndexSet
	ValueText
)

// AnswerValue is a player's submitted answer: an option index, an index set,
// or free text (open questions and the flashcard "viewed" sentinel).
type AnswerValue struct {
	Kind    AnswerValueKind
	Index   int
	Indices []int
	Text    string
}

func IndexValue(index int) AnswerValue {
	return AnswerValue{Kind: ValueIndex, Index: index}
}

func IndexSetValue(indices ...int) AnswerValue {
	return AnswerValue{Kind: ValueIndexSet, Indices: indices}
}

func TextValue(text string) AnswerValue {
	return AnswerValue{Kind: ValueText, Text: text}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueIndexSet:
		if v.Indices == nil {
			return json.Marshal([]int{})
		}
		return json.Marshal(v.Indices)
	case ValueText:
		return json.Marshal(v.Text)
	default:
		return json.Marshal(v.Index)
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty answer value")
	}
	switch trimmed[0] {
	case '[':
		v.Kind = ValueIndexSet
		return json.Unmarshal(trimmed, &v.Indices)
	case '"':
		v.Kind = ValueText
		return json.Unmarshal(trimmed, &v.Text)
	default:
		v.Kind = ValueIndex
		return json.Unmarshal(trimmed, &v.Index)
	}
}

// CheckAnswer grades a submitted value against the question. The result is
// nil for kinds without a correctness notion.
func CheckAnswer(q Question, v AnswerValue) *bool {
	switch q.Kind {
	case KindMultipleChoice, KindTrueFalse:
		correct := q.Answer != nil && !q.Answer.Multi &&
			v.Kind == ValueIndex && v.Index == q.Answer.Index
		return &correct
	case KindMultiSelect:
		correct := q.Answer != nil && q.Answer.Multi &&
			v.Kind == ValueIndexSet && sameIndexSet(v.Indices, q.Answer.Indices)
		return &correct
	}
	return nil
}

// sameIndexSet compares two index slices as sets (order-independent).
func sameIndexSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Player is a participant identity scoped to one room.
type Player struct {
	Name string `json:"name"`
	// Score only grows through correct timed answers and resets to zero when
	// a new game starts in the room.
	Score    int    `json:"score"`
	ClientID string `json:"clientId"`
	// ExternalID is an opaque client-persisted identifier used for moderation
	// lookups. It never leaves the server.
	ExternalID string `json:"-"`
}

// Answer is a single player's response to the current question.
type Answer struct {
	Value       AnswerValue `json:"answer"`
	Correct     *bool       `json:"correct"`
	PlayerName  string      `json:"playerName,omitempty"`
	SubmittedAt time.Time   `json:"timestamp"`
	// Awarded is fixed at submission time so repeated reveals report the same
	// score instead of recomputing it.
	Awarded int `json:"-"`
}

// SubjectInfo describes a loadable question set.
type SubjectInfo struct {
	ID            string `json:"id"`
	DisplayName   string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

// BanRecord describes an active IP or client-identifier ban.
type BanRecord struct {
	Reason     string    `json:"reason"`
	PlayerName string    `json:"playerName,omitempty"`
	BannedAt   time.Time `json:"bannedAt"`
	// UnbanDate is nil for permanent bans.
	UnbanDate *time.Time `json:"unbanDate,omitempty"`
}

// Expired reports whether a timed ban has lapsed.
func (b BanRecord) Expired(now time.Time) bool {
	return b.UnbanDate != nil && !b.UnbanDate.After(now)
}

// BanRequest is a host-submitted request for moderation review.
type BanRequest struct {
	PlayerName  string    `json:"playerName"`
	ExternalID  string    `json:"uuid"`
	PlayerIP    string    `json:"playerIP"`
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requestedBy"`
	RoomCode    string    `json:"roomCode"`
	Timestamp   time.Time `json:"timestamp"`
}
