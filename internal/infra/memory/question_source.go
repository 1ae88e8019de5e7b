package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quizroom-service/internal/domain"
)

// StaticQuestionSource is a map-backed question provider (tests/demos).
type StaticQuestionSource struct {
	subjects map[string][]domain.Question
}

func NewStaticQuestionSource(subjects map[string][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{subjects: subjects}
}

func (s *StaticQuestionSource) ListSubjects(_ context.Context) ([]domain.SubjectInfo, error) {
	infos := make([]domain.SubjectInfo, 0, len(s.subjects))
	for id, questions := range s.subjects {
		infos = append(infos, domain.SubjectInfo{
			ID:            id,
			DisplayName:   SubjectDisplayName(id),
			QuestionCount: len(questions),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (s *StaticQuestionSource) GetQuestions(_ context.Context, subjectID string) ([]domain.Question, error) {
	if questions, ok := s.subjects[subjectID]; ok {
		return questions, nil
	}
	return nil, fmt.Errorf("subject %q not found", subjectID)
}

// FileQuestionSource loads subject catalogs from a questions directory: a
// mapping file of subject key to filename, then one JSON question array per
// subject. A subject that fails to load is skipped rather than failing the
// whole catalog.
type FileQuestionSource struct {
	subjects map[string][]domain.Question
}

func NewFileQuestionSource(dir, mappingFile string) (*FileQuestionSource, error) {
	data, err := os.ReadFile(filepath.Join(dir, mappingFile))
	if err != nil {
		return nil, fmt.Errorf("read question mapping: %w", err)
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse question mapping: %w", err)
	}

	source := &FileQuestionSource{subjects: make(map[string][]domain.Question)}
	for subject, filename := range mapping {
		raw, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			log.Printf("questions: skipping subject %s: %v", subject, err)
			continue
		}
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err != nil {
			log.Printf("questions: skipping subject %s: %v", subject, err)
			continue
		}
		source.subjects[subject] = questions
		log.Printf("questions: loaded %d for subject %s", len(questions), subject)
	}
	return source, nil
}

func (s *FileQuestionSource) ListSubjects(ctx context.Context) ([]domain.SubjectInfo, error) {
	return (&StaticQuestionSource{subjects: s.subjects}).ListSubjects(ctx)
}

func (s *FileQuestionSource) GetQuestions(ctx context.Context, subjectID string) ([]domain.Question, error) {
	return (&StaticQuestionSource{subjects: s.subjects}).GetQuestions(ctx, subjectID)
}

// SubjectDisplayName renders a subject key for display: "world-history"
// becomes "World History".
func SubjectDisplayName(id string) string {
	words := strings.Split(id, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
