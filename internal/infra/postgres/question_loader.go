package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads subject catalogs stored as JSONB.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) ListSubjects(ctx context.Context) ([]domain.SubjectInfo, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, display_name, jsonb_array_length(data) FROM question_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var infos []domain.SubjectInfo
	for rows.Next() {
		var info domain.SubjectInfo
		if err := rows.Scan(&info.ID, &info.DisplayName, &info.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (l *QuestionLoader) GetQuestions(ctx context.Context, subjectID string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, subjectID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	return questions, nil
}
