package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/potencialpi/sentiment-cx/adapters/jsonfile"
	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tidwall/gjson"
)

// Schema creates the responses table. It sticks to types both Postgres and SQLite accept.
const Schema = `CREATE TABLE IF NOT EXISTS survey_responses (
	survey_id       TEXT NOT NULL,
	position        INTEGER NOT NULL,
	response_id     TEXT NOT NULL DEFAULT '',
	responses       TEXT NOT NULL,
	sentiment_score DOUBLE PRECISION,
	created_at      TIMESTAMP,
	PRIMARY KEY (survey_id, position)
)`

// Open connects to Postgres
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError(err, "connect")
	}
	return db, nil
}

// responseRow is one stored response. Answers are kept as a JSON object.
type responseRow struct {
	Position       int             `db:"position"`
	ResponseID     string          `db:"response_id"`
	Responses      string          `db:"responses"`
	SentimentScore sql.NullFloat64 `db:"sentiment_score"`
	CreatedAt      sql.NullTime    `db:"created_at"`
}

// SurveySummary is one survey and how many responses it holds
type SurveySummary struct {
	SurveyID  core.SurveyID `db:"survey_id" json:"survey_id"`
	Responses int           `db:"responses" json:"responses"`
}

// ResponseRepository stores and loads survey responses
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository creates a repository on db. Queries are written with ?
// placeholders and rebound for the driver.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// EnsureSchema creates the responses table when missing
func (r *ResponseRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return errors.DatabaseError(err, "create schema")
	}
	return nil
}

// Save replaces the stored responses of a survey
func (r *ResponseRepository) Save(ctx context.Context, surveyID core.SurveyID, records []survey.ResponseRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM survey_responses WHERE survey_id = ?`), surveyID); err != nil {
		return errors.DatabaseError(err, "delete responses")
	}

	insert := r.db.Rebind(`INSERT INTO survey_responses
		(survey_id, position, response_id, responses, sentiment_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for i, rec := range records {
		answers, err := json.Marshal(rec.Responses)
		if err != nil {
			return fmt.Errorf("failed to marshal responses of record %d: %w", i, err)
		}
		var score sql.NullFloat64
		if rec.SentimentScore != nil {
			score = sql.NullFloat64{Float64: *rec.SentimentScore, Valid: true}
		}
		var created sql.NullTime
		if rec.CreatedAt != nil {
			created = sql.NullTime{Time: rec.CreatedAt.UTC(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insert, surveyID, i, rec.ID, string(answers), score, created); err != nil {
			return errors.DatabaseError(err, "insert response")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit")
	}
	return nil
}

// Load returns a survey's responses in their stored order
func (r *ResponseRepository) Load(ctx context.Context, surveyID core.SurveyID) ([]survey.ResponseRecord, error) {
	query := r.db.Rebind(`SELECT position, response_id, responses, sentiment_score, created_at
		FROM survey_responses
		WHERE survey_id = ?
		ORDER BY position`)

	var rows []responseRow
	if err := r.db.SelectContext(ctx, &rows, query, surveyID); err != nil {
		return nil, errors.DatabaseError(err, "select responses")
	}

	records := make([]survey.ResponseRecord, 0, len(rows))
	for _, row := range rows {
		if !gjson.Valid(row.Responses) {
			return nil, errors.WithCode(errors.CodeDatabaseError,
				fmt.Errorf("position %d: responses are not valid JSON", row.Position), "corrupt survey response")
		}
		rec := survey.ResponseRecord{
			ID:        row.ResponseID,
			Responses: jsonfile.ParseResponses(gjson.Parse(row.Responses)),
		}
		if row.SentimentScore.Valid {
			rec.SentimentScore = survey.WithSentiment(row.SentimentScore.Float64)
		}
		if row.CreatedAt.Valid {
			created := row.CreatedAt.Time.UTC()
			rec.CreatedAt = &created
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListSurveys returns every stored survey with its response count
func (r *ResponseRepository) ListSurveys(ctx context.Context) ([]SurveySummary, error) {
	var out []SurveySummary
	err := r.db.SelectContext(ctx, &out, `SELECT survey_id, COUNT(*) AS responses
		FROM survey_responses
		GROUP BY survey_id
		ORDER BY survey_id`)
	if err != nil {
		return nil, errors.DatabaseError(err, "list surveys")
	}
	return out, nil
}

// Source adapts one survey of the repository to ports.RecordSource
func (r *ResponseRepository) Source(surveyID core.SurveyID) ports.RecordSource {
	return &surveySource{repo: r, surveyID: surveyID}
}

type surveySource struct {
	repo     *ResponseRepository
	surveyID core.SurveyID
}

func (s *surveySource) Name() string {
	return "survey " + s.surveyID.String()
}

func (s *surveySource) Records(ctx context.Context) ([]survey.ResponseRecord, error) {
	records, err := s.repo.Load(ctx, s.surveyID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NotFound(s.Name())
	}
	return records, nil
}
