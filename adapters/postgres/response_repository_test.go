package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestRepository(t *testing.T) *ResponseRepository {
	t.Helper()
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewResponseRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestResponseRepository_SaveAndLoad(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	records := []survey.ResponseRecord{
		{
			ID: "r1",
			Responses: map[string]survey.Answer{
				"nps":      survey.NumberAnswer(9),
				"plan":     survey.TextAnswer("pro"),
				"channels": survey.ChoicesAnswer("email", "chat"),
			},
			SentimentScore: survey.WithSentiment(0.5),
			CreatedAt:      &created,
		},
		{Responses: map[string]survey.Answer{"nps": survey.TextAnswer("7")}},
	}

	require.NoError(t, repo.Save(ctx, "s1", records))

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "r1", loaded[0].ID)
	assert.Equal(t, 9.0, loaded[0].Responses["nps"].Number())
	assert.Equal(t, "pro", loaded[0].Responses["plan"].Text())
	assert.Equal(t, []string{"email", "chat"}, loaded[0].Responses["channels"].Choices())
	require.NotNil(t, loaded[0].SentimentScore)
	assert.Equal(t, 0.5, *loaded[0].SentimentScore)
	require.NotNil(t, loaded[0].CreatedAt)
	assert.True(t, created.Equal(*loaded[0].CreatedAt))

	assert.Empty(t, loaded[1].ID)
	assert.Equal(t, "7", loaded[1].Responses["nps"].Text())
	assert.Nil(t, loaded[1].SentimentScore)
	assert.Nil(t, loaded[1].CreatedAt)
}

func TestResponseRepository_SaveReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	config := testkit.DefaultSurveyConfig()
	config.RespondentCount = 25
	require.NoError(t, repo.Save(ctx, "s1", testkit.NewSurveyGenerator(config).Generate()))

	config.RespondentCount = 10
	generated := testkit.NewSurveyGenerator(config).Generate()
	require.NoError(t, repo.Save(ctx, "s1", generated))
	require.NoError(t, repo.Save(ctx, "s2", generated[:3]))

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 10)
	for i := range generated {
		assert.Equal(t, generated[i].ID, loaded[i].ID)
		assert.Equal(t, len(generated[i].Responses), len(loaded[i].Responses))
	}

	surveys, err := repo.ListSurveys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SurveySummary{{SurveyID: "s1", Responses: 10}, {SurveyID: "s2", Responses: 3}}, surveys)
}

func TestResponseRepository_Source(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", []survey.ResponseRecord{
		{ID: "a", Responses: map[string]survey.Answer{"q": survey.TextAnswer("x")}},
	}))

	source := repo.Source(core.SurveyID("s1"))
	assert.Equal(t, "survey s1", source.Name())
	records, err := source.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = repo.Source("missing").Records(ctx)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestResponseRepository_CorruptRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO survey_responses (survey_id, position, response_id, responses) VALUES ('bad', 0, 'x', '{oops')`)
	require.NoError(t, err)

	_, err = repo.Load(ctx, "bad")
	assert.True(t, errors.HasCode(err, errors.CodeDatabaseError))
}
