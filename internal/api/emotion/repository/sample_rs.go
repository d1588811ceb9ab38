package emotionRepository

import (
	"JoyverseEmotion/internal/api/emotion"
	"JoyverseEmotion/internal/entity"
	contextPkg "JoyverseEmotion/pkg/context"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

type EmotionSampleDB struct {
	ID          string         `db:"id"`
	SessionID   string         `db:"session_id"`
	UserID      string         `db:"user_id"`
	RoundNumber int            `db:"round_number"`
	Emotion     string         `db:"emotion"`
	Confidence  float64        `db:"confidence"`
	Difficulty  string         `db:"difficulty"`
	Word        sql.NullString `db:"word"`
	TimeTakenMs sql.NullInt64  `db:"time_taken_ms"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *sampleRepository) CreateSample(c context.Context, sample entity.EmotionSample) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":            sample.ID,
		"session_id":    sample.SessionID,
		"user_id":       sample.UserID,
		"round_number":  sample.RoundNumber,
		"emotion":       sample.Emotion,
		"confidence":    sample.Confidence,
		"difficulty":    sample.Difficulty,
		"word":          sql.NullString{String: sample.Word, Valid: sample.Word != ""},
		"time_taken_ms": sample.TimeTakenMs,
		"created_at":    sample.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateSample, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateSample")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating emotion sample")
		return err
	}

	return nil
}

func (r *sampleRepository) GetSamplesBySession(c context.Context, sessionID string) ([]entity.EmotionSample, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []EmotionSampleDB

	query, args, err := sqlx.Named(queryGetSamplesBySession, map[string]interface{}{
		"session_id": sessionID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSamplesBySession named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSamplesBySession execution err")
		return nil, err
	}

	samples := make([]entity.EmotionSample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, r.makeEmotionSample(row))
	}

	return samples, nil
}

func (r *sampleRepository) GetLatestBySession(c context.Context, sessionID string) (entity.EmotionSample, error) {
	requestID := contextPkg.GetRequestID(c)
	var row EmotionSampleDB

	query, args, err := sqlx.Named(queryGetLatestBySession, map[string]interface{}{
		"session_id": sessionID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetLatestBySession named query preparation err")
		return entity.EmotionSample{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
			}).Warn("GetLatestBySession no rows found")
			return entity.EmotionSample{}, emotion.ErrLatestNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetLatestBySession execution err")
		return entity.EmotionSample{}, err
	}

	return r.makeEmotionSample(row), nil
}

func (r *sampleRepository) CountEmotionsBySession(c context.Context, sessionID string) ([]entity.EmotionCount, error) {
	requestID := contextPkg.GetRequestID(c)
	var counts []entity.EmotionCount

	query, args, err := sqlx.Named(queryCountEmotionsBySession, map[string]interface{}{
		"session_id": sessionID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEmotionsBySession named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &counts, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEmotionsBySession execution err")
		return nil, err
	}

	return counts, nil
}

func (r *sampleRepository) makeEmotionSample(row EmotionSampleDB) entity.EmotionSample {
	return entity.EmotionSample{
		ID:          row.ID,
		SessionID:   row.SessionID,
		UserID:      row.UserID,
		RoundNumber: row.RoundNumber,
		Emotion:     row.Emotion,
		Confidence:  row.Confidence,
		Difficulty:  row.Difficulty,
		Word:        row.Word.String,
		TimeTakenMs: row.TimeTakenMs.Int64,
		CreatedAt:   row.CreatedAt,
	}
}
