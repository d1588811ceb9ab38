package emotionRepository

const (
	queryCreateSample = `
		INSERT INTO emotion_samples (
			id,
			session_id,
			user_id,
			round_number,
			emotion,
			confidence,
			difficulty,
			word,
			time_taken_ms,
			created_at
		) VALUES (
			:id,
			:session_id,
			:user_id,
			:round_number,
			:emotion,
			:confidence,
			:difficulty,
			:word,
			:time_taken_ms,
			:created_at
		)
	`

	queryGetSamplesBySession = `
		SELECT
			id,
			session_id,
			user_id,
			round_number,
			emotion,
			confidence,
			difficulty,
			word,
			time_taken_ms,
			created_at
		FROM emotion_samples
		WHERE session_id = :session_id
		ORDER BY round_number ASC, created_at ASC
	`

	queryGetLatestBySession = `
		SELECT
			id,
			session_id,
			user_id,
			round_number,
			emotion,
			confidence,
			difficulty,
			word,
			time_taken_ms,
			created_at
		FROM emotion_samples
		WHERE session_id = :session_id
		ORDER BY created_at DESC
		LIMIT 1
	`

	queryCountEmotionsBySession = `
		SELECT
			emotion,
			COUNT(*) AS count,
			AVG(confidence) AS avg_confidence
		FROM emotion_samples
		WHERE session_id = :session_id
		GROUP BY emotion
		ORDER BY count DESC, emotion ASC
	`
)
