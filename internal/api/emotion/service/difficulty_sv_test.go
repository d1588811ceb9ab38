package emotionService

import (
	"JoyverseEmotion/internal/api/emotion"
	"JoyverseEmotion/internal/entity"
	"JoyverseEmotion/pkg/utils"
	"errors"
	"testing"

	"golang.org/x/net/context"
)

func TestNextDifficulty(t *testing.T) {
	tests := []struct {
		name        string
		current     entity.Difficulty
		emotion     entity.Emotion
		confidence  float64
		want        entity.Difficulty
		wantChanged bool
	}{
		{"happy easy at 0.7 stays", entity.DifficultyEasy, entity.EmotionHappy, 0.7, entity.DifficultyEasy, false},
		{"happy easy above 0.7 steps up", entity.DifficultyEasy, entity.EmotionHappy, 0.71, entity.DifficultyMedium, true},
		{"happy medium at 0.8 stays", entity.DifficultyMedium, entity.EmotionHappy, 0.8, entity.DifficultyMedium, false},
		{"happy medium above 0.8 steps up", entity.DifficultyMedium, entity.EmotionHappy, 0.81, entity.DifficultyHard, true},
		{"happy hard stays", entity.DifficultyHard, entity.EmotionHappy, 0.99, entity.DifficultyHard, false},
		{"sad hard at 0.6 stays", entity.DifficultyHard, entity.EmotionSad, 0.6, entity.DifficultyHard, false},
		{"sad hard above 0.6 steps down", entity.DifficultyHard, entity.EmotionSad, 0.61, entity.DifficultyMedium, true},
		{"angry medium at 0.7 stays", entity.DifficultyMedium, entity.EmotionAngry, 0.7, entity.DifficultyMedium, false},
		{"fear medium above 0.7 steps down", entity.DifficultyMedium, entity.EmotionFear, 0.75, entity.DifficultyEasy, true},
		{"sad easy stays", entity.DifficultyEasy, entity.EmotionSad, 0.99, entity.DifficultyEasy, false},
		{"neutral never changes", entity.DifficultyMedium, entity.EmotionNeutral, 0.99, entity.DifficultyMedium, false},
		{"surprise never changes", entity.DifficultyEasy, entity.EmotionSurprise, 0.99, entity.DifficultyEasy, false},
		{"disgust never changes", entity.DifficultyHard, entity.EmotionDisgust, 0.99, entity.DifficultyHard, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := NextDifficulty(tt.current, tt.emotion, tt.confidence)
			if got != tt.want || changed != tt.wantChanged {
				t.Errorf("NextDifficulty() = (%s, %v), want (%s, %v)", got, changed, tt.want, tt.wantChanged)
			}
		})
	}
}

func TestDifficultyForEmotion(t *testing.T) {
	tests := []struct {
		emotion    entity.Emotion
		confidence float64
		want       entity.Difficulty
	}{
		{entity.EmotionHappy, 0.7, entity.DifficultyMedium},
		{entity.EmotionHappy, 0.71, entity.DifficultyHard},
		{entity.EmotionSad, 0.6, entity.DifficultyEasy},
		{entity.EmotionAngry, 0.61, entity.DifficultyMedium},
		{entity.EmotionNeutral, 0.99, entity.DifficultyMedium},
		{entity.EmotionSurprise, 0.1, entity.DifficultyMedium},
	}

	for _, tt := range tests {
		if got := DifficultyForEmotion(tt.emotion, tt.confidence); got != tt.want {
			t.Errorf("DifficultyForEmotion(%s, %v) = %s, want %s", tt.emotion, tt.confidence, got, tt.want)
		}
	}
}

func TestRecordSampleAdaptsDifficulty(t *testing.T) {
	svc := NewEmotionService(quietLogger(), &fakePredictor{available: true}, nil, landmarkModel(),
		memoryRepository{store: &memoryStore{}}, nil, utils.New())

	recorded, err := svc.RecordSample(context.Background(), emotion.RecordSampleRequest{
		SessionID: "s1", UserID: "kid", Emotion: "happy", Confidence: 0.9, Difficulty: "medium",
	})
	if err != nil {
		t.Fatalf("RecordSample: %v", err)
	}
	if recorded.Sample.Difficulty != "medium" || recorded.NextDifficulty != entity.DifficultyHard || !recorded.DifficultyChanged {
		t.Errorf("unexpected outcome %+v", recorded)
	}

	recorded, err = svc.RecordSample(context.Background(), emotion.RecordSampleRequest{
		SessionID: "s1", UserID: "kid", Emotion: "sad", Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("RecordSample: %v", err)
	}
	if recorded.Sample.Difficulty != "easy" || recorded.NextDifficulty != entity.DifficultyEasy || recorded.DifficultyChanged {
		t.Errorf("missing difficulty should default to easy, got %+v", recorded)
	}

	_, err = svc.RecordSample(context.Background(), emotion.RecordSampleRequest{
		SessionID: "s1", UserID: "kid", Emotion: "sad", Difficulty: "extreme",
	})
	if !errors.Is(err, emotion.ErrInvalidDifficulty) {
		t.Errorf("expected ErrInvalidDifficulty, got %v", err)
	}
}

func TestSuggestDifficulty(t *testing.T) {
	svc := NewEmotionService(quietLogger(), &fakePredictor{available: true}, nil, landmarkModel(), nil, nil, utils.New())

	high := 0.75
	got, err := svc.SuggestDifficulty(context.Background(), emotion.DifficultyRequest{Emotion: "Happy", Confidence: &high})
	if err != nil || got != entity.DifficultyHard {
		t.Errorf("SuggestDifficulty(happy, 0.75) = %s, %v", got, err)
	}

	got, err = svc.SuggestDifficulty(context.Background(), emotion.DifficultyRequest{Emotion: "sad"})
	if err != nil || got != entity.DifficultyEasy {
		t.Errorf("missing confidence should count as 0.5, got %s, %v", got, err)
	}

	if _, err := svc.SuggestDifficulty(context.Background(), emotion.DifficultyRequest{Emotion: "bored"}); !errors.Is(err, emotion.ErrInvalidEmotion) {
		t.Errorf("expected ErrInvalidEmotion, got %v", err)
	}
}
