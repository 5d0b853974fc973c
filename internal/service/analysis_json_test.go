package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysisJSON = `{
	"clips": [
		{
			"start_timestamp": "00:15",
			"end_timestamp": "00:45",
			"caption": "The moment everything clicked",
			"hook": "Wait until you see this",
			"engagement_reason": "Strong emotional payoff",
			"emotion": "energetic",
			"confidence_score": 0.92
		},
		{
			"start_timestamp": "01:30",
			"end_timestamp": "02:00",
			"caption": "An honest reflection",
			"hook": "Nobody talks about this",
			"engagement_reason": "Relatable struggle",
			"emotion": "emotional",
			"confidence_score": 0.81
		}
	],
	"overall_emotion": "motivational",
	"content_summary": "A creator walks through their journey.",
	"creator_feedback": "Strong storytelling throughout.",
	"tips": ["Lead with the payoff", "Tighten the intro"]
}`

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "prose around object",
			input: "Here is the analysis:\n{\"a\": 1}\nHope that helps!",
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "markdown fenced object",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: "I could not produce JSON for that.",
			ok:    false,
		},
		{
			name:  "closing brace before opening",
			input: "} nothing {",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := extractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeAnalysis(t *testing.T) {
	t.Parallel()

	t.Run("clean JSON", func(t *testing.T) {
		t.Parallel()

		analysis, err := DecodeAnalysis(sampleAnalysisJSON)
		require.NoError(t, err)

		require.Len(t, analysis.Clips, 2)
		assert.Equal(t, "00:15", analysis.Clips[0].StartTimestamp)
		assert.Equal(t, EmotionEnergetic, analysis.Clips[0].Emotion)
		assert.InDelta(t, 0.92, analysis.Clips[0].ConfidenceScore, 0.001)
		assert.Equal(t, EmotionMotivational, analysis.OverallEmotion)
		assert.Equal(t, []string{"Lead with the payoff", "Tighten the intro"}, analysis.Tips)
	})

	t.Run("JSON wrapped in prose and fences", func(t *testing.T) {
		t.Parallel()

		raw := "Sure! Here is what I found:\n```json\n" + sampleAnalysisJSON + "\n```"
		analysis, err := DecodeAnalysis(raw)
		require.NoError(t, err)
		assert.Len(t, analysis.Clips, 2)
	})

	t.Run("zero clips is a valid result", func(t *testing.T) {
		t.Parallel()

		analysis, err := DecodeAnalysis(`{
			"clips": [],
			"overall_emotion": "calm",
			"content_summary": "Quiet footage with no spoken highlights.",
			"creator_feedback": "Consider narrating key moments.",
			"tips": []
		}`)
		require.NoError(t, err)
		assert.Empty(t, analysis.Clips)
	})

	t.Run("normalizes unknown and cased emotions", func(t *testing.T) {
		t.Parallel()

		analysis, err := DecodeAnalysis(`{
			"clips": [
				{
					"start_timestamp": "00:00",
					"end_timestamp": "00:30",
					"caption": "c",
					"hook": "h",
					"engagement_reason": "r",
					"emotion": "Energetic",
					"confidence_score": 1.7
				},
				{
					"start_timestamp": "00:30",
					"end_timestamp": "01:00",
					"caption": "c",
					"hook": "h",
					"engagement_reason": "r",
					"emotion": "triumphant",
					"confidence_score": -0.2
				}
			],
			"overall_emotion": "JOYFUL"
		}`)
		require.NoError(t, err)

		assert.Equal(t, EmotionEnergetic, analysis.Clips[0].Emotion)
		assert.Equal(t, 1.0, analysis.Clips[0].ConfidenceScore)
		assert.Equal(t, EmotionCalm, analysis.Clips[1].Emotion)
		assert.Equal(t, 0.0, analysis.Clips[1].ConfidenceScore)
		assert.Equal(t, EmotionCalm, analysis.OverallEmotion)
	})

	t.Run("clip missing timestamps", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeAnalysis(`{
			"clips": [{"caption": "no bounds", "emotion": "funny", "confidence_score": 0.5}]
		}`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Contains(t, err.Error(), "clip 0 missing timestamps")
	})

	t.Run("unparseable response", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeAnalysis("the model refused to answer")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeAnalysis("   ")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("truncated JSON", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeAnalysis(`{"clips": [{"start_timestamp": "00:00",`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestDecodeEmotionReport(t *testing.T) {
	t.Parallel()

	t.Run("valid report", func(t *testing.T) {
		t.Parallel()

		report, err := DecodeEmotionReport(`{
			"segments": [
				{"text": "I can't believe we made it!", "emotion": "energetic", "confidence": 0.9},
				{"text": "It took years of quiet work.", "emotion": "Serious", "confidence": 0.7,
				 "start_time": "00:10", "end_time": "00:25"}
			],
			"dominant_emotion": "motivational",
			"emotion_summary": "Builds from reflection to celebration."
		}`)
		require.NoError(t, err)

		require.Len(t, report.Segments, 2)
		assert.Equal(t, EmotionSerious, report.Segments[1].Emotion)
		assert.Equal(t, "00:10", report.Segments[1].StartTime)
		assert.Equal(t, EmotionMotivational, report.DominantEmotion)
	})

	t.Run("no segments", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeEmotionReport(`{"segments": [], "dominant_emotion": "calm"}`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Contains(t, err.Error(), "no segments")
	})

	t.Run("segment missing text", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeEmotionReport(`{"segments": [{"emotion": "funny", "confidence": 0.8}]}`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Contains(t, err.Error(), "segment 0 missing text")
	})

	t.Run("unparseable response", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeEmotionReport("no json here")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestEmotionIsValid(t *testing.T) {
	t.Parallel()

	for _, e := range []Emotion{
		EmotionEnergetic, EmotionEmotional, EmotionMotivational,
		EmotionSerious, EmotionFunny, EmotionCalm,
	} {
		assert.True(t, e.IsValid(), "expected %q to be valid", e)
	}

	assert.False(t, Emotion("").IsValid())
	assert.False(t, Emotion("ecstatic").IsValid())
	assert.False(t, Emotion("Energetic").IsValid(), "IsValid is case sensitive")
}
