package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	base := SystemPrompt(false)
	assert.Contains(t, base, "short-form video editor")
	assert.Contains(t, base, "15 and 60 seconds")
	assert.NotContains(t, base, "Creator support mode")

	supportive := SystemPrompt(true)
	assert.True(t, strings.HasPrefix(supportive, base),
		"support mode should extend the base prompt, not replace it")
	assert.Contains(t, supportive, "Creator support mode is enabled")
	assert.Contains(t, supportive, "authenticity over virality")
}

func TestAnalysisPrompt(t *testing.T) {
	t.Parallel()

	t.Run("renders request fields and schema", func(t *testing.T) {
		t.Parallel()

		prompt, err := AnalysisPrompt(AnalysisRequest{
			Transcript: "welcome back to the channel",
			Platform:   "youtube_shorts",
			Tone:       "educational",
			ClipCount:  5,
		})
		require.NoError(t, err)

		assert.Contains(t, prompt, "suggest 5 clips for youtube_shorts")
		assert.Contains(t, prompt, "Target tone: educational")
		assert.Contains(t, prompt, "welcome back to the channel")
		assert.Contains(t, prompt, `"start_timestamp": "MM:SS"`)
		assert.Contains(t, prompt, `"confidence_score"`)
	})

	t.Run("applies defaults for unset fields", func(t *testing.T) {
		t.Parallel()

		prompt, err := AnalysisPrompt(AnalysisRequest{Transcript: "hello"})
		require.NoError(t, err)

		assert.Contains(t, prompt, "suggest 3 clips for instagram_reels")
		assert.Contains(t, prompt, "Target tone: viral")
	})

	t.Run("rejects empty transcript", func(t *testing.T) {
		t.Parallel()

		_, err := AnalysisPrompt(AnalysisRequest{Platform: "tiktok"})
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})
}

func TestClipsPrompt(t *testing.T) {
	t.Parallel()

	t.Run("includes creator request when present", func(t *testing.T) {
		t.Parallel()

		prompt, err := ClipsPrompt(AnalysisRequest{
			Transcript:   "today we talk about focus",
			CustomPrompt: "find the part about morning routines",
		})
		require.NoError(t, err)

		assert.Contains(t, prompt, "Creator's request: find the part about morning routines")
		assert.Contains(t, prompt, "today we talk about focus")
		assert.Contains(t, prompt, `"clips"`)
	})

	t.Run("omits creator request line when absent", func(t *testing.T) {
		t.Parallel()

		prompt, err := ClipsPrompt(AnalysisRequest{Transcript: "today we talk about focus"})
		require.NoError(t, err)

		assert.NotContains(t, prompt, "Creator's request")
	})

	t.Run("rejects empty transcript", func(t *testing.T) {
		t.Parallel()

		_, err := ClipsPrompt(AnalysisRequest{CustomPrompt: "anything"})
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})
}

func TestEmotionsPrompt(t *testing.T) {
	t.Parallel()

	t.Run("without timestamps", func(t *testing.T) {
		t.Parallel()

		prompt, err := EmotionsPrompt("I am so excited about this", false)
		require.NoError(t, err)

		assert.Contains(t, prompt, "I am so excited about this")
		assert.Contains(t, prompt, `"dominant_emotion"`)
		assert.NotContains(t, prompt, "start_time")
	})

	t.Run("with timestamps", func(t *testing.T) {
		t.Parallel()

		prompt, err := EmotionsPrompt("I am so excited about this", true)
		require.NoError(t, err)

		assert.Contains(t, prompt, "Attach approximate start_time and end_time")
		assert.Contains(t, prompt, `"start_time": "MM:SS"`)
	})

	t.Run("rejects empty transcript", func(t *testing.T) {
		t.Parallel()

		_, err := EmotionsPrompt("", true)
		assert.ErrorIs(t, err, ErrEmptyTranscript)
	})
}
