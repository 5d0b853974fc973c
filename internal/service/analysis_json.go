package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON returns the substring spanning the first '{' through the last
// '}' of s. Models wrap their JSON in prose or markdown fences often enough
// that the outermost brace-delimited span is the reliable payload boundary.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeModelJSON unmarshals raw into v. When the full string is not valid
// JSON it falls back to the outermost brace-delimited span before giving up
// with ErrInvalidResponse.
func decodeModelJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	directErr := json.Unmarshal([]byte(raw), v)
	if directErr == nil {
		return nil
	}

	span, ok := extractJSON(raw)
	if !ok {
		return fmt.Errorf("%w: no JSON object in response: %v", ErrInvalidResponse, directErr)
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}
	return nil
}

// DecodeAnalysis parses a model response into an Analysis. Clips missing
// either timestamp are rejected; unknown emotion labels are normalized to
// EmotionCalm and confidence scores are clamped to [0, 1]. An analysis with
// zero clips is valid: it means the model found nothing worth cutting.
func DecodeAnalysis(raw string) (*Analysis, error) {
	var analysis Analysis
	if err := decodeModelJSON(raw, &analysis); err != nil {
		return nil, err
	}

	for i := range analysis.Clips {
		clip := &analysis.Clips[i]
		if clip.StartTimestamp == "" || clip.EndTimestamp == "" {
			return nil, fmt.Errorf("%w: clip %d missing timestamps", ErrInvalidResponse, i)
		}
		clip.Emotion = normalizeEmotion(clip.Emotion)
		clip.ConfidenceScore = clampConfidence(clip.ConfidenceScore)
	}
	analysis.OverallEmotion = normalizeEmotion(analysis.OverallEmotion)

	return &analysis, nil
}

// DecodeEmotionReport parses a model response into an EmotionReport. A
// report needs at least one segment, and every segment needs text.
func DecodeEmotionReport(raw string) (*EmotionReport, error) {
	var report EmotionReport
	if err := decodeModelJSON(raw, &report); err != nil {
		return nil, err
	}

	if len(report.Segments) == 0 {
		return nil, fmt.Errorf("%w: no segments in response", ErrInvalidResponse)
	}
	for i := range report.Segments {
		seg := &report.Segments[i]
		if seg.Text == "" {
			return nil, fmt.Errorf("%w: segment %d missing text", ErrInvalidResponse, i)
		}
		seg.Emotion = normalizeEmotion(seg.Emotion)
		seg.Confidence = clampConfidence(seg.Confidence)
	}
	report.DominantEmotion = normalizeEmotion(report.DominantEmotion)

	return &report, nil
}

func normalizeEmotion(e Emotion) Emotion {
	normalized := Emotion(strings.ToLower(strings.TrimSpace(string(e))))
	if !normalized.IsValid() {
		return EmotionCalm
	}
	return normalized
}

func clampConfidence(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
