package service

import (
	"bytes"
	"fmt"
	"text/template"
)

// systemPrompt is the editing persona shared by every provider. The wording
// matters less than the constraints: clip length bounds, meaning
// preservation, and the emotion-to-edit-style mapping.
const systemPrompt = `You are an expert short-form video editor.

Your job is to turn long videos into short, high-retention clips for
Instagram Reels, YouTube Shorts, and TikTok.

Follow these rules:
1. Identify the most engaging, high-retention moments.
2. Cut clips between 15 and 60 seconds.
3. Write concise, catchy captions with correct punctuation.
4. Preserve the original meaning and emotion of the speaker.
5. Avoid unnecessary cuts and dead air.
6. Include timestamps, caption text, and tone with every suggestion.
7. Prioritize viewer attention in the first 3 seconds.

Emotional awareness:
- Detect the emotion in the speech and match the edit style to it:
  emotional content gets softer cuts and a slower pace, energetic content
  gets fast cuts and bold captions.
- Never change what the speaker meant. Avoid embarrassing cuts and handle
  sensitive content with care.

Be precise and creator-focused. The creator's emotion outranks virality.`

// creatorSupportPrompt is appended to the system prompt when a request has
// CreatorSupportMode set.
const creatorSupportPrompt = `Creator support mode is enabled:
- Give gentle, encouraging feedback.
- Prefer less aggressive edits and more respectful captions.
- Preserve authenticity over virality.
- Handle personal stories with care and focus on emotional resonance.`

// analysisSchema spells out the JSON shape Analysis decodes. Keeping it in
// the prompt keeps weaker models honest about field names.
const analysisSchema = `Respond with JSON only, in exactly this shape:
{
    "clips": [
        {
            "start_timestamp": "MM:SS",
            "end_timestamp": "MM:SS",
            "caption": "Short caption for the clip",
            "hook": "Attention-grabbing opening line",
            "engagement_reason": "Why this moment is engaging",
            "emotion": "energetic|emotional|motivational|serious|funny|calm",
            "confidence_score": 0.0-1.0
        }
    ],
    "overall_emotion": "dominant emotion",
    "content_summary": "Brief summary of the video content",
    "creator_feedback": "Encouraging feedback for the creator",
    "tips": ["Tip 1", "Tip 2"]
}`

var analysisPromptTmpl = template.Must(template.New("analysis").Parse(
	`Analyze this video transcript and suggest {{.ClipCount}} clips for {{.Platform}}.

Target tone: {{.Tone}}
Platform: {{.Platform}}

Transcript:
{{.Transcript}}

` + analysisSchema))

var clipsPromptTmpl = template.Must(template.New("clips").Parse(
	`Generate {{.ClipCount}} clip suggestions for {{.Platform}}.
Tone: {{.Tone}}
{{- if .CustomPrompt}}

Creator's request: {{.CustomPrompt}}
{{- end}}

Transcript:
{{.Transcript}}

` + analysisSchema))

var emotionsPromptTmpl = template.Must(template.New("emotions").Parse(
	`Analyze the emotional content of this transcript.
Break it into segments and identify the emotion in each.
{{- if .IncludeTimestamps}}
Attach approximate start_time and end_time offsets (MM:SS) to every segment.
{{- end}}

Transcript:
{{.Transcript}}

Respond with JSON only, in exactly this shape:
{
    "segments": [
        {
            "text": "segment text",
            "emotion": "energetic|emotional|motivational|serious|funny|calm",
            "confidence": 0.0-1.0
{{- if .IncludeTimestamps}},
            "start_time": "MM:SS",
            "end_time": "MM:SS"
{{- end}}
        }
    ],
    "dominant_emotion": "overall dominant emotion",
    "emotion_summary": "Brief description of the emotional journey"
}`))

// emotionsPromptData is the data passed to the emotions prompt template.
type emotionsPromptData struct {
	Transcript        string
	IncludeTimestamps bool
}

// SystemPrompt returns the provider-independent system prompt, extended with
// the creator-support addendum when requested.
func SystemPrompt(creatorSupportMode bool) string {
	if creatorSupportMode {
		return systemPrompt + "\n\n" + creatorSupportPrompt
	}
	return systemPrompt
}

// AnalysisPrompt renders the user prompt for AnalyzeTranscript.
// Returns ErrEmptyTranscript when the request carries no transcript.
func AnalysisPrompt(req AnalysisRequest) (string, error) {
	return renderPrompt(analysisPromptTmpl, req.Transcript, req.Normalize())
}

// ClipsPrompt renders the user prompt for SuggestClips, including the
// creator's custom instruction when present.
func ClipsPrompt(req AnalysisRequest) (string, error) {
	return renderPrompt(clipsPromptTmpl, req.Transcript, req.Normalize())
}

// EmotionsPrompt renders the user prompt for DetectEmotions.
func EmotionsPrompt(transcript string, includeTimestamps bool) (string, error) {
	return renderPrompt(emotionsPromptTmpl, transcript, emotionsPromptData{
		Transcript:        transcript,
		IncludeTimestamps: includeTimestamps,
	})
}

func renderPrompt(tmpl *template.Template, transcript string, data any) (string, error) {
	if transcript == "" {
		return "", ErrEmptyTranscript
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %q: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
