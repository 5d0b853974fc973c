package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/mocks"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// testLogger returns a logger that swallows output so test runs stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// handlerFixture assembles the stack handlers sit on: real services over
// in-memory stores, a running scheduler, and temp-dir media storage, with
// mocks standing in for everything that leaves the process (database,
// ffmpeg, AI providers).
type handlerFixture struct {
	users       *mocks.MockUserStore
	videos      *mocks.MockVideoStore
	media       *storage.Store
	runner      *mocks.MockMediaRunner
	scheduler   *task.Scheduler
	jwt         *mocks.MockJWTService
	hasher      *mocks.MockPasswordHasher
	analyzer    *mocks.MockAnalyzer
	transcriber *mocks.MockTranscriber
	dbMock      sqlmock.Sqlmock

	userService     service.UserService
	videoService    service.VideoService
	analysisService service.AnalysisService

	// userID is the authenticated caller for requests built with jsonRequest
	// and authRequest.
	userID uuid.UUID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	media, err := storage.NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	runner := mocks.NewMockMediaRunner()
	runner.WriteOutputs = true

	scheduler := task.NewScheduler(task.DefaultConfig(), testLogger(), nil)
	scheduler.Start()
	t.Cleanup(scheduler.Stop)

	users := mocks.NewMockUserStore()
	videos := mocks.NewMockVideoStore()
	jwt := &mocks.MockJWTService{Token: "access-token", RefreshToken: "refresh-token"}
	hasher := mocks.NewMockPasswordHasher()

	analyzer := &mocks.MockAnalyzer{
		ProviderName: "gemini",
		Analysis: &service.Analysis{
			Clips: []service.ClipSuggestion{
				{
					StartTimestamp:  "00:05",
					EndTimestamp:    "00:35",
					Caption:         "The hook that carries the video",
					Hook:            "You won't believe what happens at 30 seconds",
					Emotion:         service.EmotionEnergetic,
					ConfidenceScore: 0.91,
				},
			},
			OverallEmotion: service.EmotionEnergetic,
			ContentSummary: "A fast-paced product walkthrough.",
		},
		Report: &service.EmotionReport{
			Segments: []service.EmotionSegment{
				{Text: "Welcome back!", Emotion: service.EmotionEnergetic, Confidence: 0.8},
			},
			DominantEmotion: service.EmotionEnergetic,
			EmotionSummary:  "Consistently upbeat.",
		},
	}
	transcriber := &mocks.MockTranscriber{Transcript: "welcome back everyone"}

	userService, err := service.NewUserService(users, hasher, jwt, db, testLogger())
	require.NoError(t, err)

	videoService, err := service.NewVideoService(videos, media, runner, scheduler, db, 0, testLogger())
	require.NoError(t, err)

	analysisService, err := service.NewAnalysisService(
		analyzer, transcriber, videos, media, runner, scheduler, testLogger())
	require.NoError(t, err)

	return &handlerFixture{
		users:           users,
		videos:          videos,
		media:           media,
		runner:          runner,
		scheduler:       scheduler,
		jwt:             jwt,
		hasher:          hasher,
		analyzer:        analyzer,
		transcriber:     transcriber,
		dbMock:          dbMock,
		userService:     userService,
		videoService:    videoService,
		analysisService: analysisService,
		userID:          uuid.New(),
	}
}

// seedReadyVideo stores a small source file and registers a probed video
// owned by the fixture's authenticated user.
func (f *handlerFixture) seedReadyVideo(t *testing.T) *domain.Video {
	t.Helper()
	return f.seedReadyVideoFor(t, f.userID)
}

// seedReadyVideoFor seeds a ready video for an arbitrary owner.
func (f *handlerFixture) seedReadyVideoFor(t *testing.T, ownerID uuid.UUID) *domain.Video {
	t.Helper()

	rel, _, err := f.media.SaveUpload("clip.mp4", strings.NewReader("source"), 0)
	require.NoError(t, err)

	video, err := domain.NewVideo(ownerID, "Test Clip", "clip.mp4", rel, "video/mp4", 6)
	require.NoError(t, err)
	video.Status = domain.VideoStatusReady
	video.DurationSeconds = 10
	video.Width = 1920
	video.Height = 1080

	f.videos.Put(video)
	return video
}

// jsonRequest builds an authenticated JSON request for the fixture's user.
func (f *handlerFixture) jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return withUserID(req, f.userID)
}

// authRequest builds an authenticated bodyless request for the fixture's
// user.
func (f *handlerFixture) authRequest(method, target string) *http.Request {
	return withUserID(httptest.NewRequest(method, target, nil), f.userID)
}

// waitTerminal blocks until the task reaches a terminal status and returns
// the final snapshot.
func (f *handlerFixture) waitTerminal(t *testing.T, id uuid.UUID) task.Snapshot {
	t.Helper()

	var snap task.Snapshot
	require.Eventually(t, func() bool {
		s, err := f.scheduler.Status(id)
		if err != nil {
			return false
		}
		snap = s
		return s.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "task should reach a terminal status")

	return snap
}

// decodeSubmitted asserts the 202 acknowledgement shape and returns the
// queued task's ID.
func decodeSubmitted(t *testing.T, w *httptest.ResponseRecorder) uuid.UUID {
	t.Helper()

	require.Equal(t, http.StatusAccepted, w.Code, "body: %s", w.Body.String())

	var resp TaskSubmittedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEqual(t, uuid.Nil, resp.TaskID)
	assert.Equal(t, task.StatusPending, resp.Status)
	return resp.TaskID
}
