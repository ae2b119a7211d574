package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mediaup/internal/handoff"
	"mediaup/internal/store"
	"mediaup/internal/transcript"
	"mediaup/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTranscriber map[string][]transcript.Span

func (s scriptedTranscriber) Transcribe(_ context.Context, filename string, r io.Reader) ([]transcript.Span, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	spans, ok := s[filename]
	if !ok {
		return nil, errors.New("no audio track")
	}
	return spans, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []handoff.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg handoff.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

func newTestServer(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	swagger, err := LoadSpec(context.Background(), "")
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler(swagger))
	t.Cleanup(ts.Close)
	return ts
}

func fixedNow() time.Time {
	return time.Date(2025, 9, 15, 10, 15, 0, 0, time.UTC)
}

type formFile struct {
	field, name, content string
}

func postMultipart(t *testing.T, url string, files ...formFile) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decodeObject(t, resp.Body)
}

func decodeObject(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestLoadSpecEmbedded(t *testing.T) {
	swagger, err := LoadSpec(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, swagger.Paths.Find("/whispers/process_videos"))
	assert.Empty(t, swagger.Servers)
}

func TestLoadSpecMissingFile(t *testing.T) {
	_, err := LoadSpec(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestProcessVideo(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_video", formFile{"file", "alice_0915.wav", "12345"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "received alice_0915.wav (5 bytes)", body["transcription"])
}

func TestProcessVideoUnsupportedExtension(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_video", formFile{"file", "notes.txt", "hi"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "mp4")
}

func TestProcessVideoMissingField(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_video", formFile{"upload", "a.wav", "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, `field "file" is required`, body["error"])
}

func TestProcessVideoRejectsNonMultipart(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, _ := postJSON(t, ts.URL+"/whispers/process_video", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProcessVideosAssemblesMeeting(t *testing.T) {
	srv := New(store.NewMemory(), scriptedTranscriber{
		"alice_0915.webm": {{Text: "good morning", Start: 0}, {Text: "agreed", Start: 6.2}},
		"bob_0915.webm":   {{Text: "morning", Start: 1.5}, {Text: " ", Start: 3}},
	}, nil)
	srv.Now = fixedNow
	ts := newTestServer(t, srv)

	status, body := postMultipart(t, ts.URL+"/whispers/process_videos",
		formFile{"files", "alice_0915.webm", "aaaa"},
		formFile{"files", "bob_0915.webm", "bbbb"},
	)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "[0.0s] alice: good morning\n[1.5s] bob: morning\n[6.2s] alice: agreed", body["transcript"])
	assert.EqualValues(t, 3, body["total_segments"])
	assert.EqualValues(t, 2, body["processed_files"])
	assert.Equal(t, "meeting_transcript_20250915_101500.txt", body["suggested_filename"])
}

func TestProcessVideosStopsOnUnsupportedFile(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_videos",
		formFile{"files", "alice.webm", "a"},
		formFile{"files", "bob.wav", "b"},
	)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "bob.wav")
}

func TestProcessVideosTranscriberFailure(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), scriptedTranscriber{}, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_videos", formFile{"files", "alice.mp4", "a"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "file alice.mp4: no audio track", body["message"])
}

func TestProcessVideoAndDispatch(t *testing.T) {
	notifier := &recordingNotifier{}
	srv := New(store.NewMemory(), nil, notifier)
	srv.Now = fixedNow
	ts := newTestServer(t, srv)

	status, body := postMultipart(t, ts.URL+"/whispers/process_video2", formFile{"file", "standup.mp4", "abc"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "meeting summary dispatched", body["transcription"])

	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, "received standup.mp4 (3 bytes)", notifier.msgs[0].Text)
	assert.Equal(t, "standup.mp4", notifier.msgs[0].Source)
	assert.Equal(t, "2025-09-15T10:15:00Z", notifier.msgs[0].CreatedAt)
}

func TestProcessVideoAndDispatchFailure(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, &recordingNotifier{err: errors.New("publish timeout")}))

	status, body := postMultipart(t, ts.URL+"/whispers/process_video2", formFile{"file", "standup.mp4", "abc"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "publish timeout", body["details"])
}

func TestProcessVideoAndDispatchWithoutNotifier(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, body := postMultipart(t, ts.URL+"/whispers/process_video2", formFile{"file", "standup.mp4", "abc"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "received standup.mp4 (3 bytes)", body["transcription"])
}

func TestUploadClientAgainstStub(t *testing.T) {
	srv := New(store.NewMemory(), nil, nil)
	srv.Now = fixedNow
	ts := newTestServer(t, srv)

	dir := t.TempDir()
	alice := filepath.Join(dir, "alice_0915.webm")
	bob := filepath.Join(dir, "bob_0915.mp4")
	require.NoError(t, os.WriteFile(alice, []byte("0123456789"), 0o644))
	require.NoError(t, os.WriteFile(bob, nil, 0o644))

	res := upload.Upload(context.Background(), upload.Request{
		Endpoint: ts.URL + "/whispers/process_videos",
		Files:    []upload.File{{Field: "files", Path: alice}, {Field: "files", Path: bob}},
		Timeout:  5 * time.Second,
	})
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	assert.Equal(t, http.StatusOK, res.StatusCode)

	text, ok := res.Field("transcript")
	require.True(t, ok)
	assert.Equal(t, "[0.0s] alice: received alice_0915.webm (10 bytes)\n[0.0s] bob: received bob_0915.mp4 (0 bytes)", text)
	name, _ := res.Field("suggested_filename")
	assert.Equal(t, "meeting_transcript_20250915_101500.txt", name)
}

func TestListMembersPaging(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(
		store.Member{ID: "1", Name: "alice"},
		store.Member{ID: "2", Name: "bob"},
		store.Member{ID: "3", Name: "carol"},
	), nil, nil))

	var page []store.Member
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/members/?skip=1&limit=1", &page))
	assert.Equal(t, []store.Member{{ID: "2", Name: "bob"}}, page)

	page = nil
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/members/", &page))
	assert.Len(t, page, 3)

	page = nil
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/members/?skip=10", &page))
	assert.Empty(t, page)
}

func TestListMembersValidatesQuery(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	for _, query := range []string{"limit=0", "limit=101", "skip=-1", "limit=ten"} {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/members/?"+query, nil), query)
	}
}

func TestReportsLifecycle(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	status, data := postJSON(t, ts.URL+"/reports/insert",
		`{"title":"Weekly sync","participants":["alice","bob"],"content":"notes","uploadedAt":"2025-09-15 10:15:00"}`)
	require.Equal(t, http.StatusCreated, status, string(data))
	var created store.Report
	require.NoError(t, json.Unmarshal(data, &created))
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.UploadedAt)
	assert.Equal(t, []string{"alice", "bob"}, created.Participants)

	status, _ = postJSON(t, ts.URL+"/reports/insert", `{"title":"Retro","participants":["carol"],"content":"more notes"}`)
	require.Equal(t, http.StatusCreated, status)

	var all []store.Report
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/reports/list", &all))
	assert.Len(t, all, 2)

	var mine []store.Report
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/reports/me?id=bob", &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Weekly sync", mine[0].Title)
}

func TestInsertReportValidation(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	for name, body := range map[string]string{
		"missing title":   `{"participants":["a"],"content":"c"}`,
		"empty title":     `{"title":"","participants":["a"],"content":"c"}`,
		"wrong type":      `{"title":"t","participants":"a","content":"c"}`,
		"not json":        `title=t`,
		"missing content": `{"title":"t","participants":["a"]}`,
	} {
		status, _ := postJSON(t, ts.URL+"/reports/insert", body)
		assert.Equal(t, http.StatusBadRequest, status, name)
	}
}

func TestReportsForRequiresID(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/reports/me", nil))
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, New(store.NewMemory(), nil, nil))

	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", nil))

	var ready map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/readyz", &ready))
	assert.Equal(t, "ok", ready["status"])
}
