// Package stub is a local stand-in for the meeting transcription service.
// It speaks the same wire contract as the production API so the mediaup
// commands can be exercised end to end without a GPU host.
package stub

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediaup/internal/handoff"
	"mediaup/internal/health"
	"mediaup/internal/store"
	"mediaup/internal/transcript"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	middleware "github.com/oapi-codegen/chi-middleware"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

//go:embed openapi.yaml
var embeddedSpec []byte

var (
	singleExtensions  = []string{".mp4", ".webm", ".wav"}
	meetingExtensions = []string{".mp4", ".webm"}
)

const (
	defaultMaxMemory = 32 << 20
	defaultLimit     = 10
)

// Store is the persistence the stub needs for members and reports.
type Store interface {
	Ping(ctx context.Context) error
	ListMembers(ctx context.Context, skip, limit int) ([]store.Member, error)
	InsertReport(ctx context.Context, r store.Report) (store.Report, error)
	ListReports(ctx context.Context) ([]store.Report, error)
	ReportsFor(ctx context.Context, participant string) ([]store.Report, error)
}

type Server struct {
	Store       Store
	Transcriber transcript.Transcriber
	// Notifier receives transcripts from process_video2. Nil disables handoff.
	Notifier handoff.Notifier
	// MaxMemory is the multipart in-memory threshold; larger parts spill to disk.
	MaxMemory int64
	Now       func() time.Time
}

func New(st Store, tr transcript.Transcriber, n handoff.Notifier) *Server {
	if tr == nil {
		tr = transcript.Describer{}
	}
	return &Server{Store: st, Transcriber: tr, Notifier: n, MaxMemory: defaultMaxMemory, Now: time.Now}
}

// LoadSpec reads the OpenAPI document from path, or the embedded copy when
// path is empty, and validates it.
func LoadSpec(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	var (
		swagger *openapi3.T
		err     error
	)
	if path != "" {
		swagger, err = loader.LoadFromFile(path)
	} else {
		swagger, err = loader.LoadFromData(embeddedSpec)
	}
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := swagger.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	// Match on paths only; the stub is served from whatever host it runs on.
	swagger.Servers = nil
	return swagger, nil
}

// Handler wires every route. JSON routes are validated against swagger;
// upload routes are not, so request bodies are never buffered for validation.
func (s *Server) Handler(swagger *openapi3.T) http.Handler {
	router := chi.NewRouter()
	health.Register(router, health.DefaultTimeout, s.readinessChecks())

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "meeting transcription stub", http.StatusOK)
	})
	router.Route("/whispers", func(r chi.Router) {
		r.Post("/process_video", s.processVideo)
		r.Post("/process_video2", s.processVideoAndDispatch)
		r.Post("/process_videos", s.processVideos)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.OapiRequestValidator(swagger))
		r.Get("/members/", s.listMembers)
		r.Post("/reports/insert", s.insertReport)
		r.Get("/reports/list", s.listReports)
		r.Get("/reports/me", s.reportsFor)
	})
	return router
}

// readinessChecks covers the store and, when it can report on itself, the
// handoff notifier.
func (s *Server) readinessChecks() map[string]health.Checker {
	checks := map[string]health.Checker{"store": s.Store.Ping}
	if r, ok := s.Notifier.(interface{ Ready(context.Context) error }); ok {
		checks["handoff"] = r.Ready
	}
	return checks
}

type transcriptionResponse struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription,omitempty"`
	Message       string `json:"message,omitempty"`
}

type meetingResponse struct {
	Status            string `json:"status"`
	Transcript        string `json:"transcript,omitempty"`
	TotalSegments     int    `json:"total_segments"`
	ProcessedFiles    int    `json:"processed_files"`
	SuggestedFilename string `json:"suggested_filename,omitempty"`
	Message           string `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type newReport struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Content      string   `json:"content"`
}

func (s *Server) processVideo(w http.ResponseWriter, r *http.Request) {
	_, text, ok := s.transcribeSingle(w, r)
	if !ok {
		return
	}
	writeJSON(w, transcriptionResponse{Status: "success", Transcription: text}, http.StatusOK)
}

func (s *Server) processVideoAndDispatch(w http.ResponseWriter, r *http.Request) {
	source, text, ok := s.transcribeSingle(w, r)
	if !ok {
		return
	}
	if s.Notifier == nil {
		writeJSON(w, transcriptionResponse{Status: "success", Transcription: text}, http.StatusOK)
		return
	}
	msg := handoff.Message{Text: text, Source: source, CreatedAt: s.Now().UTC().Format(time.RFC3339)}
	if err := s.Notifier.Notify(r.Context(), msg); err != nil {
		slog.Error("transcript handoff failed", "err", err)
		writeJSON(w, errorResponse{Error: "transcript handoff failed", Details: err.Error()}, http.StatusBadGateway)
		return
	}
	writeJSON(w, transcriptionResponse{Status: "success", Transcription: "meeting summary dispatched"}, http.StatusOK)
}

// transcribeSingle handles the one-file endpoints and returns the uploaded
// filename with its transcription. It writes the response itself unless it
// returns ok.
func (s *Server) transcribeSingle(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	headers, ok := s.parseFiles(w, r, "file")
	if !ok {
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	fh := headers[0]
	if !transcript.Supported(fh.Filename, singleExtensions) {
		writeJSON(w, transcriptionResponse{Status: "error", Message: "only mp4, webm or wav files are supported"}, http.StatusOK)
		return "", "", false
	}
	spans, err := s.transcribe(r.Context(), fh)
	if err != nil {
		slog.Error("transcription failed", "file", fh.Filename, "err", err)
		writeJSON(w, transcriptionResponse{Status: "error", Message: err.Error()}, http.StatusOK)
		return "", "", false
	}

	parts := make([]string, 0, len(spans))
	for _, sp := range spans {
		if t := strings.TrimSpace(sp.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return fh.Filename, strings.Join(parts, " "), true
}

func (s *Server) processVideos(w http.ResponseWriter, r *http.Request) {
	headers, ok := s.parseFiles(w, r, "files")
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()
	slog.Info("processing meeting recordings", "files", len(headers))

	var segments []transcript.Segment
	for i, fh := range headers {
		slog.Debug("processing recording", "index", i+1, "total", len(headers), "file", fh.Filename)
		if !transcript.Supported(fh.Filename, meetingExtensions) {
			writeJSON(w, meetingResponse{
				Status:  "error",
				Message: fmt.Sprintf("file %s: only mp4 or webm files are supported", fh.Filename),
			}, http.StatusOK)
			return
		}
		spans, err := s.transcribe(r.Context(), fh)
		if err != nil {
			writeJSON(w, meetingResponse{
				Status:  "error",
				Message: fmt.Sprintf("file %s: %v", fh.Filename, err),
			}, http.StatusOK)
			return
		}
		segments = append(segments, transcript.Attribute(fh.Filename, spans)...)
	}

	writeJSON(w, meetingResponse{
		Status:            "success",
		Transcript:        transcript.Assemble(segments),
		TotalSegments:     len(segments),
		ProcessedFiles:    len(headers),
		SuggestedFilename: transcript.SuggestedFilename(s.Now()),
	}, http.StatusOK)
}

// parseFiles parses the multipart form and returns the parts under field.
func (s *Server) parseFiles(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	maxMemory := s.MaxMemory
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeJSON(w, errorResponse{Error: "invalid multipart body", Details: err.Error()}, http.StatusBadRequest)
		return nil, false
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		writeJSON(w, errorResponse{Error: fmt.Sprintf("field %q is required", field)}, http.StatusUnprocessableEntity)
		return nil, false
	}
	return headers, true
}

func (s *Server) transcribe(ctx context.Context, fh *multipart.FileHeader) ([]transcript.Span, error) {
	var file openapi_types.File
	file.InitFromMultipart(fh)
	rc, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.Transcriber.Transcribe(ctx, file.Filename(), rc)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	members, err := s.Store.ListMembers(r.Context(), skip, limit)
	if err != nil {
		slog.Error("list members failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	writeJSON(w, members, http.StatusOK)
}

func (s *Server) insertReport(w http.ResponseWriter, r *http.Request) {
	var req newReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	report, err := s.Store.InsertReport(r.Context(), store.Report{
		Title:        req.Title,
		Participants: req.Participants,
		Content:      req.Content,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateReport) {
			writeError(w, http.StatusConflict, "report already exists")
			return
		}
		slog.Error("insert report failed", "err", err)
		writeError(w, http.StatusInternalServerError, "document could not be created")
		return
	}
	writeJSON(w, report, http.StatusCreated)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.Store.ListReports(r.Context())
	if err != nil {
		slog.Error("list reports failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, reports, http.StatusOK)
}

func (s *Server) reportsFor(w http.ResponseWriter, r *http.Request) {
	reports, err := s.Store.ReportsFor(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		slog.Error("reports for participant failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, reports, http.StatusOK)
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, map[string]string{"detail": message}, status)
}
