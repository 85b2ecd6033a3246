package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/uqlabs/core"
	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/internal/settings"
	"pkt.systems/uqlabs/schema"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 4 << 20
)

// Server serves the JSON API and the event stream.
type Server struct {
	cfg      Config
	service  core.Service
	settings settings.Service
	hub      *Hub
	basePath string
}

// NewServer constructs an HTTP server. settingsSvc may be nil, in which case
// the settings routes answer 404.
func NewServer(cfg Config, service core.Service, settingsSvc settings.Service, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub(0)
	}
	return &Server{
		cfg:      cfg,
		service:  service,
		settings: settingsSvc,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/notebooks", s.handleNotebooks)
	mux.HandleFunc("/api/notebooks/activate", s.handleActivate)
	mux.HandleFunc("/api/notebook", s.handleNotebook)
	mux.HandleFunc("/api/notebook/save", s.handleSave)
	mux.HandleFunc("/api/notebook/run-all", s.handleRunAll)

	mux.HandleFunc("/api/cells", s.handleAddCell)
	mux.HandleFunc("/api/cells/delete", s.handleDeleteCell)
	mux.HandleFunc("/api/cells/content", s.handleCellContent)
	mux.HandleFunc("/api/cells/language", s.handleCellLanguage)
	mux.HandleFunc("/api/cells/skip", s.handleToggleSkip)
	mux.HandleFunc("/api/cells/run", s.handleRunCell)
	mux.HandleFunc("/api/cells/preview", s.handlePreview)
	mux.HandleFunc("/api/prewarm", s.handlePrewarm)

	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/job", s.handleJob)
	mux.HandleFunc("/api/backends", s.handleBackends)

	mux.HandleFunc("/api/chats", s.handleChats)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chats/delete", s.handleDeleteChat)
	mux.HandleFunc("/api/chats/send", s.handleSendMessage)
	mux.HandleFunc("/api/models", s.handleModels)

	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/settings/keys", s.handleSettingsKey)
	mux.HandleFunc("/api/settings/models", s.handleSettingsModel)

	mux.HandleFunc("/api/stream", s.handleStream)

	return mountBasePath(s.basePath, withRequestLogging(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type notebookPayload struct {
	NotebookID schema.NotebookID `json:"notebook_id"`
	Name       string            `json:"name"`
}

func (s *Server) handleNotebooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := s.service.ListNotebooks(r.Context(), schema.ListNotebooksRequest{})
		if err != nil {
			s.fail(w, r, "http notebooks list failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notebooks": resp.Notebooks, "active": resp.Active})
	case http.MethodPost:
		var payload notebookPayload
		if !s.decode(w, r, &payload) {
			return
		}
		resp, err := s.service.CreateNotebook(r.Context(), schema.CreateNotebookRequest{Name: payload.Name})
		if err != nil {
			s.fail(w, r, "http notebook create failed", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"notebook": resp.Notebook})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload notebookPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.ActivateNotebook(r.Context(), schema.ActivateNotebookRequest{NotebookID: payload.NotebookID})
	if err != nil {
		s.fail(w, r, "http notebook activate failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notebook": resp.Notebook})
}

func (s *Server) handleNotebook(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := schema.NotebookID(strings.TrimSpace(r.URL.Query().Get("id")))
	resp, err := s.service.GetNotebook(r.Context(), schema.GetNotebookRequest{NotebookID: id})
	if err != nil {
		s.fail(w, r, "http notebook get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notebook": resp.Notebook})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload notebookPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.SaveNotebook(r.Context(), schema.SaveNotebookRequest{NotebookID: payload.NotebookID})
	if err != nil {
		s.fail(w, r, "http notebook save failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notebook": resp.Notebook})
}

type cellPayload struct {
	NotebookID schema.NotebookID `json:"notebook_id"`
	CellID     schema.CellID     `json:"cell_id"`
	Kind       string            `json:"kind"`
	Content    *string           `json:"content"`
	Language   string            `json:"language"`
}

func (s *Server) handleAddCell(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	kind, err := schema.ParseCellKind(payload.Kind)
	if err != nil {
		s.fail(w, r, "http cell add rejected", err)
		return
	}
	resp, err := s.service.AddCell(r.Context(), schema.AddCellRequest{NotebookID: payload.NotebookID, Kind: kind})
	if err != nil {
		s.fail(w, r, "http cell add failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"cell": resp.Cell})
}

func (s *Server) handleDeleteCell(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.DeleteCell(r.Context(), schema.DeleteCellRequest{NotebookID: payload.NotebookID, CellID: payload.CellID})
	if err != nil {
		s.fail(w, r, "http cell delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": resp.Deleted})
}

func (s *Server) handleCellContent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	if payload.Content == nil {
		s.fail(w, r, "http cell content rejected", fmt.Errorf("%w: content is required", schema.ErrInvalidRequest))
		return
	}
	resp, err := s.service.UpdateCellContent(r.Context(), schema.UpdateCellContentRequest{
		NotebookID: payload.NotebookID,
		CellID:     payload.CellID,
		Content:    *payload.Content,
	})
	if err != nil {
		s.fail(w, r, "http cell content failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": resp.Cell})
}

func (s *Server) handleCellLanguage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	language, err := schema.ParseLanguage(payload.Language)
	if err != nil {
		s.fail(w, r, "http cell language rejected", err)
		return
	}
	resp, err := s.service.UpdateCellLanguage(r.Context(), schema.UpdateCellLanguageRequest{
		NotebookID: payload.NotebookID,
		CellID:     payload.CellID,
		Language:   language,
	})
	if err != nil {
		s.fail(w, r, "http cell language failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": resp.Cell})
}

func (s *Server) handleToggleSkip(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.ToggleSkip(r.Context(), schema.ToggleSkipRequest{NotebookID: payload.NotebookID, CellID: payload.CellID})
	if err != nil {
		s.fail(w, r, "http cell skip failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": resp.Cell})
}

type runPayload struct {
	NotebookID schema.NotebookID `json:"notebook_id"`
	CellID     schema.CellID     `json:"cell_id"`
	Context    string            `json:"context"`
	Mode       string            `json:"mode"`
	Shots      int               `json:"shots"`
	Noise      struct {
		Enabled  bool    `json:"enabled"`
		Strength float64 `json:"strength"`
		Metrics  bool    `json:"metrics"`
	} `json:"noise"`
}

func (p runPayload) options() (schema.RunContext, schema.SimulationMode, schema.NoiseOptions, error) {
	runCtx := schema.RunContextNotebook
	switch schema.RunContext(strings.ToLower(strings.TrimSpace(p.Context))) {
	case "", schema.RunContextNotebook:
	case schema.RunContextSimulation:
		runCtx = schema.RunContextSimulation
	default:
		return "", "", schema.NoiseOptions{}, fmt.Errorf("%w: unknown run context %q", schema.ErrInvalidRequest, p.Context)
	}
	var mode schema.SimulationMode
	if strings.TrimSpace(p.Mode) != "" {
		parsed, err := schema.ParseSimulationMode(p.Mode)
		if err != nil {
			return "", "", schema.NoiseOptions{}, err
		}
		mode = parsed
	}
	if p.Shots < 0 {
		return "", "", schema.NoiseOptions{}, fmt.Errorf("%w: shots must not be negative", schema.ErrInvalidRequest)
	}
	noise := schema.NoiseOptions{Enabled: p.Noise.Enabled, Strength: p.Noise.Strength, Metrics: p.Noise.Metrics}
	return runCtx, mode, noise, nil
}

func (s *Server) handleRunCell(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload runPayload
	if !s.decode(w, r, &payload) {
		return
	}
	runCtx, mode, noise, err := payload.options()
	if err != nil {
		s.fail(w, r, "http cell run rejected", err)
		return
	}
	resp, err := s.service.RunCell(r.Context(), schema.RunCellRequest{
		NotebookID: payload.NotebookID,
		CellID:     payload.CellID,
		Context:    runCtx,
		Mode:       mode,
		Shots:      payload.Shots,
		Noise:      noise,
	})
	if err != nil {
		s.fail(w, r, "http cell run failed", err)
		return
	}
	body := map[string]any{"cell": resp.Cell}
	if resp.Error != "" {
		body["error"] = resp.Error
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload runPayload
	if !s.decode(w, r, &payload) {
		return
	}
	runCtx, mode, noise, err := payload.options()
	if err != nil {
		s.fail(w, r, "http run all rejected", err)
		return
	}
	resp, err := s.service.RunAll(r.Context(), schema.RunAllRequest{
		NotebookID: payload.NotebookID,
		Context:    runCtx,
		Mode:       mode,
		Shots:      payload.Shots,
		Noise:      noise,
	})
	if err != nil {
		s.fail(w, r, "http run all failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notebook": resp.Notebook,
		"ran":      resp.Ran,
		"failed":   resp.Failed,
		"skipped":  resp.Skipped,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload cellPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.PreviewCell(r.Context(), schema.PreviewCellRequest{NotebookID: payload.NotebookID, CellID: payload.CellID})
	if err != nil {
		s.fail(w, r, "http cell preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"preview":         resp.Preview,
		"qubits":          resp.Qubits,
		"gates":           resp.Gates,
		"depth":           resp.Depth,
		"two_qubit_gates": resp.TwoQubitGates,
		"transpiled":      resp.Transpiled,
	})
}

func (s *Server) handlePrewarm(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.SetPrewarm(r.Context(), schema.SetPrewarmRequest{Enabled: payload.Enabled})
	if err != nil {
		s.fail(w, r, "http prewarm failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": resp.Enabled})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := s.service.ListJobs(r.Context(), schema.ListJobsRequest{})
		if err != nil {
			s.fail(w, r, "http jobs list failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": resp.Jobs})
	case http.MethodPost:
		var payload struct {
			Provider string `json:"provider"`
			Code     string `json:"code"`
			Language string `json:"language"`
			Backend  string `json:"backend"`
			Shots    int    `json:"shots"`
			Jobs     int    `json:"jobs"`
		}
		if !s.decode(w, r, &payload) {
			return
		}
		language, err := schema.ParseLanguage(payload.Language)
		if err != nil {
			s.fail(w, r, "http job submit rejected", err)
			return
		}
		resp, err := s.service.SubmitJob(r.Context(), schema.SubmitJobRequest{
			Provider: payload.Provider,
			Code:     payload.Code,
			Language: language,
			Backend:  payload.Backend,
			Shots:    payload.Shots,
			Jobs:     payload.Jobs,
		})
		if err != nil {
			s.fail(w, r, "http job submit failed", err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"jobs": resp.Jobs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := schema.JobID(strings.TrimSpace(r.URL.Query().Get("id")))
	resp, err := s.service.GetJob(r.Context(), schema.GetJobRequest{JobID: id})
	if err != nil {
		s.fail(w, r, "http job get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": resp.Job})
}

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	resp, err := s.service.ListBackends(r.Context(), schema.ListBackendsRequest{})
	if err != nil {
		s.fail(w, r, "http backends list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backends": resp.Backends})
}

type chatPayload struct {
	ChatID  schema.ChatID `json:"chat_id"`
	Title   string        `json:"title"`
	Mode    string        `json:"mode"`
	ModelID string        `json:"model_id"`
	Content string        `json:"content"`
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp, err := s.service.ListChats(r.Context(), schema.ListChatsRequest{})
		if err != nil {
			s.fail(w, r, "http chats list failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chats": resp.Chats})
	case http.MethodPost:
		var payload chatPayload
		if !s.decode(w, r, &payload) {
			return
		}
		resp, err := s.service.NewChat(r.Context(), schema.NewChatRequest{
			Title:   payload.Title,
			Mode:    schema.ChatMode(payload.Mode),
			ModelID: schema.ModelID(payload.ModelID),
		})
		if err != nil {
			s.fail(w, r, "http chat create failed", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"chat": resp.Chat})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id := schema.ChatID(strings.TrimSpace(r.URL.Query().Get("id")))
	resp, err := s.service.GetChat(r.Context(), schema.GetChatRequest{ChatID: id})
	if err != nil {
		s.fail(w, r, "http chat get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat": resp.Chat})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload chatPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.DeleteChat(r.Context(), schema.DeleteChatRequest{ChatID: payload.ChatID})
	if err != nil {
		s.fail(w, r, "http chat delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": resp.Deleted})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload chatPayload
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.service.SendMessage(r.Context(), schema.SendMessageRequest{ChatID: payload.ChatID, Content: payload.Content})
	if err != nil {
		s.fail(w, r, "http chat send failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat": resp.Chat, "reply": resp.Reply})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	resp, err := s.service.ListModels(r.Context(), schema.ListModelsRequest{})
	if err != nil {
		s.fail(w, r, "http models list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": resp.Models, "default": resp.Default})
}

// settingsView never exposes key material, only which providers have one.
type settingsView struct {
	Providers    []string               `json:"providers"`
	CustomModels []settings.CustomModel `json:"custom_models"`
}

func viewSettings(current settings.Settings) settingsView {
	models := current.CustomModels
	if models == nil {
		models = []settings.CustomModel{}
	}
	return settingsView{Providers: current.Providers(), CustomModels: models}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	current, err := s.settings.Load()
	if err != nil {
		s.fail(w, r, "http settings load failed", err)
		return
	}
	writeJSON(w, http.StatusOK, viewSettings(current))
}

func (s *Server) handleSettingsKey(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload struct {
		Provider string `json:"provider"`
		Key      string `json:"key"`
	}
	if !s.decode(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Provider) == "" {
		s.fail(w, r, "http settings key rejected", fmt.Errorf("%w: provider is required", schema.ErrInvalidRequest))
		return
	}
	s.updateSettings(w, r, func(current settings.Settings) settings.Settings {
		return current.WithAPIKey(payload.Provider, payload.Key)
	})
}

func (s *Server) handleSettingsModel(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var payload settings.CustomModel
		if !s.decode(w, r, &payload) {
			return
		}
		s.updateSettings(w, r, func(current settings.Settings) settings.Settings {
			return current.WithModel(payload)
		})
	case http.MethodDelete:
		id := schema.ModelID(strings.TrimSpace(r.URL.Query().Get("id")))
		if id == "" {
			s.fail(w, r, "http settings model rejected", fmt.Errorf("%w: id is required", schema.ErrInvalidRequest))
			return
		}
		s.updateSettings(w, r, func(current settings.Settings) settings.Settings {
			return current.WithoutModel(id)
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request, apply func(settings.Settings) settings.Settings) {
	current, err := s.settings.Load()
	if err != nil {
		s.fail(w, r, "http settings load failed", err)
		return
	}
	next, err := apply(current).Normalize()
	if err != nil {
		s.fail(w, r, "http settings rejected", fmt.Errorf("%w: %w", schema.ErrInvalidRequest, err))
		return
	}
	if err := s.settings.Save(next); err != nil {
		s.fail(w, r, "http settings save failed", err)
		return
	}
	logx.Ctx(r.Context()).Info("http settings saved", "providers", len(next.APIKeys), "models", len(next.CustomModels))
	writeJSON(w, http.StatusOK, viewSettings(next))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	// Subscribe before the snapshot so no event falls between the two.
	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	snapshot := s.buildSnapshot(r.Context())
	_ = writeSSEvent(w, StreamEvent{
		Type:      schema.StreamSnapshot,
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
			lastID = event.Seq
		}
		flusher.Flush()
	}

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "notebooks", len(snapshot.Notebooks))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= lastID {
				continue
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	payload := SnapshotPayload{Notebooks: []schema.NotebookSnapshot{}, Jobs: []schema.JobRecord{}}
	if resp, err := s.service.ListNotebooks(ctx, schema.ListNotebooksRequest{}); err == nil {
		payload.Notebooks = resp.Notebooks
		payload.Active = resp.Active
	}
	if resp, err := s.service.ListJobs(ctx, schema.ListJobsRequest{}); err == nil {
		payload.Jobs = resp.Jobs
	}
	return payload
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	// An empty body decodes as an empty object.
	if err := decodeJSON(io.LimitReader(r.Body, maxBodySize), target); err != nil && !errors.Is(err, io.EOF) {
		logx.Ctx(r.Context()).Warn("http decode failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errorStatus(err)
	log := logx.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Warn(msg, "status", status, "err", err)
	} else {
		log.Debug(msg, "status", status, "err", err)
	}
	if status == http.StatusBadGateway {
		writeError(w, status, errors.New(backend.Message(err)))
		return
	}
	writeError(w, status, err)
}

func errorStatus(err error) int {
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, schema.ErrNotebookNotFound),
		errors.Is(err, schema.ErrNoNotebooks),
		errors.Is(err, schema.ErrCellNotFound),
		errors.Is(err, schema.ErrJobNotFound),
		errors.Is(err, schema.ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrCellBusy):
		return http.StatusConflict
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidCellKind),
		errors.Is(err, schema.ErrInvalidLanguage),
		errors.Is(err, schema.ErrInvalidMode),
		errors.Is(err, schema.ErrInvalidModel),
		errors.Is(err, schema.ErrNotRunnable),
		errors.Is(err, schema.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrServiceClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &httpErr),
		errors.Is(err, backend.ErrTransport),
		errors.Is(err, backend.ErrMalformedResponse),
		errors.Is(err, backend.ErrAssistant):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
