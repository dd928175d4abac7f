package fakeportal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/client"
)

func (s *Server) handleAgentStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().Agent)
}

func (s *Server) handleOBSStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().OBS)
}

func (s *Server) handleScenes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scenes": s.State().Scenes})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	snap := s.State()
	scene := r.URL.Query().Get("scene")
	if scene == "" {
		scene = snap.OBS.CurrentScene
	}
	sources := snap.Sources[scene]
	if sources == nil {
		sources = []client.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleSwitchScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SceneName string `json:"scene_name"`
	}
	if err := decodeBody(r, &req); err != nil || req.SceneName == "" {
		http.Error(w, "scene_name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ok := s.state.switchScene(req.SceneName)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}

	s.pushOBS(client.OBSEvent{Type: client.OBSSceneChanged, SceneName: req.SceneName})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToggleSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SceneName  string `json:"scene_name"`
		SourceName string `json:"source_name"`
		Visible    bool   `json:"visible"`
	}
	if err := decodeBody(r, &req); err != nil || req.SourceName == "" {
		http.Error(w, "source_name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	scene := req.SceneName
	if scene == "" {
		scene = s.state.OBS.CurrentScene
	}
	ok := s.state.setSourceVisible(scene, req.SourceName, req.Visible)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "source not found", http.StatusNotFound)
		return
	}

	visible := req.Visible
	s.pushOBS(client.OBSEvent{
		Type:       client.OBSSourceVisibilityChanged,
		SceneName:  scene,
		SourceName: req.SourceName,
		Visible:    &visible,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStreaming(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	s.mu.Lock()
	st := s.state.OBS.Streaming
	if st == nil {
		st = &client.StreamStatus{}
		s.state.OBS.Streaming = st
	}
	switch action {
	case "start":
		st.Active = true
	case "stop":
		st.Active = false
		st.Duration = 0
	default:
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	active := st.Active
	s.mu.Unlock()

	s.pushOBS(client.OBSEvent{Type: client.OBSStreamStateChanged, Active: &active})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	s.mu.Lock()
	rec := s.state.OBS.Recording
	if rec == nil {
		rec = &client.RecordingStatus{}
		s.state.OBS.Recording = rec
	}
	switch action {
	case "start":
		rec.Active, rec.Paused = true, false
	case "stop":
		rec.Active, rec.Paused = false, false
		rec.Duration = 0
	case "pause":
		rec.Paused = rec.Active
	case "resume":
		rec.Paused = false
	default:
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	active := rec.Active
	s.mu.Unlock()

	s.pushOBS(client.OBSEvent{Type: client.OBSRecordStateChanged, Active: &active})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTwitchStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().TwitchStatus)
}

func (s *Server) handleTwitchStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().TwitchStats)
}

func (s *Server) handleUpdateTwitchStream(w http.ResponseWriter, r *http.Request) {
	var req client.UpdateTwitchStreamRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if req.Title != "" {
		s.state.TwitchStats.Title = req.Title
	}
	if req.GameName != "" {
		s.state.TwitchStats.GameName = req.GameName
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleYouTubeStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().YouTubeStatus)
}

func (s *Server) handleYouTubeStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.State().YouTubeStats)
}

func (s *Server) handleUpdateYouTubeStream(w http.ResponseWriter, r *http.Request) {
	var req client.UpdateYouTubeStreamRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if req.Title != "" {
		s.state.YouTubeStats.Title = req.Title
	}
	if req.Description != "" {
		s.state.YouTubeStats.Description = req.Description
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) pushOBS(ev client.OBSEvent) {
	if err := s.PushOBSEvent(ev); err != nil {
		s.log.Warn("push obs event failed", zap.Error(err))
	}
}
