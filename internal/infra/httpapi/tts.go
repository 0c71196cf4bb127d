package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"openai-speech/internal/domain"
)

// maxSpeakBody bounds the JSON body; the message itself is capped at
// domain.MaxMessageLength characters further down.
const maxSpeakBody = 64 * 1024

type speakRequest struct {
	Message  string                  `json:"message"`
	Language string                  `json:"language"`
	Options  domain.SynthesisOptions `json:"options"`
}

func (s *Server) handleTTSInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tts.Info())
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSpeakBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	format, audio := s.tts.GetTTSAudio(r.Context(), req.Message, req.Language, req.Options)
	if format == "" {
		writeError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("X-Audio-Format", format)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
