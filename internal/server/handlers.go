package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/shared"
)

const maxBody = 64 << 10

// Reply is the receipt sent for every accepted configuration message.
type Reply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

var replyOK = Reply{Status: "ok"}

func replyError(err error) Reply {
	return Reply{Status: "error", Error: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeUpdate parses a full or partial configuration push.
func decodeUpdate(data []byte) (engine.ConfigUpdate, error) {
	var u engine.ConfigUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return u, errors.Join(shared.ErrInvalidInput, err)
	}
	if err := u.Validate(); err != nil {
		return u, err
	}
	return u, nil
}

// ConfigHandler accepts configuration pushes over plain HTTP.
type ConfigHandler struct {
	engine Engine
	logger *log.Logger
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, replyError(err))
		return
	}

	u, err := decodeUpdate(data)
	if err != nil {
		h.logger.Debug("rejected config push", "error", err)
		writeJSON(w, http.StatusBadRequest, replyError(err))
		return
	}

	if err := h.engine.Update(u); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrEngineNotRunning) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, replyError(err))
		return
	}

	writeJSON(w, http.StatusOK, replyOK)
}

// StatusHandler reports the engine snapshot.
type StatusHandler struct {
	engine Engine
	logger *log.Logger
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, replyError(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
