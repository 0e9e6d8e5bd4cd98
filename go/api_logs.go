package storefrontserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aromaline/storefront/internal/platform/applog"
)

// LogEntry is one client log record.
type LogEntry struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
	URL     string         `json:"url"`
}

// LogsAPI ingests browser log entries.
type LogsAPI struct {
	service *applog.Service
	srv     *server
}

func NewLogsAPI(service *applog.Service) LogsAPI {
	return LogsAPI{service: service}
}

// Post /api/v1/logs
// Accepts a single entry or an array of entries
func (api *LogsAPI) Ingest(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		api.srv.badRequest(c, err)
		return
	}
	payload, err := decodeLogEntries(raw)
	if err != nil {
		api.srv.badRequest(c, err)
		return
	}
	entries := make([]applog.Entry, 0, len(payload))
	for _, e := range payload {
		entries = append(entries, applog.Entry{
			Level:   applog.Level(e.Level),
			Message: e.Message,
			Context: e.Context,
			URL:     e.URL,
		})
	}
	if err := api.service.Ingest(c.Request.Context(), entries); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func decodeLogEntries(raw []byte) ([]LogEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("request body is empty")
	}
	if raw[0] == '[' {
		var entries []LogEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var entry LogEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return []LogEntry{entry}, nil
}
