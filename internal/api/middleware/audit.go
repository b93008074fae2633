package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Execer is the write side of core.DB.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// maxAuditBody caps how much of a JSON body is buffered for the audit log.
// Larger bodies are passed through untouched and not stored.
const maxAuditBody = 64 << 10

// AuditLogger is an async audit log writer.
type AuditLogger struct {
	db     Execer
	logger zerolog.Logger
	ch     chan auditEntry
	done   chan struct{}
}

type auditEntry struct {
	APIKeyID    *string
	Method      string
	Path        string
	Action      *string
	ServiceID   *string
	StatusCode  int
	RequestBody json.RawMessage
}

func NewAuditLogger(db Execer, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		db:     db,
		logger: logger,
		ch:     make(chan auditEntry, 1024),
		done:   make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for entry := range al.ch {
		_, err := al.db.Exec(
			// use context.Background since this is async
			context.Background(),
			`INSERT INTO audit_logs (api_key_id, method, path, action, service_id, status_code, request_body, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			entry.APIKeyID, entry.Method, entry.Path, entry.Action, entry.ServiceID, entry.StatusCode, entry.RequestBody,
		)
		if err != nil {
			al.logger.Error().Err(err).Msg("failed to write audit log")
		}
	}
}

// Close stops accepting entries and waits until the buffered ones are written.
func (al *AuditLogger) Close() {
	close(al.ch)
	<-al.done
}

// Middleware returns a chi middleware that logs mutating API requests.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		// Only JSON bodies are re-buffered; plugin archives are not kept in memory twice.
		var bodyBytes []byte
		if r.Body != nil && isJSON(r) {
			bodyBytes = bufferBody(r)
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		var apiKeyID *string
		if id := APIKeyID(r.Context()); id != "" {
			apiKeyID = &id
		}

		var (
			sanitizedBody json.RawMessage
			action        *string
			serviceID     *string
		)
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			sanitizedBody = sanitizeBody(bodyBytes)
			action, serviceID = extractAction(bodyBytes)
		} else {
			// Multipart forms are parsed by the handler by now.
			serviceID = optional(r.FormValue("service_id"))
		}

		select {
		case al.ch <- auditEntry{
			APIKeyID:    apiKeyID,
			Method:      r.Method,
			Path:        r.URL.Path,
			Action:      action,
			ServiceID:   serviceID,
			StatusCode:  sw.status,
			RequestBody: sanitizedBody,
		}:
		default:
			al.logger.Warn().Msg("audit log buffer full, dropping entry")
		}
	})
}

// bufferBody reads up to maxAuditBody bytes and puts them back in front of
// the unread remainder. It returns nil when the body is larger than the cap.
func bufferBody(r *http.Request) []byte {
	head, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil || len(head) > maxAuditBody {
		return nil
	}
	return head
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// extractAction pulls the action name and service id out of a JSON action body.
func extractAction(body []byte) (*string, *string) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, nil
	}
	return optional(scalar(data["action"])), optional(scalar(data["service_id"]))
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// sensitiveFields are fields that should be redacted from audit logs.
var sensitiveFields = map[string]bool{
	"password": true, "admin_password": true, "db_password": true,
	"api_key": true, "secret": true, "token": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
