package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// WebhookHandler posts each notification as JSON to url. With an empty url
// notifications are only logged.
func WebhookHandler(url string, client *http.Client, logger *slog.Logger) Handler {
	url = strings.TrimSpace(url)
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, n Notification) error {
		if url == "" {
			logger.Info("new submission", "kind", n.Kind, "subject_id", n.SubjectID, "summary", n.Summary)
			return nil
		}
		body, err := json.Marshal(map[string]any{
			"id":        n.ID,
			"kind":      n.Kind,
			"subjectId": n.SubjectID,
			"text":      n.Summary,
			"createdAt": n.CreatedAt,
		})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned %s", resp.Status)
		}
		return nil
	}
}
