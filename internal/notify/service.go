package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wraptrack/internal/config"
	"wraptrack/internal/job"
)

const userAgent = "Wraptrack/0.1.0"

// Service is the milestone notification surface the transition engine fires.
type Service interface {
	NotifyStageAdvanced(ctx context.Context, jobTitle string, from, to job.Stage) error
	NotifyJobClosed(ctx context.Context, jobTitle string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

type payload struct {
	title    string
	message  string
	priority string
	tags     []string
}

func (p payload) headers() map[string]string {
	h := map[string]string{
		"User-Agent":   userAgent,
		"Content-Type": "text/plain; charset=utf-8",
	}
	if p.title != "" {
		h["Title"] = p.title
	}
	if len(p.tags) > 0 {
		h["Tags"] = strings.Join(p.tags, ",")
	}
	if p.priority != "" && p.priority != "default" {
		h["Priority"] = p.priority
	}
	return h
}

func (n *ntfyService) NotifyStageAdvanced(ctx context.Context, jobTitle string, from, to job.Stage) error {
	jobTitle = strings.TrimSpace(jobTitle)
	data := payload{
		title:   fmt.Sprintf("Wraptrack - %s Signed Off", from.Label()),
		message: fmt.Sprintf("%s moved to %s", jobTitle, to.Label()),
		tags:    []string{"wraptrack", string(from), "signed_off"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobClosed(ctx context.Context, jobTitle string) error {
	jobTitle = strings.TrimSpace(jobTitle)
	data := payload{
		title:    "Wraptrack - Job Closed",
		message:  fmt.Sprintf("Job closed: %s", jobTitle),
		tags:     []string{"wraptrack", "close", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Wraptrack - Test",
		message:  "Notification system test",
		tags:     []string{"wraptrack", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	for key, value := range data.headers() {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyStageAdvanced(context.Context, string, job.Stage, job.Stage) error { return nil }
func (noopService) NotifyJobClosed(context.Context, string) error                          { return nil }
func (noopService) TestNotification(context.Context) error                                 { return nil }
