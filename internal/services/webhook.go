package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed  = 16711680 // #FF0000 - project deleted
	ColorBlue = 3447003  // #3498DB - task assigned

	Username = "Taskboard"
)

// Webhooks posts project events to the Discord and Slack hooks configured
// on the project.
type Webhooks struct {
	client *http.Client
	now    func() time.Time
}

func NewWebhooks(client *http.Client) *Webhooks {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhooks{client: client, now: time.Now}
}

// ProjectDeleted needs the project as it was before deletion.
func (w *Webhooks) ProjectDeleted(ctx context.Context, project models.Project, actor models.User, summary *cascade.Summary) error {
	if project.DiscordWebhook == "" && project.SlackWebhook == "" {
		return nil
	}

	removed := formatRemoved(summary)

	if project.DiscordWebhook != "" {
		payload := DiscordWebhookRequest{
			Username: Username,
			Embeds: []DiscordEmbed{
				{
					Title:       "🗑️ **PROJECT DELETED**",
					Description: fmt.Sprintf("**%s** was deleted by %s.", project.Name, actor.Username),
					Color:       ColorRed,
					Fields: []DiscordWebhookField{
						{Name: "📁 Project", Value: project.Name, Inline: true},
						{Name: "👤 Deleted By", Value: actor.Username, Inline: true},
						{Name: "🧹 Removed", Value: removed, Inline: false},
					},
					Footer:    &DiscordFooter{Text: "Taskboard"},
					Timestamp: w.now().Format(time.RFC3339),
				},
			},
		}

		if err := w.post(ctx, project.DiscordWebhook, payload); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		payload := SlackWebhookRequest{
			Username:  Username,
			IconEmoji: ":wastebasket:",
			Text:      ":wastebasket: *PROJECT DELETED*",
			Attachments: []SlackAttachment{
				{
					Color: "danger",
					Title: fmt.Sprintf("Project '%s' was deleted", project.Name),
					Text:  removed,
					Fields: []SlackField{
						{Title: "Project", Value: project.Name, Short: true},
						{Title: "Deleted By", Value: actor.Username, Short: true},
					},
					Footer:    "Taskboard",
					Timestamp: w.now().Unix(),
				},
			},
		}

		if err := w.post(ctx, project.SlackWebhook, payload); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (w *Webhooks) TaskAssigned(ctx context.Context, project models.Project, task models.Task, assignee, actor models.User) error {
	if project.DiscordWebhook != "" {
		payload := DiscordWebhookRequest{
			Username: Username,
			Embeds: []DiscordEmbed{
				{
					Title:       "📌 **TASK ASSIGNED**",
					Description: fmt.Sprintf("**%s** was assigned to %s.", task.Title, assignee.Username),
					Color:       ColorBlue,
					Fields: []DiscordWebhookField{
						{Name: "📝 Task", Value: task.Title, Inline: true},
						{Name: "⚡ Priority", Value: task.Priority, Inline: true},
						{Name: "👤 Assigned By", Value: actor.Username, Inline: true},
					},
					Footer:    &DiscordFooter{Text: fmt.Sprintf("Project: %s | Taskboard", project.Name)},
					Timestamp: w.now().Format(time.RFC3339),
				},
			},
		}

		if err := w.post(ctx, project.DiscordWebhook, payload); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		payload := SlackWebhookRequest{
			Username:  Username,
			IconEmoji: ":pushpin:",
			Text:      ":pushpin: *TASK ASSIGNED*",
			Attachments: []SlackAttachment{
				{
					Color: "#3498DB",
					Title: fmt.Sprintf("'%s' was assigned to %s", task.Title, assignee.Username),
					Text:  task.Description,
					Fields: []SlackField{
						{Title: "Priority", Value: task.Priority, Short: true},
						{Title: "Assigned By", Value: actor.Username, Short: true},
					},
					Footer:    fmt.Sprintf("Project: %s", project.Name),
					Timestamp: w.now().Unix(),
				},
			},
		}

		if err := w.post(ctx, project.SlackWebhook, payload); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func formatRemoved(summary *cascade.Summary) string {
	if summary == nil || len(summary.Removed) == 0 {
		return "nothing"
	}

	parts := make([]string, 0, len(summary.Removed))
	for _, t := range summary.Types() {
		parts = append(parts, fmt.Sprintf("%s: %d", t, summary.Removed[t]))
	}

	return strings.Join(parts, ", ")
}

func (w *Webhooks) post(ctx context.Context, webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
