package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/models"
)

func TestProjectDeletedPostsToBothHooks(t *testing.T) {
	var discord DiscordWebhookRequest
	var slack SlackWebhookRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/discord", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&discord))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/slack", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&slack))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	project := models.Project{Name: "Demo", DiscordWebhook: server.URL + "/discord", SlackWebhook: server.URL + "/slack"}
	summary := &cascade.Summary{Removed: map[graph.EntityType]int64{graph.Task: 2, graph.Project: 1}}

	err := NewWebhooks(server.Client()).ProjectDeleted(context.Background(), project, models.User{Username: "owner"}, summary)
	require.NoError(t, err)

	require.Len(t, discord.Embeds, 1)
	assert.Equal(t, ColorRed, discord.Embeds[0].Color)
	assert.Equal(t, "project: 1, task: 2", discord.Embeds[0].Fields[2].Value)
	require.Len(t, slack.Attachments, 1)
	assert.Equal(t, "Project 'Demo' was deleted", slack.Attachments[0].Title)
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	project := models.Project{Name: "Demo", SlackWebhook: server.URL}

	err := NewWebhooks(nil).TaskAssigned(context.Background(), project, models.Task{Title: "A"}, models.User{}, models.User{})
	assert.ErrorContains(t, err, "slack: webhook returned status 502")
}

func TestNoHooksConfigured(t *testing.T) {
	err := NewWebhooks(nil).ProjectDeleted(context.Background(), models.Project{}, models.User{}, nil)
	assert.NoError(t, err)
}
