package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/services"
	"github.com/assoportal/pollengine/internal/testutil"
)

func newTestHub(t *testing.T) (*Hub, *services.SettingsService) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	settingsSvc := services.NewSettingsService(log, repo)
	hub := New(log, settingsSvc)
	hub.Start()
	return hub, settingsSvc
}

func dialTestClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Give the hub a moment to register the client
	time.Sleep(50 * time.Millisecond)
	return conn
}

func TestBroadcastVoteStatus(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dialTestClient(t, hub)

	hub.BroadcastVoteStatus("v1", "Budget approval", models.VoteStatusActive)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	if msg.Type != "vote_status" {
		t.Errorf("expected vote_status, got %q", msg.Type)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload: %v", msg.Payload)
	}
	if payload["vote_id"] != "v1" || payload["status"] != "active" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["title"] != "Budget approval" {
		t.Errorf("unexpected title: %v", payload["title"])
	}
}

func TestBroadcastVoteStatus_DisabledByScheduleSetting(t *testing.T) {
	hub, settingsSvc := newTestHub(t)
	conn := dialTestClient(t, hub)

	if err := settingsSvc.SetAnnouncementsEnabled(context.Background(), false); err != nil {
		t.Fatalf("SetAnnouncementsEnabled failed: %v", err)
	}

	hub.BroadcastVoteStatus("v1", "Budget approval", models.VoteStatusClosed)

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg models.WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("expected no announcement while disabled, got %+v", msg)
	}
}

func TestBroadcastMessage_MultipleClients(t *testing.T) {
	hub, _ := newTestHub(t)
	conn1 := dialTestClient(t, hub)
	conn2 := dialTestClient(t, hub)

	hub.BroadcastMessage("vote_status", map[string]interface{}{"vote_id": "v2", "status": "closed"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg models.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("client %d failed to read: %v", i, err)
		}
		if msg.Type != "vote_status" {
			t.Errorf("client %d: unexpected type %q", i, msg.Type)
		}
	}
}
