package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	joined := make(chan struct{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn)
		joined <- struct{}{}
		// Keep the handler alive until the client goes away.
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				hub.Remove(conn)
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var clients []*websocket.Conn
	for i := 0; i < 2; i++ {
		c, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		clients = append(clients, c)
		<-joined
	}

	if hub.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.Len())
	}
	if n := hub.Broadcast([]byte(`{"type":"TilePlaced"}`)); n != 2 {
		t.Fatalf("expected delivery to 2 clients, got %d", n)
	}
	for i, c := range clients {
		_, data, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		if string(data) != `{"type":"TilePlaced"}` {
			t.Errorf("client %d got %s", i, data)
		}
	}

	hub.CloseAll("match over")
	if hub.Len() != 0 {
		t.Errorf("CloseAll should empty the hub")
	}
}
