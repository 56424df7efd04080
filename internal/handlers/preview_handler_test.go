package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sitebuilder-backend/internal/preview"
)

func TestPreviewPageEmbedsSocket(t *testing.T) {
	router, _ := newEditorRouter(t, newHandlerStore(t))
	openSession(t, router)

	recorder := perform(t, router, http.MethodGet, "/preview/s1", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `content="/api/editor/sessions/s1/preview/ws"`) {
		t.Fatalf("expected socket meta tag, got %s", body)
	}
	if !strings.Contains(body, previewScriptPath) || !strings.Contains(body, "site--preview") {
		t.Fatalf("expected preview script and class, got %s", body)
	}

	recorder = perform(t, router, http.MethodGet, previewScriptPath, nil)
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), "IFRAME_READY") {
		t.Fatalf("expected embedded preview script, got %d", recorder.Code)
	}

	if recorder := perform(t, router, http.MethodGet, "/preview/missing", nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", recorder.Code)
	}
}

func TestPreviewSocketReceivesUpdates(t *testing.T) {
	router, _ := newEditorRouter(t, newHandlerStore(t))
	openSession(t, router)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/editor/sessions/s1/preview/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial preview socket: %v", err)
	}
	defer conn.Close()

	readType := func(want preview.MessageType) preview.Message {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for {
			_ = conn.SetReadDeadline(deadline)
			var msg preview.Message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("failed waiting for %s: %v", want, err)
			}
			if msg.Type == want {
				return msg
			}
		}
	}

	readType(preview.MessageUpdatePreview)

	if recorder := perform(t, router, http.MethodDelete, "/api/editor/sessions/s1/blocks/quote", nil); recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	msg := readType(preview.MessageUpdatePreview)
	var payload preview.UpdatePreviewPayload
	if err := msg.Decode(&payload); err != nil {
		t.Fatalf("failed to decode update: %v", err)
	}
	if strings.Contains(string(payload.HTML), `data-block-id="quote"`) {
		t.Fatalf("expected deleted block to be gone from the preview")
	}
}
