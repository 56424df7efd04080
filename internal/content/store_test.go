package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"sitebuilder-backend/internal/models"
)

type fakeDocumentRepository struct {
	records map[string]*models.SiteDocumentRecord
	err     error
}

func (f *fakeDocumentRepository) Get(_ context.Context, siteKey string) (*models.SiteDocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[siteKey]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeDocumentRepository) Put(_ context.Context, siteKey string, doc models.SiteDocument) (*models.SiteDocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[siteKey]
	if !ok {
		record = &models.SiteDocumentRecord{SiteKey: siteKey}
		f.records[siteKey] = record
	}
	record.Document = doc
	record.Revision++
	return record, nil
}

func sampleDocument() models.SiteDocument {
	return models.SiteDocument{
		Pages: []models.PageContent{{
			Slug:   "home",
			Title:  "Home",
			Blocks: []models.Block{models.NewBlock("q", "quote", map[string]interface{}{"text": "Hi"})},
		}},
	}
}

func TestDatabaseStoreEmptyAndRoundTrip(t *testing.T) {
	repo := &fakeDocumentRepository{records: map[string]*models.SiteDocumentRecord{}}
	store := NewDatabaseStore(repo, "")

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Pages == nil || len(doc.Pages) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}

	var hooked int32
	wrapped := WithSaveHooks(store, func(context.Context, models.SiteDocument) { atomic.AddInt32(&hooked, 1) })
	if err := wrapped.Save(context.Background(), sampleDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hooked != 1 {
		t.Fatalf("expected save hook to run once, got %d", hooked)
	}
	if repo.records["default"].Revision != 1 {
		t.Fatalf("expected default site key with revision 1")
	}

	loaded, err := wrapped.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Pages) != 1 || loaded.Pages[0].Blocks[0].ID != "q" {
		t.Fatalf("unexpected loaded document: %+v", loaded)
	}
}

func TestSaveHooksSkippedOnFailure(t *testing.T) {
	repo := &fakeDocumentRepository{records: map[string]*models.SiteDocumentRecord{}, err: errors.New("db down")}
	called := false
	store := WithSaveHooks(NewDatabaseStore(repo, "site"), func(context.Context, models.SiteDocument) { called = true })

	if err := store.Save(context.Background(), sampleDocument()); err == nil {
		t.Fatalf("expected error")
	}
	if called {
		t.Fatalf("expected hook not to run after a failed save")
	}
}

func newTestHTTPStore(t *testing.T, url string) *HTTPStore {
	t.Helper()
	store, err := NewHTTPStore(HTTPConfig{
		BaseURL:  url,
		Token:    "secret",
		Timeout:  100 * time.Millisecond,
		Attempts: 3,
		Backoff:  time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func TestHTTPStoreRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/content" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(sampleDocument())
	}))
	defer server.Close()

	doc, err := newTestHTTPStore(t, server.URL+"/").Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Slug != "home" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestHTTPStoreDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad document", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	err := newTestHTTPStore(t, server.URL).Save(context.Background(), sampleDocument())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestHTTPStoreTimesOutSlowAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_ = json.NewEncoder(w).Encode(sampleDocument())
	}))
	defer server.Close()

	if _, err := newTestHTTPStore(t, server.URL).Load(context.Background()); err != nil {
		t.Fatalf("expected retry after timeout to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestHTTPStoreSaveSendsDocument(t *testing.T) {
	var received models.SiteDocument
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestHTTPStore(t, server.URL).Save(context.Background(), sampleDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(received.Pages) != 1 || received.Pages[0].Blocks[0].String("text") != "Hi" {
		t.Fatalf("unexpected document received: %+v", received)
	}
}

func TestNewHTTPStoreRequiresURL(t *testing.T) {
	if _, err := NewHTTPStore(HTTPConfig{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}
