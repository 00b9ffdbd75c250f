package dashsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func jsonBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func testEntries() []UploadEntry {
	return []UploadEntry{
		{UploadURL: "https://store/1", Category: "vehicle", MimeType: "image/jpeg", Path: "a.jpg"},
		{UploadURL: "https://store/2", Category: "insurance", MimeType: "application/pdf", Path: "b.pdf"},
		{UploadURL: "https://store/3", Category: "registration", MimeType: "application/pdf", Path: "c.pdf"},
	}
}

func TestRegisterAllBatchSuccessSkipsIndividual(t *testing.T) {
	var batchCalls, singleCalls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/photos/batch") {
			batchCalls.Add(1)
			w.Write([]byte(`[{"id":1},{"id":2},{"id":3}]`))
			return
		}
		singleCalls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	reg := &Registrar{Client: newTestClient(t, ts.URL), Retry: quickRetry(), Logger: zap.NewNop()}
	count, failed := reg.RegisterAll(context.Background(), "42", testEntries())

	if count != 3 || len(failed) != 0 {
		t.Errorf("RegisterAll() = (%d, %v), want (3, none)", count, failed)
	}
	if batchCalls.Load() != 1 || singleCalls.Load() != 0 {
		t.Errorf("batch=%d single=%d, want batch once and no per-photo calls", batchCalls.Load(), singleCalls.Load())
	}
}

func TestRegisterAllFallsBackWhenBatchRejected(t *testing.T) {
	var singleCalls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/photos/batch") {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		singleCalls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	reg := &Registrar{Client: newTestClient(t, ts.URL), Retry: quickRetry(), Logger: zap.NewNop()}
	count, failed := reg.RegisterAll(context.Background(), "42", testEntries())

	if count != 3 || len(failed) != 0 {
		t.Errorf("RegisterAll() = (%d, %v), want all recovered per-photo", count, failed)
	}
	if singleCalls.Load() != 3 {
		t.Errorf("per-photo calls = %d, want 3", singleCalls.Load())
	}
}

func TestRegisterAllPartialIndividualFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/photos/batch") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var entry UploadEntry
		_ = jsonBody(r, &entry)
		if entry.Category == "insurance" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	reg := &Registrar{Client: newTestClient(t, ts.URL), Retry: quickRetry(), Logger: zap.NewNop()}
	count, failed := reg.RegisterAll(context.Background(), "42", testEntries())

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(failed) != 1 || failed[0].Path != "b.pdf" {
		t.Fatalf("failed = %+v, want b.pdf only", failed)
	}
	if !strings.Contains(failed[0].Reason, "422") {
		t.Errorf("failure reason %q does not name the status", failed[0].Reason)
	}
}

func TestRegisterAllEmptyEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for zero entries")
	}))
	defer ts.Close()

	reg := &Registrar{Client: newTestClient(t, ts.URL), Retry: quickRetry(), Logger: zap.NewNop()}
	count, failed := reg.RegisterAll(context.Background(), "42", nil)
	if count != 0 || failed != nil {
		t.Errorf("RegisterAll(nil) = (%d, %v), want (0, nil)", count, failed)
	}
}
