package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	hits     []string
	status   int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
		return
	}

	if strings.HasSuffix(r.URL.Path, "/_search") {
		hits := make([]map[string]any, 0, len(f.hits))
		for _, id := range f.hits {
			hits = append(hits, map[string]any{"_source": map[string]any{"id": id}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
		return
	}
	_, _ = w.Write([]byte(`{"result":"created"}`))
}

func newTestIndex(t *testing.T, f *fakeES) *OrderIndex {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	return NewOrderIndex(client, "orders")
}

func TestOrderIndex_Index(t *testing.T) {
	f := &fakeES{}
	x := newTestIndex(t, f)
	id := uuid.New()

	err := x.Index(context.Background(), &models.Order{
		ID:          id,
		PatientName: "Ravi Kumar",
		Medicines:   []models.Medicine{{Name: "Paracetamol"}},
	})
	require.NoError(t, err)

	require.Len(t, f.requests, 1)
	assert.Equal(t, "PUT /orders/_doc/"+id.String(), f.requests[0])
	assert.Contains(t, f.bodies[0], `"patient_name":"Ravi Kumar"`)
	assert.Contains(t, f.bodies[0], `"medicines":["Paracetamol"]`)
}

func TestOrderIndex_Search(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	f := &fakeES{hits: []string{a.String(), "not-a-uuid", b.String()}}
	x := newTestIndex(t, f)

	ids, err := x.Search(context.Background(), "ravi", 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.Equal(t, "POST /orders/_search", f.requests[0])
	assert.Contains(t, f.bodies[0], `"query":"ravi"`)
}

func TestOrderIndex_ErrorStatus(t *testing.T) {
	f := &fakeES{status: http.StatusInternalServerError}
	x := newTestIndex(t, f)

	_, err := x.Search(context.Background(), "ravi", 10)
	require.Error(t, err)

	err = x.Index(context.Background(), &models.Order{ID: uuid.New()})
	require.Error(t, err)
}
