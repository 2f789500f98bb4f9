package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCounters(t *testing.T) {
	r := NewRun("run-1")
	r.Documents.Inc()
	r.Statements.WithLabelValues("cl", "named_named").Add(10)
	r.Statements.WithLabelValues("cl", "blank_subject").Add(4)
	r.Flattened.WithLabelValues("axiom").Inc()
	r.Vertices.WithLabelValues("inserted").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Documents))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.Statements.WithLabelValues("cl", "named_named")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Vertices.WithLabelValues("inserted")))

	n, err := testutil.GatherAndCount(r.Registry(), "ontokn_statements_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunsAreIndependent(t *testing.T) {
	a := NewRun("a")
	b := NewRun("b")
	a.Documents.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Documents))
}

func TestFinish(t *testing.T) {
	r := NewRun("run-1")
	r.Finish(time.Now().Add(-2*time.Second), false)
	assert.GreaterOrEqual(t, testutil.ToFloat64(r.Duration), 2.0)
	assert.Zero(t, testutil.ToFloat64(r.LastSuccess))

	r.Finish(time.Now(), true)
	assert.Greater(t, testutil.ToFloat64(r.LastSuccess), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	r := NewRun("run-1")
	r.Edges.WithLabelValues("dangling").Add(2)

	path := filepath.Join(t.TempDir(), "ontokn.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ontokn_edges_total{outcome="dangling",run_id="run-1"} 2`)
}

func TestPush(t *testing.T) {
	var (
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRun("run-1")
	r.Documents.Add(3)
	require.NoError(t, r.Push(context.Background(), srv.URL, "ontokn"))

	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(path, "/metrics/job/ontokn"), path)
	assert.NotEmpty(t, body)
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, NewRun("x").Push(context.Background(), srv.URL, "ontokn"))
}
