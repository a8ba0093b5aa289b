package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"finrag/internal/chunker"
	"finrag/internal/domain"
	"finrag/internal/embedding/local"
	"finrag/internal/vectorstore/memory"
	"finrag/internal/vectorstore/qdrant"
)

func workflowEnv(t *testing.T, acts *Activities) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(acts)
	return env
}

func TestIngestFileWorkflow(t *testing.T) {
	store := memory.NewStorage()
	ext := &fakeExtractor{blocks: []string{"Rent was $1000.", "Food came to $200."}}
	env := workflowEnv(t, newTestActivities(ext, store, &fakeGenerator{}))

	env.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "/tmp/statement.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.UpsertResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, 2, res.Ingested)
	require.ElementsMatch(t,
		[]string{PointID("statement.pdf", 0), PointID("statement.pdf", 1)},
		store.IDs())
}

func TestIngestFileWorkflowEmptyDocument(t *testing.T) {
	store := memory.NewStorage()
	env := workflowEnv(t, newTestActivities(&fakeExtractor{}, store, &fakeGenerator{}))

	env.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "empty.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.UpsertResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, 0, res.Ingested)
	require.Equal(t, 0, store.Len())
}

func TestIngestFileWorkflowRetriesTransientExtraction(t *testing.T) {
	store := memory.NewStorage()
	ext := &fakeExtractor{blocks: []string{"Recovered text."}, failures: 2}
	env := workflowEnv(t, newTestActivities(ext, store, &fakeGenerator{}))

	env.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "flaky.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.UpsertResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, 1, res.Ingested)
	require.Equal(t, 3, ext.calls)
}

func TestIngestFileWorkflowExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("corrupt xref table")}
	env := workflowEnv(t, newTestActivities(ext, memory.NewStorage(), &fakeGenerator{}))

	env.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "bad.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, ErrTypeExtraction, appErr.Type())
}

func TestQueryWorkflowNoDocuments(t *testing.T) {
	gen := &fakeGenerator{response: "I could not find any matching documents to answer that."}
	env := workflowEnv(t, newTestActivities(&fakeExtractor{}, memory.NewStorage(), gen))

	env.ExecuteWorkflow(QueryWorkflow, QueryInput{Question: "How much rent did I pay?"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.QueryResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, 0, res.NumContexts)
	require.NotEmpty(t, res.Answer)
	require.Empty(t, res.Sources)
	require.Empty(t, res.ChartData)
}

func TestQueryWorkflowEndToEnd(t *testing.T) {
	store := memory.NewStorage()
	ext := &fakeExtractor{blocks: []string{"Rent payment of $1000 posted in March."}}
	gen := &fakeGenerator{
		response: "Your rent was $1000.\n```json\n{\"chart_data\": [{\"category\": \"Rent\", \"amount\": 1000}]}\n```",
	}
	acts := newTestActivities(ext, store, gen)

	ingest := workflowEnv(t, acts)
	ingest.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "statement.pdf"})
	require.NoError(t, ingest.GetWorkflowError())

	query := workflowEnv(t, acts)
	query.ExecuteWorkflow(QueryWorkflow, QueryInput{Question: "How much was rent?"})
	require.True(t, query.IsWorkflowCompleted())
	require.NoError(t, query.GetWorkflowError())

	var res domain.QueryResult
	require.NoError(t, query.GetWorkflowResult(&res))
	require.Equal(t, "Your rent was $1000.", res.Answer)
	require.Equal(t, []string{"statement.pdf"}, res.Sources)
	require.Equal(t, 1, res.NumContexts)
	require.Equal(t, []domain.ChartPoint{{Category: "Rent", Amount: 1000}}, res.ChartData)
}

func TestQueryWorkflowFileFilterExcludesOthers(t *testing.T) {
	store := memory.NewStorage()
	gen := &fakeGenerator{response: "Nothing in that file mentions rent."}
	acts := newTestActivities(&fakeExtractor{blocks: []string{"Rent $1000."}}, store, gen)

	ingest := workflowEnv(t, acts)
	ingest.ExecuteWorkflow(IngestFileWorkflow, IngestInput{FilePath: "statement.pdf"})
	require.NoError(t, ingest.GetWorkflowError())
	require.Equal(t, 1, store.Len())

	query := workflowEnv(t, acts)
	query.ExecuteWorkflow(QueryWorkflow, QueryInput{
		Question:  "How much was rent?",
		FileNames: []string{"receipts.pdf"},
	})
	require.NoError(t, query.GetWorkflowError())

	var res domain.QueryResult
	require.NoError(t, query.GetWorkflowResult(&res))
	require.Equal(t, 0, res.NumContexts)
	require.Empty(t, res.Sources)
}

func TestQueryWorkflowCreatesMissingCollection(t *testing.T) {
	// A Qdrant double: search against a collection that was never created
	// answers 404 until a create request has been seen.
	var mu sync.Mutex
	created := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
			if !created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"result": {"config": {"params": {"vectors": {"size": 8}}}}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			created = true
			fmt.Fprint(w, `{"result": true}`)
		case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
			if !created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"result": []}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := qdrant.NewStorage(qdrant.Config{URL: srv.URL, Collection: "docs"})
	gen := &fakeGenerator{response: "No documents are indexed yet."}
	acts := NewActivities(&fakeExtractor{}, chunker.NewTokenSplitter(512, 200), local.NewEmbedder(8), store, gen)

	env := workflowEnv(t, acts)
	env.ExecuteWorkflow(QueryWorkflow, QueryInput{Question: "How much was rent?"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.QueryResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, 0, res.NumContexts)
	require.NotEmpty(t, res.Answer)
	require.Empty(t, res.Sources)
	require.True(t, created)
}

func TestQueryWorkflowGenerationFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	env := workflowEnv(t, newTestActivities(&fakeExtractor{}, memory.NewStorage(), gen))

	env.ExecuteWorkflow(QueryWorkflow, QueryInput{Question: "How much was rent?"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res domain.QueryResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Contains(t, res.Answer, "I apologize")
	require.Contains(t, res.Answer, "quota exceeded")
	require.Empty(t, res.ChartData)
}
