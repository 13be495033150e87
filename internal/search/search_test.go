package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askflow/backend/internal/search"
)

func TestClient_Search(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "golang 1.24", body["query"])
			assert.EqualValues(t, 2, body["max_results"])
			assert.Equal(t, true, body["include_answer"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"answer":"Released Feb 2025","results":[
				{"title":"a","url":"https://a","content":"A","score":0.9},
				{"title":"b","url":"https://b","content":"B"},
				{"title":"c","url":"https://c","content":"C"}]}`))
		}))
		defer srv.Close()

		resp, err := search.NewClient(srv.URL, "key").Search(context.Background(), "golang 1.24", 2)
		require.NoError(t, err)
		assert.Equal(t, "Released Feb 2025", resp.Answer)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, search.Result{Title: "a", URL: "https://a", Content: "A"}, resp.Results[0])
	})

	t.Run("Failure - Not configured", func(t *testing.T) {
		_, err := search.NewClient("http://unused", "").Search(context.Background(), "q", 5)
		assert.ErrorIs(t, err, search.ErrNotConfigured)
	})

	t.Run("Failure - Non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
		}))
		defer srv.Close()

		_, err := search.NewClient(srv.URL, "bad").Search(context.Background(), "q", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}
