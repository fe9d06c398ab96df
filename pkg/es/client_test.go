package es

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSearchResponse(t *testing.T) {
	body := `{"hits":{"hits":[{"_score":1.5,"_source":{"session_id":"s1","position":2,"question":"Question 2: q","answer":"a","score":70}}]}}`
	got, err := decodeSearchResponse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, 2, got[0].Position)
	assert.Equal(t, 70, got[0].Score)
	assert.InDelta(t, 1.5, got[0].Relevance, 0.0001)
}

func TestSearchAnswersFiltersByUser(t *testing.T) {
	var query map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			_ = json.NewDecoder(r.Body).Decode(&query)
		}
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	idx := NewAnswerIndex(client, "interview_answers")
	got, err := idx.SearchAnswers(context.Background(), 42, "channels", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NotNil(t, query)
	filter := query["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	term := filter[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.EqualValues(t, 42, term["user_id"])
}
