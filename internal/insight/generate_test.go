package insight

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tipledger/internal/config"
)

func testGenerator(url string) *Generator {
	return NewGenerator(&config.Config{
		GenerationURL:    url,
		GenerationAPIKey: "secret",
		GenerationModel:  "test-model",
	})
}

func TestGenerateReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "how's it going", req.Prompt)

		json.NewEncoder(w).Encode(generateResponse{Text: "Great hustle out there!"})
	}))
	defer srv.Close()

	assert.Equal(t, "Great hustle out there!", testGenerator(srv.URL).Generate("how's it going"))
}

func TestGenerateApologizesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Equal(t, Apology, testGenerator(srv.URL).Generate("prompt"))
}

func TestGenerateApologizesOnBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	assert.Equal(t, Apology, testGenerator(srv.URL).Generate("prompt"))
}

func TestGenerateApologizesWhenUnconfigured(t *testing.T) {
	assert.Equal(t, Apology, testGenerator("").Generate("prompt"))
}
