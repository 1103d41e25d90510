package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memory-backend/application/services"
	"memory-backend/domain"
	"memory-backend/infrastructure/persistence/inmem"
	"memory-backend/pkg/auth"
	pkgerrors "memory-backend/pkg/errors"
)

// stubVerifier resolves fixed tokens to fixed users.
type stubVerifier struct {
	users map[string]*auth.UserContext
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*auth.UserContext, error) {
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, pkgerrors.NewUnauthorizedError("Unauthorized: Invalid token")
}

type stubEnricher struct {
	tagErr error
}

func (s *stubEnricher) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, domain.EmbeddingDimensions), nil
}

func (s *stubEnricher) GenerateTags(ctx context.Context, content string) ([]string, error) {
	if s.tagErr != nil {
		return nil, s.tagErr
	}
	return []string{"stub-tag", "testing"}, nil
}

type testHarness struct {
	server   *httptest.Server
	repo     *inmem.MemoryRepository
	enricher *stubEnricher
}

func newHarness(t *testing.T, authEnabled bool) *testHarness {
	t.Helper()

	repo := inmem.NewMemoryRepository()
	enricher := &stubEnricher{}
	service := services.NewMemoryService(repo, enricher, zap.NewNop())
	verifier := &stubVerifier{users: map[string]*auth.UserContext{
		"token-alice": {UserID: "11111111-1111-1111-1111-111111111111"},
		"token-bob":   {UserID: "22222222-2222-2222-2222-222222222222"},
	}}

	router := NewRouter(service, verifier, Options{AuthEnabled: authEnabled}, zap.NewNop())
	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testHarness{server: server, repo: repo, enricher: enricher}
}

func (h *testHarness) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) string {
	t.Helper()
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, json.Unmarshal(buf.Bytes(), v))
	}
	return buf.String()
}

func createMemory(t *testing.T, h *testHarness, token, content string) string {
	t.Helper()

	resp := h.do(t, http.MethodPost, "/api/v1/memories", token, map[string]string{"content": content})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Data.ID)
	return created.Data.ID
}

func TestCreateAndGetMemory(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/memories", "token-alice", map[string]string{"content": "note to self"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Message string        `json:"message"`
		Data    domain.Memory `json:"data"`
	}
	raw := decodeBody(t, resp, &created)

	assert.Equal(t, "Memory created successfully", created.Message)
	assert.Equal(t, "note to self", created.Data.Content)
	assert.NotEmpty(t, created.Data.Tags)
	assert.NotContains(t, raw, "embedding")

	resp = h.do(t, http.MethodGet, "/api/v1/memories/"+created.Data.ID, "token-alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.Memory
	raw = decodeBody(t, resp, &got)
	assert.Equal(t, created.Data.ID, got.ID)
	assert.Equal(t, "note to self", got.Content)
	assert.NotContains(t, raw, "embedding")
}

func TestCreateMemoryValidation(t *testing.T) {
	h := newHarness(t, true)

	t.Run("EmptyContent", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/v1/memories", "token-alice", map[string]string{"content": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, h.server.URL+"/api/v1/memories", strings.NewReader("{not json"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer token-alice")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("EnrichmentFailure", func(t *testing.T) {
		h.enricher.tagErr = pkgerrors.NewDependencyError("Failed to generate tags for the content", nil)
		defer func() { h.enricher.tagErr = nil }()

		resp := h.do(t, http.MethodPost, "/api/v1/memories", "token-alice", map[string]string{"content": "valid"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestSearchMemoriesEndpoint(t *testing.T) {
	h := newHarness(t, true)
	for i := 0; i < 5; i++ {
		createMemory(t, h, "token-alice", fmt.Sprintf("memory number %d", i))
	}

	t.Run("ListAll", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories", "token-alice", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var memories []domain.Memory
		decodeBody(t, resp, &memories)
		assert.Len(t, memories, 5)
	})

	t.Run("LimitCaps", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories?limit=3", "token-alice", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var memories []domain.Memory
		decodeBody(t, resp, &memories)
		assert.Len(t, memories, 3)
	})

	t.Run("BadLimits", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "abc"} {
			resp := h.do(t, http.MethodGet, "/api/v1/memories?limit="+limit, "token-alice", nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
			resp.Body.Close()
		}
	})

	t.Run("KeywordFilter", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories?keyword=NUMBER+3", "token-alice", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var memories []domain.Memory
		decodeBody(t, resp, &memories)
		require.Len(t, memories, 1)
		assert.Equal(t, "memory number 3", memories[0].Content)
	})

	t.Run("OtherUserSeesNothing", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories", "token-bob", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var memories []domain.Memory
		decodeBody(t, resp, &memories)
		assert.Empty(t, memories)
	})
}

func TestUpdateMemoryEndpoint(t *testing.T) {
	h := newHarness(t, true)
	id := createMemory(t, h, "token-alice", "original")

	t.Run("NoFields", func(t *testing.T) {
		resp := h.do(t, http.MethodPut, "/api/v1/memories/"+id, "token-alice", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("TagsOnly", func(t *testing.T) {
		resp := h.do(t, http.MethodPut, "/api/v1/memories/"+id, "token-alice",
			map[string]interface{}{"tags": []string{"new-tag"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated struct {
			Data domain.Memory `json:"data"`
		}
		decodeBody(t, resp, &updated)
		assert.Equal(t, "original", updated.Data.Content)
		assert.Equal(t, []string{"new-tag"}, updated.Data.Tags)
	})

	t.Run("ForeignOwnerGets404", func(t *testing.T) {
		resp := h.do(t, http.MethodPut, "/api/v1/memories/"+id, "token-bob",
			map[string]string{"content": "hijack"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestDeleteMemoryEndpoint(t *testing.T) {
	h := newHarness(t, true)
	id := createMemory(t, h, "token-alice", "short lived")

	t.Run("ForeignOwnerGets404", func(t *testing.T) {
		resp := h.do(t, http.MethodDelete, "/api/v1/memories/"+id, "token-bob", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("DeleteReturns204EmptyBody", func(t *testing.T) {
		resp := h.do(t, http.MethodDelete, "/api/v1/memories/"+id, "token-alice", nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		body := decodeBody(t, resp, nil)
		assert.Empty(t, body)
	})

	t.Run("SecondDeleteReturns404", func(t *testing.T) {
		resp := h.do(t, http.MethodDelete, "/api/v1/memories/"+id, "token-alice", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestGetMemoryNotFound(t *testing.T) {
	h := newHarness(t, true)

	t.Run("UnknownID", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories/33333333-3333-3333-3333-333333333333", "token-alice", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("MalformedID", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories/not-a-uuid", "token-alice", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t, true)

	t.Run("MissingToken", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("InvalidToken", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/v1/memories", "token-mallory", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUnauthenticatedVariant(t *testing.T) {
	h := newHarness(t, false)

	// No token needed for create and list.
	resp := h.do(t, http.MethodPost, "/api/v1/memories", "", map[string]string{"content": "open note"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, "/api/v1/memories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var memories []domain.Memory
	decodeBody(t, resp, &memories)
	assert.Len(t, memories, 1)
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
