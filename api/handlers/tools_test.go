package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/cogniflow/cognition"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := cognition.New(nil, nil, logger)
	tools := NewToolHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tools", tools.HandleListTools)
	mux.HandleFunc("POST /v1/tools/{name}", tools.HandleCallTool)
	mux.HandleFunc("GET /v1/resources", tools.HandleListResources)
	mux.Handle("GET /v1/ws", NewWSHandler(svc, nil, logger))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postTool(t *testing.T, srv *httptest.Server, name, body string) (int, apiResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/tools/"+name, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestToolHandler_CallTool(t *testing.T) {
	srv := newTestServer(t)

	code, out := postTool(t, srv, "memory_store", `{"content":"Cache GET responses","relevance":0.8}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, out.Success)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(out.Data, &stored))
	assert.Contains(t, stored["item_id"], "memory-")

	code, out = postTool(t, srv, "memory_retrieve", `{"query":"cache"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(out.Data), "Cache GET responses")
}

func TestToolHandler_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		tool       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown tool", "example_tool_method", `{}`, http.StatusNotFound, "UNKNOWN_OPERATION"},
		{"invalid argument", "memory_store", `{}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"missing target", "react_reflect", `{"session_id":"react-missing"}`, http.StatusNotFound, "TARGET_NOT_FOUND"},
		{"bad body", "reason", `[1,2]`, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := postTool(t, srv, tt.tool, tt.body)
			assert.Equal(t, tt.wantStatus, code)
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.wantCode, out.Error.Code)
		})
	}
}

func TestToolHandler_CallToolRejectsContentType(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/v1/tools/reason", "text/plain", strings.NewReader(`{"query":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestToolHandler_Listings(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/tools")
	require.NoError(t, err)
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	var tools []cognition.ToolInfo
	require.NoError(t, json.Unmarshal(out.Data, &tools))
	assert.Len(t, tools, 21)

	resp, err = http.Get(srv.URL + "/v1/resources")
	require.NoError(t, err)
	out = apiResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Contains(t, string(out.Data), cognition.ResourceKnowledgeGraph)

	resp, err = http.Get(srv.URL + "/v1/resources?uri=" + cognition.ResourceCognitiveState)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/resources?uri=memory://nowhere")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestWSHandler_Roundtrip(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	exchange := func(req WSRequest) map[string]any {
		require.NoError(t, wsjson.Write(ctx, conn, req))
		var resp map[string]any
		require.NoError(t, wsjson.Read(ctx, conn, &resp))
		assert.Equal(t, req.ID, resp["id"])
		return resp
	}

	listed := exchange(WSRequest{ID: "1", Method: MethodToolsList})
	assert.Len(t, listed["result"], 21)

	started := exchange(WSRequest{ID: "2", Method: MethodToolsCall, Tool: "react_start_session", Arguments: map[string]any{"goal": "Research caching"}})
	result := started["result"].(map[string]any)
	assert.NotEmpty(t, result["session_id"])

	failed := exchange(WSRequest{ID: "3", Method: MethodToolsCall, Tool: "react_start_session"})
	assert.Equal(t, "INVALID_ARGUMENT", failed["error"].(map[string]any)["code"])

	unknown := exchange(WSRequest{ID: "4", Method: "tools/delete"})
	assert.Equal(t, "UNKNOWN_OPERATION", unknown["error"].(map[string]any)["code"])

	read := exchange(WSRequest{ID: "5", Method: MethodResourcesRead, URI: cognition.ResourceWorkingMemory})
	assert.Nil(t, read["error"])
}
