package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/cognition"
	"github.com/BaSui01/cogniflow/types"
)

// =============================================================================
// 🧠 工具调用 Handler
// =============================================================================

// ToolService 工具与资源的调用面，由 cognition.Service 实现
type ToolService interface {
	Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Tools() []cognition.ToolInfo
	Resources() []cognition.ResourceInfo
	ReadResource(uri string) (json.RawMessage, error)
}

// ToolHandler 工具与资源的 HTTP 处理器
type ToolHandler struct {
	svc    ToolService
	logger *zap.Logger
}

// NewToolHandler 创建工具处理器
func NewToolHandler(svc ToolService, logger *zap.Logger) *ToolHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolHandler{
		svc:    svc,
		logger: logger.With(zap.String("component", "tool_handler")),
	}
}

// HandleListTools 处理 GET /v1/tools
func (h *ToolHandler) HandleListTools(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.svc.Tools())
}

// HandleCallTool 处理 POST /v1/tools/{name}，请求体即参数记录
func (h *ToolHandler) HandleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "tool name is required", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	args, err := DecodeArgs(w, r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out, err := h.svc.Call(r.Context(), name, args)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, out)
}

// HandleListResources 处理 GET /v1/resources；带 uri 参数时读取单个资源
func (h *ToolHandler) HandleListResources(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		WriteSuccess(w, h.svc.Resources())
		return
	}
	out, err := h.svc.ReadResource(uri)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, out)
}
