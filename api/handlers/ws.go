package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/types"
)

// =============================================================================
// 🔌 WebSocket 工具通道
// =============================================================================

// WebSocket 方法
const (
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
)

// WSRequest 一帧请求
type WSRequest struct {
	ID        string         `json:"id"`
	Method    string         `json:"method"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	URI       string         `json:"uri,omitempty"`
}

// WSResponse 一帧响应，ID 与请求对应
type WSResponse struct {
	ID     string     `json:"id"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// WSHandler 在一条连接上顺序处理工具调用
type WSHandler struct {
	svc            ToolService
	logger         *zap.Logger
	originPatterns []string
}

// NewWSHandler 创建 WebSocket 处理器，originPatterns 为空时只接受同源连接
func NewWSHandler(svc ToolService, originPatterns []string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		svc:            svc,
		logger:         logger.With(zap.String("component", "ws_handler")),
		originPatterns: originPatterns,
	}
}

// ServeHTTP 升级连接并循环读取请求帧
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	for {
		var req WSRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				resp := WSResponse{Error: errorInfo(types.NewError(types.ErrInvalidRequest, "frame must be a JSON object"))}
				if werr := wsjson.Write(ctx, conn, resp); werr == nil {
					continue
				}
			}
			h.logger.Debug("websocket read failed", zap.Error(err))
			return
		}

		resp := h.dispatch(ctx, req)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, req WSRequest) WSResponse {
	resp := WSResponse{ID: req.ID}
	var (
		out any
		err error
	)
	switch req.Method {
	case MethodToolsList:
		out = h.svc.Tools()
	case MethodResourcesList:
		out = h.svc.Resources()
	case MethodToolsCall:
		args := req.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out, err = h.svc.Call(ctx, req.Tool, args)
	case MethodResourcesRead:
		out, err = h.svc.ReadResource(req.URI)
	default:
		err = types.NewUnknownOperationError(req.Method)
	}
	if err != nil {
		resp.Error = errorInfo(err)
		return resp
	}
	resp.Result = out
	return resp
}
