package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/cogniflow/types"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// =============================================================================
// 📦 通用响应结构
// =============================================================================

// Response 统一 API 响应结构
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo 错误信息结构
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Operation  string `json:"operation,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
	HTTPStatus int    `json:"-"`
}

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 头已写出，编码失败无法补救
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess 写入成功响应
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// errorInfo 把任意错误转换为响应错误体
func errorInfo(err error) *ErrorInfo {
	e, ok := types.AsError(err)
	if !ok {
		e = types.NewError(types.ErrInternalError, "internal error").WithCause(err)
	}
	status := e.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(e.Code)
	}
	return &ErrorInfo{
		Code:       string(e.Code),
		Message:    e.Message,
		Operation:  e.Operation,
		Retryable:  e.Retryable,
		HTTPStatus: status,
	}
}

// WriteError 写入错误响应，非 *types.Error 按 INTERNAL_ERROR 处理
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	info := errorInfo(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("code", info.Code),
			zap.String("operation", info.Operation),
			zap.Int("status", info.HTTPStatus),
			zap.Error(err),
		}
		if info.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("API error", fields...)
		} else {
			logger.Debug("API error", fields...)
		}
	}

	WriteJSON(w, info.HTTPStatus, Response{
		Success:   false,
		Error:     info,
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage 写入简单错误消息
func WriteErrorMessage(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message).WithHTTPStatus(status), logger)
}

// =============================================================================
// 🔄 错误码到 HTTP 状态码映射
// =============================================================================

func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidArgument, types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrTargetNotFound, types.ErrUnknownOperation:
		return http.StatusNotFound
	case types.ErrSessionNotActive:
		return http.StatusConflict
	case types.ErrRateLimited:
		return http.StatusTooManyRequests
	case types.ErrTimeout:
		return http.StatusGatewayTimeout
	case types.ErrPersistenceFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 🛡️ 请求解析
// =============================================================================

// DecodeArgs 把请求体解码为扁平参数记录，空请求体得到空记录
func DecodeArgs(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	args := map[string]any{}
	if r.Body == nil {
		return args, nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, types.NewError(types.ErrInvalidRequest, "request body must be a JSON object").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ValidateContentType 有请求体时要求 application/json
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	if r.ContentLength == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		WriteErrorMessage(w, http.StatusUnsupportedMediaType, types.ErrInvalidRequest, "Content-Type must be application/json", logger)
		return false
	}
	return true
}

// =============================================================================
// 📊 响应包装器（用于捕获状态码）
// =============================================================================

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader 重写 WriteHeader 以捕获状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write 重写 Write 以标记已写入
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 取得底层 ResponseWriter
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack 供 websocket 升级接管连接
func (rw *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}
