package coingecko

import (
	"fmt"
	"net/http"
)

// ========== 错误类型层次结构 ==========

// Error 基础错误接口
type Error interface {
	error
	GetType() string
	GetCode() int
}

// BaseError 基础错误结构
type BaseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) GetType() string {
	return e.Type
}

func (e *BaseError) GetCode() int {
	return e.Code
}

// ========== 网络和连接错误 ==========

// NetworkError 网络错误
type NetworkError struct {
	*BaseError
}

func NewNetworkError(message string) *NetworkError {
	return &NetworkError{
		BaseError: &BaseError{
			Type:    "NetworkError",
			Message: message,
		},
	}
}

// RequestTimeout 请求超时错误
type RequestTimeout struct {
	*BaseError
}

func NewRequestTimeout(message string) *RequestTimeout {
	return &RequestTimeout{
		BaseError: &BaseError{
			Type:    "RequestTimeout",
			Message: message,
		},
	}
}

// ServiceUnavailable 上游服务不可用错误（5xx）
type ServiceUnavailable struct {
	*BaseError
}

func NewServiceUnavailable(message string) *ServiceUnavailable {
	return &ServiceUnavailable{
		BaseError: &BaseError{
			Type:    "ServiceUnavailable",
			Message: message,
		},
	}
}

// ========== 限流错误 ==========

// RateLimitExceeded 限流错误
type RateLimitExceeded struct {
	*BaseError
	RetryAfter int // 重试等待时间（秒）
}

func NewRateLimitExceeded(message string, retryAfter int) *RateLimitExceeded {
	return &RateLimitExceeded{
		BaseError: &BaseError{
			Type:    "RateLimitExceeded",
			Message: message,
			Code:    429,
		},
		RetryAfter: retryAfter,
	}
}

// ========== 参数和请求错误 ==========

// BadRequest 错误请求（4xx，不可重试）
type BadRequest struct {
	*BaseError
}

func NewBadRequest(message string) *BadRequest {
	return &BadRequest{
		BaseError: &BaseError{
			Type:    "BadRequest",
			Message: message,
			Code:    400,
		},
	}
}

// ========== 错误工厂和处理函数 ==========

// errorFromStatus 从HTTP状态码创建错误
func errorFromStatus(statusCode int, statusText string, retryAfter int) Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		if retryAfter <= 0 {
			retryAfter = 60
		}
		return NewRateLimitExceeded("too many requests", retryAfter)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return NewServiceUnavailable(fmt.Sprintf("HTTP %d: %s", statusCode, statusText))
	case http.StatusGatewayTimeout:
		return NewRequestTimeout("gateway timeout")
	default:
		if statusCode >= 500 {
			return NewServiceUnavailable(fmt.Sprintf("HTTP %d: %s", statusCode, statusText))
		}
		if statusCode >= 400 {
			return NewBadRequest(fmt.Sprintf("HTTP %d: %s", statusCode, statusText))
		}
		return NewNetworkError(fmt.Sprintf("HTTP %d: %s", statusCode, statusText))
	}
}

// IsRetryable 检查错误是否可重试
func IsRetryable(err error) bool {
	switch err.(type) {
	case *NetworkError, *RequestTimeout, *ServiceUnavailable:
		return true
	case *RateLimitExceeded:
		return true // 可以等待后重试
	default:
		return false
	}
}

// GetRetryDelay 获取限流错误指定的重试延迟时间(秒)，其余错误返回0
func GetRetryDelay(err error) int {
	if rateLimitErr, ok := err.(*RateLimitExceeded); ok {
		return rateLimitErr.RetryAfter
	}
	return 0
}
