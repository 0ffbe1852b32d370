// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/clothtracker/internal/middleware"
	"github.com/hitoshi/clothtracker/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewValidationError("リクエストボディの形式が正しくありません。")
	}
	return nil
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeCodeMismatch,
		model.ErrCodeTokenInvalid, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeEmailNotConfirmed:
		return http.StatusForbidden
	case model.ErrCodeAlreadyRegistered:
		return http.StatusConflict
	case model.ErrCodeConfigRequired:
		return http.StatusUnprocessableEntity
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidCategory:
		return http.StatusBadRequest
	case model.ErrCodeItemNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラーはログに記録し、一般的な500レスポンスを返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
