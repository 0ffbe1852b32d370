package handler

import "net/http"

// SetupStatus はデプロイ設定の状態を表す。
// フロントエンドのセットアップガイドがこの情報を表示する。
type SetupStatus struct {
	// MailerConfigured はSMTPが設定されているかどうか。
	MailerConfigured bool `json:"mailer_configured"`
	// EmailConfirmations はパスワード登録後のメール確認が有効かどうか。
	EmailConfirmations bool `json:"email_confirmations"`
	// AvailableFlows は現在の設定で利用できる認証フローの一覧。
	AvailableFlows []string `json:"available_flows"`
}

// SetupHandler はセットアップ状態確認のHTTPハンドラー。
type SetupHandler struct {
	status SetupStatus
}

// NewSetupHandler はSetupHandlerを生成する。
// 利用可能フローは設定から導出する: パスワード認証は常に使えるが、
// コード・リンク系のフローはSMTPが設定されている場合のみ。
func NewSetupHandler(mailerConfigured, emailConfirmations bool) *SetupHandler {
	flows := []string{"password"}
	if mailerConfigured {
		flows = append(flows, "link", "otp", "hybrid")
	}
	return &SetupHandler{
		status: SetupStatus{
			MailerConfigured:   mailerConfigured,
			EmailConfirmations: emailConfirmations,
			AvailableFlows:     flows,
		},
	}
}

// Status は現在のセットアップ状態を返す。
// GET /api/setup/status
func (h *SetupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status)
}
