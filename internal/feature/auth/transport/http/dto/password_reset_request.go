package dto

// PasswordResetReq は/password-resetエンドポイントのリクエストボディを表します。
type PasswordResetReq struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetCompleteReq は/password-reset/completeエンドポイントのリクエストボディを表します。
// 新しいパスワードには登録時と同じ最低文字数を要求します。
type PasswordResetCompleteReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}
