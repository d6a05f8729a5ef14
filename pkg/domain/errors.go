package domain

// ErrorKind は障害の分類です。トランスポート層はメッセージ文字列ではなく
// この種別で分岐します。
type ErrorKind string

const (
	// KindInvalidInput はリクエストフィールドの不備です。
	KindInvalidInput ErrorKind = "invalid_input"
	// KindCapability は選択されたプロバイダーが操作をサポートしない場合です。
	KindCapability ErrorKind = "capability"
	// KindUpstream はプロバイダー API・ネットワーク起因の失敗です。
	KindUpstream ErrorKind = "upstream"
	// KindProcessing はレスポンス解析・デコードの失敗です。
	KindProcessing ErrorKind = "processing"
	// KindStorage はローカル I/O の失敗です。
	KindStorage ErrorKind = "storage"
	// KindConfig は設定不備による致命的エラーです（リトライ不可）。
	KindConfig ErrorKind = "config"
	// KindService はサービスの初期化不足など、リクエスト以前の不備です。
	KindService ErrorKind = "service"
	// KindInternal は分類できない内部エラーです。
	KindInternal ErrorKind = "internal"
)

// Error は種別付きのサービスエラーです。
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap は元エラーを返します（errors.Is / errors.As 連携用）。
func (e *Error) Unwrap() error { return e.cause }

// Code は REST エンベロープ用のエラーコードを返します。
func (e *Error) Code() string {
	switch e.Kind {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindCapability, KindUpstream, KindProcessing:
		return "GENERATION_FAILED"
	case KindStorage, KindConfig:
		return "GENERATOR_ERROR"
	case KindService:
		return "SERVICE_ERROR"
	case KindInternal:
		return "INTERNAL_ERROR"
	default:
		return "SERVICE_ERROR"
	}
}

// NewError は種別とメッセージからエラーを作ります。
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError は元エラーを保持したまま種別を付与します。
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Invalid は入力エラーの短縮コンストラクタです。
func Invalid(message string) *Error {
	return NewError(KindInvalidInput, message)
}

// AsError は任意のエラーを *Error に正規化します。
// 既に *Error であればそのまま、それ以外は internal 扱いになります。
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return de
	}
	return &Error{Kind: KindInternal, Message: err.Error(), cause: err}
}
