package domain

// State は生成処理の終了状態です。
type State string

const (
	// StateSucceeded は 1 枚以上の画像が保存できた状態です。
	StateSucceeded State = "succeeded"
	// StateFailed は画像を 1 枚も返せなかった状態です。
	StateFailed State = "failed"
)

// Result は生成・編集オペレーションの結果です。
// 成功時は Images に公開 URL が 1 件以上入り、失敗時は Err が設定されます。
type Result struct {
	State State

	// Images は保存済み画像の公開 URL のリストです。
	Images []string

	// EnhancedPrompt は補正が行われた場合の最終プロンプトです。
	// 補正なし・補正失敗時は空文字列になります。
	EnhancedPrompt string

	Err *Error
}

// Succeeded は成功結果を構築します。
func Succeeded(images []string, enhancedPrompt string) Result {
	return Result{
		State:          StateSucceeded,
		Images:         images,
		EnhancedPrompt: enhancedPrompt,
	}
}

// Failed は失敗結果を構築します。err は *Error に正規化されます。
func Failed(err error) Result {
	return Result{
		State: StateFailed,
		Err:   AsError(err),
	}
}

// OK は成功かつ画像が 1 件以上あるかを返します。
// 呼び出し側は State だけでなくこの条件で分岐します。
func (r Result) OK() bool {
	return r.State == StateSucceeded && len(r.Images) > 0
}
