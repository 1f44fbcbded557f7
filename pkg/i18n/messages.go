package i18n

// DefaultMessages returns built-in translations for all supported locales.
// These can be overridden by loading JSON files from a directory.
// English labels live in code as TDefault defaults, so only ko/ja are listed.
func DefaultMessages() map[Locale]map[string]string {
	return map[Locale]map[string]string{
		LocaleKo: koMessages,
		LocaleJa: jaMessages,
	}
}

var koMessages = map[string]string{
	// Element edit form
	"BaseElement.TitleLabel":      "제목 (체크 시 표시)",
	"BaseElement.ShowTitleLabel":  "표시",
	"ElementObject.db_Name":       "이름",
	"ElementObject.db_Content":    "내용",
	"ElementObject.has_one_Image": "이미지",

	// Errors
	"error.not_found":    "요청한 리소스를 찾을 수 없습니다",
	"error.forbidden":    "접근 권한이 없습니다",
	"error.unauthorized": "인증이 필요합니다",
}

var jaMessages = map[string]string{
	"BaseElement.TitleLabel":     "タイトル（チェックすると表示）",
	"BaseElement.ShowTitleLabel": "表示",

	"error.not_found":    "リソースが見つかりません",
	"error.forbidden":    "アクセス権限がありません",
	"error.unauthorized": "認証が必要です",
}
