package i18n

// DefaultMessages returns built-in translations for all supported locales.
// These can be overridden by loading JSON files from a directory.
func DefaultMessages() map[Locale]map[string]string {
	return map[Locale]map[string]string{
		LocaleKo: koMessages,
		LocaleEn: enMessages,
		LocaleJa: jaMessages,
	}
}

var koMessages = map[string]string{
	// Common errors
	"error.not_found":    "요청한 리소스를 찾을 수 없습니다",
	"error.unauthorized": "인증이 필요합니다",
	"error.bad_request":  "잘못된 요청입니다",
	"error.internal":     "서버 내부 오류가 발생했습니다",
	"error.validation":   "입력값이 올바르지 않습니다",
	"error.conflict":     "다른 사용자가 먼저 수정했습니다. 다시 시도해주세요",

	// Revisions (%s = subject label)
	"revision.create":    "%s 생성",
	"revision.update":    "%s 수정",
	"revision.delete":    "%s 삭제",
	"revision.publish":   "%s 발행",
	"revision.revert":    "%s 복원",
	"revision.reverted":  "리비전 %s(으)로 복원",
	"revision.not_found": "리비전을 찾을 수 없습니다",
	"revision.mismatch":  "다른 대상의 리비전입니다",
}

var enMessages = map[string]string{
	// Common errors
	"error.not_found":    "The requested resource was not found",
	"error.unauthorized": "Authentication is required",
	"error.bad_request":  "Invalid request",
	"error.internal":     "An internal server error occurred",
	"error.validation":   "Invalid input",
	"error.conflict":     "Someone else changed this first. Please retry",

	// Revisions (%s = subject label)
	"revision.create":    "%s created",
	"revision.update":    "%s updated",
	"revision.delete":    "%s deleted",
	"revision.publish":   "%s published",
	"revision.revert":    "%s reverted",
	"revision.reverted":  "Reverted to revision %s",
	"revision.not_found": "Revision not found",
	"revision.mismatch":  "Revision belongs to a different subject",
}

var jaMessages = map[string]string{
	// Common errors
	"error.not_found":    "リクエストされたリソースが見つかりません",
	"error.unauthorized": "認証が必要です",
	"error.bad_request":  "無効なリクエストです",
	"error.internal":     "サーバー内部エラーが発生しました",
	"error.validation":   "入力値が正しくありません",
	"error.conflict":     "他のユーザーが先に変更しました。再試行してください",

	// Revisions (%s = subject label)
	"revision.create":    "%sを作成",
	"revision.update":    "%sを更新",
	"revision.delete":    "%sを削除",
	"revision.publish":   "%sを公開",
	"revision.revert":    "%sを復元",
	"revision.reverted":  "リビジョン %s に復元",
	"revision.not_found": "リビジョンが見つかりません",
	"revision.mismatch":  "別の対象のリビジョンです",
}
