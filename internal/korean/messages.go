package korean

// Messages returns the localized UI strings for the given language code
// ("ko" or "en"). Any unrecognized code falls back to English.
func Messages(lang string) map[string]string {
	if lang == "ko" {
		return map[string]string{
			"loading":          "로딩 중...",
			"error":            "오류가 발생했습니다.",
			"success":          "성공적으로 완료되었습니다.",
			"empty_prompt":     "프롬프트를 입력해주세요.",
			"generating":       "생성 중...",
			"model_loading":    "모델을 로드하는 중입니다...",
			"model_loaded":     "모델이 로드되었습니다.",
			"chat_placeholder": "메시지를 입력하세요...",
			"send":             "전송",
			"clear":            "지우기",
			"generate":         "생성하기",
			"new_chat":         "새 채팅",
		}
	}
	return map[string]string{
		"loading":          "Loading...",
		"error":            "An error occurred.",
		"success":          "Completed successfully.",
		"empty_prompt":     "Please enter a prompt.",
		"generating":       "Generating...",
		"model_loading":    "Loading model...",
		"model_loaded":     "Model loaded.",
		"chat_placeholder": "Type your message...",
		"send":             "Send",
		"clear":            "Clear",
		"generate":         "Generate",
		"new_chat":         "New Chat",
	}
}
