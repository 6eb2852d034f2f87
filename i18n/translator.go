package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":           "invalid type",
		"required":               "required property missing",
		"unknown_key":            "unknown key",
		"wrong_type":             "value is not an instance of the bound model",
		"null":                   "null is not allowed",
		"too_small":              "too small",
		"too_big":                "too big",
		"too_short":              "too short",
		"too_long":               "too long",
		"pattern":                "does not match pattern",
		"invalid_enum":           "value is not one of the allowed values",
		"invalid_format":         "invalid format",
		"rule":                   "rule not satisfied",
		"parse_error":            "parse error",
		"not_bound":              "schema is not bound",
		"duplicate_key":          "duplicate key",
		"uniqueness":             "duplicate value",
		"dependency_unavailable": "required service is not available",
	},
	"ja": {
		"invalid_type":           "型が不正です",
		"required":               "必須プロパティが不足しています",
		"unknown_key":            "未知のキーです",
		"wrong_type":             "バインドされたモデルのインスタンスではありません",
		"null":                   "null は許可されていません",
		"too_small":              "小さすぎます",
		"too_big":                "大きすぎます",
		"too_short":              "短すぎます",
		"too_long":               "長すぎます",
		"pattern":                "パターンに一致しません",
		"invalid_enum":           "許可された値ではありません",
		"invalid_format":         "形式が不正です",
		"rule":                   "ルールを満たしていません",
		"parse_error":            "解析エラー",
		"not_bound":              "スキーマがバインドされていません",
		"duplicate_key":          "キーが重複しています",
		"uniqueness":             "値が重複しています",
		"dependency_unavailable": "必要なサービスが利用できません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	if msg, ok := dictionaries[t.lang][code]; ok {
		return msg
	}
	return code
}

var (
	mu                           sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
