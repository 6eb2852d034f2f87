package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeFallsBackToCode(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestTranslator_Custom(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("wrong_type", nil); msg != "X:wrong_type" {
		t.Fatalf("got %q", msg)
	}
}

func TestTranslator_EveryCodeHasBothLanguages(t *testing.T) {
	en, ja := dictionaries["en"], dictionaries["ja"]
	if len(en) != len(ja) {
		t.Fatalf("en has %d messages, ja has %d", len(en), len(ja))
	}
	for code, msg := range en {
		if ja[code] == "" || ja[code] == msg {
			t.Errorf("%s: missing japanese message", code)
		}
	}
	defer SetLanguage("en")
	SetLanguage("fr")
	if msg := T("duplicate_key", nil); msg != "duplicate key" {
		t.Fatalf("unsupported language should fall back to en, got %q", msg)
	}
}
