package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("hi-IN,hi;q=0.9,en;q=0.8") != "hi" {
		t.Fatalf("expected hi")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "en" {
		t.Fatalf("expected en fallback")
	}
	if DetectLanguage("") != "en" {
		t.Fatalf("expected default en")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("hi", "required") != "आवश्यक" {
		t.Fatalf("expected hindi translation")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// missing hindi entry -> english
	if T("hi", "alphanumeric") != "Only letters and digits are allowed" {
		t.Fatalf("expected en fallback for missing hi entry")
	}
	// unknown language -> english
	if T("es", "required") != "Required" {
		t.Fatalf("expected en fallback for es lang")
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != DefaultLang {
		t.Fatal("expected default")
	}
	ctx := WithLang(context.Background(), "hi")
	if LangFromContext(ctx) != "hi" {
		t.Fatal("expected hi")
	}
}
