// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package i18n

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestPackageTranslator(t *testing.T) {
	tr := NewPackageTranslator("i18ntest")
	tr.Register("greet", &DocumentedTranslation{
		Translation: &Translation{Subject: "Hello", Template: "Staked %d MIAU"},
		Docs:        "args: amount",
	})
	tr.Register("bye", &DocumentedTranslation{
		Translation: &Translation{Subject: "Bye", Template: "See you, %s"},
	})

	subject, msg := tr.Format("greet", 5000)
	if subject != "Hello" || msg != "Staked 5,000 MIAU" {
		t.Fatalf("wrong formatting %q: %q", subject, msg)
	}
	if subject, msg = tr.Format("nope"); subject != "nope" || msg != "translation error" {
		t.Fatalf("wrong unknown topic result %q: %q", subject, msg)
	}

	de := language.German
	tr.RegisterLang(de, "greet", &Translation{Subject: "Hallo", Template: "%d MIAU gestakt"})
	tr.SetLanguage(de)
	subject, msg = tr.Format("greet", 5000)
	if subject != "Hallo" || !strings.HasSuffix(msg, " MIAU gestakt") {
		t.Fatalf("wrong German formatting %q: %q", subject, msg)
	}
	// Falls back to the origin language.
	if subject, msg = tr.Format("bye", "Nella"); subject != "Bye" || msg != "See you, Nella" {
		t.Fatalf("wrong fallback %q: %q", subject, msg)
	}

	missing, stale := CheckTopicLangs("i18ntest")
	if len(missing[de]) != 1 || missing[de][0] != "bye" || len(stale) != 0 {
		t.Fatalf("wrong missing/stale report %v, %v", missing, stale)
	}
	if len(tr.Langs()) != 2 {
		t.Fatalf("wrong languages %v", tr.Langs())
	}
}
