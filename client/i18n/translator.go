// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package i18n formats user-facing notification text from per-topic
// templates, with locale-aware number formatting.
package i18n

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translation is the subject and message template of a topic.
type Translation struct {
	Subject  string
	Template string
	// Stale marks a translation that has not kept up with the origin
	// language.
	Stale bool
}

// DocumentedTranslation is an origin language Translation with notes for
// translators.
type DocumentedTranslation struct {
	*Translation
	Docs string
}

// OriginLang is the language every topic is first written in.
var OriginLang = language.AmericanEnglish

var (
	pkgMtx         sync.Mutex
	pkgTranslators = make(map[string]*PackageTranslator)
)

// PackageTranslator holds the translations of one package's topics. Each
// PackageTranslator has its own message catalog, so topic names need only be
// unique within the package.
type PackageTranslator struct {
	pkg     string
	builder *catalog.Builder
	// origin formats topics the active language has no translation for.
	origin *message.Printer

	mtx     sync.RWMutex
	lang    language.Tag
	docs    map[string]*DocumentedTranslation
	dicts   map[language.Tag]map[string]*Translation
	printer *message.Printer
}

// NewPackageTranslator creates the translator for a package, with OriginLang
// as the active language.
func NewPackageTranslator(pkg string) *PackageTranslator {
	b := catalog.NewBuilder(catalog.Fallback(OriginLang))
	t := &PackageTranslator{
		pkg:     pkg,
		builder: b,
		origin:  message.NewPrinter(OriginLang, message.Catalog(b)),
		lang:    OriginLang,
		docs:    make(map[string]*DocumentedTranslation),
		dicts:   map[language.Tag]map[string]*Translation{OriginLang: {}},
		printer: message.NewPrinter(OriginLang, message.Catalog(b)),
	}
	pkgMtx.Lock()
	pkgTranslators[pkg] = t
	pkgMtx.Unlock()
	return t
}

// Register adds an origin language topic.
func (t *PackageTranslator) Register(topic string, tln *DocumentedTranslation) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.docs[topic] = tln
	t.dicts[OriginLang][topic] = tln.Translation
	if err := t.builder.SetString(OriginLang, topic, tln.Template); err != nil {
		panic(fmt.Sprintf("SetString(%s, %s): %v", OriginLang, topic, err)) // programmer error
	}
}

// RegisterLang adds a translation of an origin topic.
func (t *PackageTranslator) RegisterLang(lang language.Tag, topic string, tln *Translation) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	dict, found := t.dicts[lang]
	if !found {
		dict = make(map[string]*Translation)
		t.dicts[lang] = dict
	}
	dict[topic] = tln
	if err := t.builder.SetString(lang, topic, tln.Template); err != nil {
		panic(fmt.Sprintf("SetString(%s, %s): %v", lang, topic, err)) // programmer error
	}
}

// SetLanguage changes the active language. Topics without a translation
// fall back to the origin language.
func (t *PackageTranslator) SetLanguage(lang language.Tag) {
	t.mtx.Lock()
	t.lang = lang
	t.printer = message.NewPrinter(lang, message.Catalog(t.builder))
	t.mtx.Unlock()
}

// Format gives the subject and message of a topic in the active language.
func (t *PackageTranslator) Format(topic string, args ...any) (subject, msg string) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	if tln, found := t.dicts[t.lang][topic]; found {
		return tln.Subject, t.printer.Sprintf(topic, args...)
	}
	orig, found := t.docs[topic]
	if !found {
		return topic, "translation error"
	}
	return orig.Subject, t.origin.Sprintf(topic, args...)
}

// Langs lists the languages with at least one translation.
func (t *PackageTranslator) Langs() []language.Tag {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	langs := make([]language.Tag, 0, len(t.dicts))
	for lang := range t.dicts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].String() < langs[j].String() })
	return langs
}

// CheckTopicLangs reports the missing and stale translations of a package's
// topics, by language.
func CheckTopicLangs(pkg string) (missing, stale map[language.Tag][]string) {
	pkgMtx.Lock()
	t := pkgTranslators[pkg]
	pkgMtx.Unlock()
	missing = make(map[language.Tag][]string)
	stale = make(map[language.Tag][]string)
	if t == nil {
		return
	}

	t.mtx.RLock()
	defer t.mtx.RUnlock()
	for lang, translations := range t.dicts {
		if lang == OriginLang {
			continue
		}
		var missingTopics, staleTopics []string
		for topic := range t.docs {
			tln, found := translations[topic]
			if !found {
				missingTopics = append(missingTopics, topic)
			} else if tln.Stale {
				staleTopics = append(staleTopics, topic)
			}
		}
		sort.Strings(missingTopics)
		sort.Strings(staleTopics)
		if len(missingTopics) > 0 {
			missing[lang] = missingTopics
		}
		if len(staleTopics) > 0 {
			stale[lang] = staleTopics
		}
	}
	return
}
