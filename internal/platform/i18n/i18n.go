// Package i18n renders user-facing strings from YAML catalogs embedded in the binary.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when nothing better can be negotiated.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var catalogs embed.FS

// Bundle holds flattened message catalogs keyed by locale then dotted key.
type Bundle struct {
	messages map[string]map[string]string
	locales  []string
	matcher  language.Matcher
}

// Load parses the embedded catalogs.
func Load() (*Bundle, error) {
	return LoadFS(catalogs, "locales")
}

// MustLoad is Load for process start-up.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFS parses every <locale>.yaml file found in dir. The default locale must be present.
func LoadFS(fsys fs.FS, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalogs: %w", err)
	}
	b := &Bundle{messages: map[string]map[string]string{}}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		b.messages[strings.TrimSuffix(name, ".yaml")] = flat
	}
	if _, ok := b.messages[DefaultLocale]; !ok {
		return nil, fmt.Errorf("catalog for default locale %q missing", DefaultLocale)
	}

	// The default locale goes first so the matcher falls back to it.
	b.locales = append(b.locales, DefaultLocale)
	others := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		if locale != DefaultLocale {
			others = append(others, locale)
		}
	}
	sort.Strings(others)
	b.locales = append(b.locales, others...)
	tags := make([]language.Tag, 0, len(b.locales))
	for _, locale := range b.locales {
		tags = append(tags, language.Make(locale))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// Locales lists supported locales, default first.
func (b *Bundle) Locales() []string {
	return append([]string(nil), b.locales...)
}

// Supported reports whether a catalog exists for the locale.
func (b *Bundle) Supported(locale string) bool {
	_, ok := b.messages[normalize(locale)]
	return ok
}

// T renders key in locale. Arguments are name/value pairs substituted into
// {name} placeholders. Missing keys fall back to the default locale, then to the key.
func (b *Bundle) T(locale, key string, args ...any) string {
	msg, ok := b.lookup(normalize(locale), key)
	if !ok {
		msg, ok = b.lookup(DefaultLocale, key)
	}
	if !ok {
		msg = key
	}
	if len(args) < 2 {
		return msg
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+fmt.Sprint(args[i])+"}", fmt.Sprint(args[i+1]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Has reports whether key exists in locale or the default catalog.
func (b *Bundle) Has(locale, key string) bool {
	if _, ok := b.lookup(normalize(locale), key); ok {
		return true
	}
	_, ok := b.lookup(DefaultLocale, key)
	return ok
}

func (b *Bundle) lookup(locale, key string) (string, bool) {
	catalog, ok := b.messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok
}

// Match negotiates an Accept-Language header against the supported locales.
// It returns "" when the header holds nothing usable.
func (b *Bundle) Match(acceptLanguage string) string {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, confidence := b.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(b.locales) {
		return ""
	}
	return b.locales[idx]
}

// Resolve picks the request locale: explicit query, cookie, profile
// preference, Accept-Language, then the default.
func (b *Bundle) Resolve(query, cookie, profile, acceptLanguage string) string {
	for _, candidate := range []string{query, cookie, profile} {
		if candidate = normalize(candidate); candidate != "" && b.Supported(candidate) {
			return candidate
		}
	}
	if matched := b.Match(acceptLanguage); matched != "" {
		return matched
	}
	return DefaultLocale
}

// Direction reports the text direction of a locale.
func Direction(locale string) string {
	base, _ := language.Make(locale).Base()
	switch base.String() {
	case "ar", "he", "fa", "ur":
		return "rtl"
	default:
		return "ltr"
	}
}

func normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	return locale
}
