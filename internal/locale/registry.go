// Package locale holds the set of content languages known to a running instance.
package locale

import (
	"fmt"
	"strings"

	"github.com/sha1n/relic-posts/internal/domain"
)

// Language describes one supported content language.
type Language struct {
	Code  string
	Label string
}

var knownLabels = map[string]string{
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"pt": "Português",
	"it": "Italiano",
}

// Registry is an immutable lookup table of supported languages.
// Build it once at startup and pass it to the components that need it.
type Registry struct {
	defaultLang string
	langs       []Language
	byCode      map[string]Language
}

// NewRegistry creates a registry. The default language must be among codes.
func NewRegistry(defaultLang string, codes []string) (*Registry, error) {
	defaultLang = normalize(defaultLang)
	if defaultLang == "" {
		return nil, fmt.Errorf("default language cannot be empty")
	}

	r := &Registry{
		defaultLang: defaultLang,
		byCode:      make(map[string]Language, len(codes)),
	}
	for _, code := range codes {
		code = normalize(code)
		if code == "" {
			continue
		}
		if _, dup := r.byCode[code]; dup {
			continue
		}
		label, ok := knownLabels[code]
		if !ok {
			label = code
		}
		lang := Language{Code: code, Label: label}
		r.langs = append(r.langs, lang)
		r.byCode[code] = lang
	}

	if _, ok := r.byCode[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q is not in the supported languages", defaultLang)
	}
	return r, nil
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Default returns the default language code.
func (r *Registry) Default() string {
	return r.defaultLang
}

// Languages returns the supported languages in configuration order.
func (r *Registry) Languages() []Language {
	out := make([]Language, len(r.langs))
	copy(out, r.langs)
	return out
}

// IsSupported reports whether code is a supported language.
func (r *Registry) IsSupported(code string) bool {
	_, ok := r.byCode[normalize(code)]
	return ok
}

// Resolve maps an optional language code to a supported one.
// An empty code resolves to the default language.
func (r *Registry) Resolve(code string) (string, error) {
	code = normalize(code)
	if code == "" {
		return r.defaultLang, nil
	}
	if _, ok := r.byCode[code]; !ok {
		return "", domain.NewError(domain.CodeNotFound, fmt.Sprintf("unsupported language %q", code), nil)
	}
	return code, nil
}

// PathPrefix returns the URL path prefix for a language: "" for the default
// language, "/<code>" otherwise.
func (r *Registry) PathPrefix(code string) string {
	code = normalize(code)
	if code == "" || code == r.defaultLang {
		return ""
	}
	return "/" + code
}

// CollectionName returns the content collection directory for a language:
// "posts" for the default language, "posts_<code>" otherwise.
func (r *Registry) CollectionName(code string) string {
	code = normalize(code)
	if code == "" || code == r.defaultLang {
		return "posts"
	}
	return "posts_" + code
}
