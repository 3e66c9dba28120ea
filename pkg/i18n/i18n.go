package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Embedded returns the locale files shipped with the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

type I18nService struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
	defaultLang  string
}

func NewI18n(defaultLang string) *I18nService {
	return &I18nService{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}
}

// LoadLanguages reads every <lang>.yaml file at the root of fsys.
func (s *I18nService) LoadLanguages(fsys fs.FS) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}

	for _, file := range files {
		ext := path.Ext(file.Name())
		if file.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		langCode := strings.TrimSuffix(file.Name(), ext)

		content, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", file.Name(), err)
		}

		var data map[string]string
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse yaml %s: %w", file.Name(), err)
		}

		s.translations[langCode] = data
	}

	return nil
}

// Get looks the key up in lang (full tag, then primary subtag), then in the
// default language. The key itself is returned when nothing matches.
func (s *I18nService) Get(lang, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	primary, _, _ := strings.Cut(lang, "-")
	for _, l := range []string{lang, primary, s.defaultLang} {
		if langData, ok := s.translations[l]; ok {
			if val, ok := langData[key]; ok {
				return val
			}
		}
	}

	return key
}

// Languages lists the loaded language codes in sorted order.
func (s *I18nService) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	langs := make([]string, 0, len(s.translations))
	for l := range s.translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

func (s *I18nService) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(s.Get(lang, key), args...)
}
