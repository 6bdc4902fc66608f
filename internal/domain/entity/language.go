package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Language поддерживаемый язык перевода
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// LanguageSet неизменяемый набор языков, создаётся один раз при старте.
type LanguageSet struct {
	source string
	byCode map[string]Language
	list   []Language
}

// NewLanguageSet проверяет список и строит набор.
// source: язык исходных меток модели, он обязан входить в набор.
func NewLanguageSet(source string, langs []Language) (*LanguageSet, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("language set is empty")
	}

	set := &LanguageSet{
		source: NormalizeLanguageCode(source),
		byCode: make(map[string]Language, len(langs)),
		list:   make([]Language, 0, len(langs)),
	}
	for _, l := range langs {
		code := NormalizeLanguageCode(l.Code)
		if code == "" {
			return nil, fmt.Errorf("language %q: empty code", l.DisplayName)
		}
		if strings.TrimSpace(l.DisplayName) == "" {
			return nil, fmt.Errorf("language %q: empty display name", code)
		}
		if _, dup := set.byCode[code]; dup {
			return nil, fmt.Errorf("language %q: duplicate code", code)
		}
		lang := Language{Code: code, DisplayName: strings.TrimSpace(l.DisplayName)}
		set.byCode[code] = lang
		set.list = append(set.list, lang)
	}
	if _, ok := set.byCode[set.source]; !ok {
		return nil, fmt.Errorf("source language %q is not in the language set", source)
	}

	sort.Slice(set.list, func(i, j int) bool { return set.list[i].Code < set.list[j].Code })
	return set, nil
}

// Source язык исходных меток
func (s *LanguageSet) Source() string {
	return s.source
}

// Lookup ищет язык по коду
func (s *LanguageSet) Lookup(code string) (Language, bool) {
	l, ok := s.byCode[NormalizeLanguageCode(code)]
	return l, ok
}

// Supports сообщает, входит ли код в набор
func (s *LanguageSet) Supports(code string) bool {
	_, ok := s.Lookup(code)
	return ok
}

// All возвращает копию списка, отсортированного по коду
func (s *LanguageSet) All() []Language {
	out := make([]Language, len(s.list))
	copy(out, s.list)
	return out
}

// NormalizeLanguageCode приводит код к нижнему регистру без пробелов
func NormalizeLanguageCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
