// Package specialphrases implements the one-shot data-prep task that turns
// a set of curated (label, class, type, operator) phrases — however they
// were sourced — into the analyzer's word table via filtering, a sanity
// check, and a single UpdateSpecialPhrases call. The wiki scrape itself is
// abstracted behind PhraseSource so this package, and the core module in
// general, carries no outbound network dependency.
package specialphrases

import (
	"context"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/lonvia/Nominatim/internal/analyzer"
)

var sanityPattern = regexp.MustCompile(`^\w+$`)

// RawPhrase is one row extracted from a source page before filtering, with
// class/type/operator still in their raw wiki-table form.
type RawPhrase struct {
	Label    string
	Class    string
	Type     string
	Operator string
	Plural   string
	Language string
}

// PhraseSource supplies the raw phrase rows for a language. Implementations
// fetch the OpenStreetMap wiki export, read a local fixture, or anything
// else — the importer has no opinion on where rows come from.
type PhraseSource interface {
	FetchLanguage(ctx context.Context, lang string) ([]RawPhrase, error)
}

// Lists is the blacklist/whitelist pair read from phrase-settings.json:
// class -> set of types.
type Lists struct {
	BlackList map[string][]string
	WhiteList map[string][]string
}

func (l Lists) blocked(class, typ string) bool {
	if types, ok := l.BlackList[class]; ok && contains(types, typ) {
		return true
	}
	if types, ok := l.WhiteList[class]; ok && !contains(types, typ) {
		return true
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Importer drives import_from_wiki's logic: fetch, filter, sanity-check,
// then hand the surviving phrases to the bound analyzer in one call.
type Importer struct {
	source PhraseSource
	lists  Lists
	log    zerolog.Logger
}

func New(source PhraseSource, lists Lists, log zerolog.Logger) *Importer {
	return &Importer{source: source, lists: lists, log: log}
}

// Import fetches every language, filters and sanity-checks the result, and
// applies the survivors against a via a single UpdateSpecialPhrases call.
func (imp *Importer) Import(ctx context.Context, a *analyzer.NameAnalyzer, languages []string) error {
	seen := map[analyzer.Phrase]struct{}{}
	var phrases []analyzer.Phrase

	for _, lang := range languages {
		raw, err := imp.source.FetchLanguage(ctx, lang)
		if err != nil {
			return err
		}
		for _, r := range raw {
			p, ok := imp.filter(lang, r)
			if !ok {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			phrases = append(phrases, p)
		}
	}

	return a.UpdateSpecialPhrases(ctx, phrases)
}

// filter applies black/white-listing and the sanity check to one raw row,
// returning the normalized phrase and whether it survives.
func (imp *Importer) filter(lang string, r RawPhrase) (analyzer.Phrase, bool) {
	class, typ := r.Class, r.Type
	op := r.Operator
	if op != "near" && op != "in" {
		op = "-"
	}

	if imp.lists.blocked(class, typ) {
		return analyzer.Phrase{}, false
	}

	if !imp.checkSanity(lang, class, typ) {
		return analyzer.Phrase{}, false
	}

	return analyzer.Phrase{Label: r.Label, Class: class, Type: typ, Operator: op}, true
}

// checkSanity guards against garbage class/type values that made it into a
// source page. Unlike a hard failure, a bad row is logged and skipped so
// the rest of the import still completes.
func (imp *Importer) checkSanity(lang, class, typ string) bool {
	if sanityPattern.MatchString(class) && sanityPattern.MatchString(typ) {
		return true
	}
	imp.log.Warn().Str("lang", lang).Str("class", class).Str("type", typ).
		Msg("bad special phrase class/type, skipping")
	return false
}
