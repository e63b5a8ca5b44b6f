package specialphrases

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/lonvia/Nominatim/internal/ierrors"
)

// occurrencePattern matches one special-phrases wiki table row:
// | label || class || type || operator || plural
var occurrencePattern = regexp.MustCompile(
	`\| *([^|]+) *\|\| *([^|]+) *\|\| *([^|]+) *\|\| *([^|]+) *\|\| *([\-YN])`)

var quoteHack = regexp.MustCompile(`"|&quot;`)

// WikiSource fetches special phrases from the OpenStreetMap wiki's export
// endpoint. It is the only part of this package that touches the network;
// everything else operates on the RawPhrase rows it returns.
type WikiSource struct {
	Client *http.Client
}

func NewWikiSource() *WikiSource {
	return &WikiSource{Client: http.DefaultClient}
}

func (s *WikiSource) FetchLanguage(ctx context.Context, lang string) ([]RawPhrase, error) {
	url := "https://wiki.openstreetmap.org/wiki/Special:Export/Nominatim/Special_Phrases/" +
		strings.ToUpper(lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ierrors.NewConnectivity(err, "build wiki export request")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, ierrors.NewConnectivity(err, fmt.Sprintf("fetch special phrases for %s", lang))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierrors.NewConnectivity(err, "read wiki export response")
	}

	return parseOccurrences(string(body), lang), nil
}

func parseOccurrences(xmlContent, lang string) []RawPhrase {
	matches := occurrencePattern.FindAllStringSubmatch(xmlContent, -1)
	phrases := make([]RawPhrase, 0, len(matches))
	for _, m := range matches {
		phrases = append(phrases, RawPhrase{
			Label:    strings.TrimSpace(m[1]),
			Class:    strings.TrimSpace(m[2]),
			Type:     quoteHack.ReplaceAllString(strings.TrimSpace(m[3]), ""),
			Operator: strings.TrimSpace(m[4]),
			Plural:   strings.TrimSpace(m[5]),
			Language: lang,
		})
	}
	return phrases
}
