package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lonvia/Nominatim/internal/analyzer"
	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/specialphrases"
)

func newSpecialPhrasesCmd() *cobra.Command {
	var importFromWiki bool

	cmd := &cobra.Command{
		Use:   "special-phrases",
		Short: "Import special phrases into the word table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !importFromWiki {
				return ierrors.NewConfig(errNoSource, "special-phrases: pass --import-from-wiki")
			}

			ctx := cmd.Context()
			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			pooled, err := rt.pool.Acquire(ctx)
			if err != nil {
				return ierrors.NewConnectivity(err, "acquire connection for special phrases")
			}
			conn := pooled.Hijack()

			a, err := analyzer.New(ctx, conn, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			languages := defaultLanguages
			if rt.cfg.PhraseLanguages != "" {
				languages = strings.Split(rt.cfg.PhraseLanguages, ",")
			}

			imp := specialphrases.New(specialphrases.NewWikiSource(), defaultLists, rt.log)
			return imp.Import(ctx, a, languages)
		},
	}

	cmd.Flags().BoolVar(&importFromWiki, "import-from-wiki", false, "fetch special phrases from the OpenStreetMap wiki")
	return cmd
}

var errNoSource = sourceError("no phrase source selected")

type sourceError string

func (e sourceError) Error() string { return string(e) }

var defaultLanguages = []string{
	"af", "ar", "br", "ca", "cs", "de", "en", "es",
	"et", "eu", "fa", "fi", "fr", "gl", "hr", "hu",
	"ia", "is", "it", "ja", "mk", "nl", "no", "pl",
	"ps", "pt", "ru", "sk", "sl", "sv", "uk", "vi",
}

// defaultLists is an empty black/white-list pair. The command always
// passes it, so no class/type is black- or white-listed.
var defaultLists = specialphrases.Lists{}
