package analyzer

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lonvia/Nominatim/internal/ierrors"
)

// Phrase is one class/type/operator triple curated on the special-phrases
// wiki. Operator "-" is equivalent to no operator (NULL in the word table),
// matching legacy_tokenizer.py's convention.
type Phrase struct {
	Label    string
	Class    string
	Type     string
	Operator string
}

func (p Phrase) normalizedOperator() string {
	if p.Operator == "-" {
		return ""
	}
	return p.Operator
}

// UpdateSpecialPhrases performs a set-difference against the phrase
// partition of the word table (every row that is not a housenumber or
// postcode entry) and applies exactly the additions and removals needed to
// make the table match phrases, in one transaction. Calling it twice with
// the same input is a no-op the second time.
func (a *NameAnalyzer) UpdateSpecialPhrases(ctx context.Context, phrases []Phrase) error {
	tx, err := a.conn.Begin(ctx)
	if err != nil {
		return ierrors.NewQuery(err, "begin special phrases transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT word, class, type, operator FROM word
		WHERE class != 'place' OR type NOT IN ('house', 'postcode')`)
	if err != nil {
		return ierrors.NewQuery(err, "list existing special phrases")
	}

	existing := make(map[Phrase]struct{})
	for rows.Next() {
		var p Phrase
		var op *string
		if err := rows.Scan(&p.Label, &p.Class, &p.Type, &op); err != nil {
			rows.Close()
			return ierrors.NewQuery(err, "scan existing special phrase")
		}
		if op != nil {
			p.Operator = *op
		}
		existing[p] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ierrors.NewQuery(err, "iterate existing special phrases")
	}

	wanted := make(map[Phrase]struct{}, len(phrases))
	for _, p := range phrases {
		p.Operator = p.normalizedOperator()
		wanted[p] = struct{}{}
	}

	for p := range wanted {
		if _, ok := existing[p]; !ok {
			if err := a.insertSpecialPhrase(ctx, tx, p); err != nil {
				return err
			}
		}
	}
	for p := range existing {
		if _, ok := wanted[p]; !ok {
			if err := a.deleteSpecialPhrase(ctx, tx, p); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ierrors.NewQuery(err, "commit special phrases transaction")
	}
	return nil
}

func (a *NameAnalyzer) insertSpecialPhrase(ctx context.Context, tx pgx.Tx, p Phrase) error {
	token := standardize(p.Label)
	var operator any
	if p.Operator != "" {
		operator = p.Operator
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO word (word_id, word_token, word, class, type, operator, search_name_count)
		(SELECT nextval('seq_word'), ' ' || $1, $2, $3, $4, $5, 0
		 WHERE NOT EXISTS (
			SELECT * FROM word
			WHERE word_token = ' ' || $1 AND word = $2 AND class = $3
			  AND type = $4 AND operator IS NOT DISTINCT FROM $5))`,
		token, p.Label, p.Class, p.Type, operator)
	if err != nil {
		return ierrors.NewQuery(err, "insert special phrase")
	}
	return nil
}

func (a *NameAnalyzer) deleteSpecialPhrase(ctx context.Context, tx pgx.Tx, p Phrase) error {
	var operator any
	if p.Operator != "" {
		operator = p.Operator
	}

	_, err := tx.Exec(ctx, `
		DELETE FROM word
		WHERE word = $1 AND class = $2 AND type = $3 AND operator IS NOT DISTINCT FROM $4`,
		p.Label, p.Class, p.Type, operator)
	if err != nil {
		return ierrors.NewQuery(err, "delete special phrase")
	}
	return nil
}
