package audit

import (
	"strings"

	"github.com/naokiys/emprecord/internal/models"
)

// Best-effort extraction of table name and record id from statement text.
// This is deliberately not a SQL parser: it tokenizes on whitespace and looks
// at verb-specific positions. Anything it cannot place falls back to the
// documented placeholder strings, which audit consumers must expect.

// TableName returns the table a statement targets: the token after INTO for
// INSERT, after the verb for UPDATE, after FROM for DELETE and SELECT.
// Unparseable statements return "unknown".
func TableName(statement string) string {
	tokens := strings.Fields(statement)
	if len(tokens) == 0 {
		return models.RecordIDUnknown
	}
	switch strings.ToUpper(tokens[0]) {
	case models.OpInsert:
		return tokenAfter(tokens, "INTO")
	case models.OpUpdate:
		if len(tokens) > 1 {
			return cleanToken(tokens[1])
		}
	case models.OpDelete, models.OpSelect:
		return tokenAfter(tokens, "FROM")
	}
	return models.RecordIDUnknown
}

// RecordID returns a coarse record identifier for a statement: "new_record"
// for INSERT, "extracted_from_where" when a WHERE clause filters on "id =",
// otherwise "unknown". The WHERE value itself is intentionally not extracted.
func RecordID(statement string) string {
	upper := strings.ToUpper(statement)
	if strings.HasPrefix(strings.TrimSpace(upper), models.OpInsert) {
		return models.RecordIDNew
	}
	if _, where, ok := strings.Cut(upper, "WHERE"); ok {
		where = strings.ReplaceAll(where, " ", "")
		if strings.Contains(where, "ID=") {
			return models.RecordIDFromWhere
		}
	}
	return models.RecordIDUnknown
}

// Verb returns the statement's leading SQL verb when it is one of the four
// audited operations, or fallback otherwise.
func Verb(statement, fallback string) string {
	tokens := strings.Fields(statement)
	if len(tokens) == 0 {
		return fallback
	}
	switch v := strings.ToUpper(tokens[0]); v {
	case models.OpInsert, models.OpUpdate, models.OpDelete, models.OpSelect:
		return v
	}
	return fallback
}

func tokenAfter(tokens []string, keyword string) string {
	for i, tok := range tokens[:len(tokens)-1] {
		if strings.EqualFold(tok, keyword) {
			return cleanToken(tokens[i+1])
		}
	}
	return models.RecordIDUnknown
}

// cleanToken strips punctuation that rides along with a table token, e.g.
// "employees(name," or `"employees";`.
func cleanToken(tok string) string {
	if i := strings.IndexByte(tok, '('); i >= 0 {
		tok = tok[:i]
	}
	tok = strings.Trim(tok, `";`+"`")
	if tok == "" {
		return models.RecordIDUnknown
	}
	return tok
}
