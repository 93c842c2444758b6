package query

import (
	"fmt"
	"strings"
)

// statementStarts are the leading keywords of read-only statements.
var statementStarts = map[string]bool{
	"SELECT": true,
	"WITH":   true,
	"VALUES": true,
}

// forbiddenKeywords may not appear anywhere outside literals.
var forbiddenKeywords = map[string]bool{
	"INSERT":    true,
	"UPDATE":    true,
	"DELETE":    true,
	"DROP":      true,
	"ALTER":     true,
	"CREATE":    true,
	"MERGE":     true,
	"TRUNCATE":  true,
	"ATTACH":    true,
	"DETACH":    true,
	"PRAGMA":    true,
	"VACUUM":    true,
	"REINDEX":   true,
	"ANALYZE":   true,
	"COPY":      true,
	"INSTALL":   true,
	"LOAD":      true,
	"EXPORT":    true,
	"IMPORT":    true,
	"CALL":      true,
	"SET":       true,
	"RESET":     true,
	"GRANT":     true,
	"REVOKE":    true,
	"BEGIN":     true,
	"COMMIT":    true,
	"ROLLBACK":  true,
	"SAVEPOINT": true,
	"RELEASE":   true,
}

// statementKeywords are leading keywords that make text look like SQL.
var statementKeywords = func() map[string]bool {
	m := map[string]bool{"REPLACE": true, "UPSERT": true, "EXPLAIN": true, "SHOW": true, "DESCRIBE": true}
	for k := range statementStarts {
		m[k] = true
	}
	for k := range forbiddenKeywords {
		m[k] = true
	}
	return m
}()

// LooksLikeStatement reports whether text starts with a SQL statement
// keyword, read-only or not.
func LooksLikeStatement(text string) bool {
	toks, err := newLexer(text).tokens()
	if err != nil {
		// An unterminated literal still reads as an attempted statement.
		first, _, _ := strings.Cut(strings.TrimSpace(text), " ")
		return statementKeywords[strings.ToUpper(first)]
	}
	for _, t := range toks {
		if t.kind == tokLParen {
			continue
		}
		return t.kind == tokWord && statementKeywords[strings.ToUpper(t.text)]
	}
	return false
}

// Check validates that text is a single read-only statement.
//
// It returns *QuerySyntaxError for empty input, unterminated literals or
// comments and multiple statements, and *ForbiddenOperationError when the
// statement is not a query or names a keyword that can change data.
func Check(text string) error {
	toks, err := newLexer(text).tokens()
	if err != nil {
		return &QuerySyntaxError{Query: text, Reason: err.Error()}
	}

	// A single trailing semicolon is allowed.
	for i, t := range toks {
		if t.kind != tokSemicolon {
			continue
		}
		for _, rest := range toks[i+1:] {
			if rest.kind != tokSemicolon {
				return &QuerySyntaxError{Query: text, Reason: "multiple statements are not allowed"}
			}
		}
		toks = toks[:i]
		break
	}
	if len(toks) == 0 {
		return &QuerySyntaxError{Query: text, Reason: "empty query"}
	}

	first := -1
	for i, t := range toks {
		if t.kind != tokLParen {
			first = i
			break
		}
	}
	if first < 0 || toks[first].kind != tokWord {
		return &QuerySyntaxError{Query: text, Reason: "query must start with SELECT or WITH"}
	}
	if kw := strings.ToUpper(toks[first].text); !statementStarts[kw] {
		if !statementKeywords[kw] {
			return &QuerySyntaxError{Query: text, Reason: fmt.Sprintf("unknown statement %q", toks[first].text)}
		}
		return &ForbiddenOperationError{Query: text, Keyword: kw}
	}

	for i, t := range toks {
		if t.kind != tokWord {
			continue
		}
		kw := strings.ToUpper(t.text)
		if !forbiddenKeywords[kw] {
			continue
		}
		// Aliases and qualified names are identifiers, not statements.
		if i > 0 && (toks[i-1].kind == tokDot || (toks[i-1].kind == tokWord && strings.EqualFold(toks[i-1].text, "AS"))) {
			continue
		}
		return &ForbiddenOperationError{Query: text, Keyword: kw}
	}
	return nil
}
