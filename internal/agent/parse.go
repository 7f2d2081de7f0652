package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iksnae/llmcan/internal"
	"github.com/tidwall/gjson"
)

var numberedLine = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)

// parsePreprocessJSON reads the first JSON object in text. It accepts
// {"query", "related", "instruction"} and the {"queries": [...]} variant.
func parsePreprocessJSON(text string) (internal.PreprocessedQuery, error) {
	obj, ok := extractObject(text)
	if !ok {
		return internal.PreprocessedQuery{}, &internal.ParseError{Source: "preprocess", Key: internal.Truncate(text, 80), Err: fmt.Errorf("no JSON object")}
	}

	res := gjson.Parse(obj)
	var q internal.PreprocessedQuery
	if primary := res.Get("query"); primary.Type == gjson.String {
		q.Queries = append(q.Queries, primary.String())
	}
	for _, key := range []string{"related", "queries"} {
		res.Get(key).ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				q.Queries = append(q.Queries, v.String())
			}
			return true
		})
	}
	q.Instruction = strings.TrimSpace(res.Get("instruction").String())

	if len(q.Queries) == 0 {
		return q, &internal.ParseError{Source: "preprocess", Key: internal.Truncate(obj, 80), Err: fmt.Errorf("no queries in JSON answer")}
	}
	return q, nil
}

// extractObject returns the outermost {...} span of text, tolerating code
// fences and surrounding prose.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	obj := text[start : end+1]
	if !gjson.Valid(obj) {
		return "", false
	}
	return obj, true
}

// parsePreprocessLines reads the line-prefixed format:
//
//	Основной запрос: <query>
//	Дополнительные запросы:
//	1. <query>
//	Инструкция для обработки результатов:
//	<instruction lines>
//
// Unknown lines are ignored. Everything after the instruction prefix belongs
// to the instruction.
func parsePreprocessLines(text string) (internal.PreprocessedQuery, error) {
	var q internal.PreprocessedQuery
	var instruction []string
	inInstruction := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "*"))
		if inInstruction {
			instruction = append(instruction, strings.TrimRight(raw, " \t\r"))
			continue
		}
		switch {
		case hasPrefix(line, prefixPrimary, prefixPrimaryEN):
			if v := afterColon(line); v != "" {
				q.Queries = append(q.Queries, v)
			}
		case hasPrefix(line, prefixRelated, prefixRelatedEN):
		case hasPrefix(line, prefixInstruction, prefixInstructionEN):
			inInstruction = true
			if v := afterColon(line); v != "" {
				instruction = append(instruction, v)
			}
		default:
			if m := numberedLine.FindStringSubmatch(line); m != nil {
				q.Queries = append(q.Queries, strings.TrimSpace(m[1]))
			}
		}
	}
	q.Instruction = strings.TrimSpace(strings.Join(instruction, "\n"))

	if len(q.Queries) == 0 {
		return q, &internal.ParseError{Source: "preprocess", Key: internal.Truncate(text, 80), Err: fmt.Errorf("no query lines recognized")}
	}
	return q, nil
}

func hasPrefix(line string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(strings.ToLower(line), strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(strings.Trim(strings.TrimSpace(line[i+1:]), "*"))
	}
	return ""
}

// normalizeQueries trims, strips quotes and brackets, drops duplicates
// (case-insensitive) and caps the list at max entries.
func normalizeQueries(queries []string, max int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(strings.ReplaceAll(q, `"`, ""))
		q = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(q, "["), "]"))
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
