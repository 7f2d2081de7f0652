package agent

import (
	"testing"

	"github.com/iksnae/llmcan/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreprocessJSON(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		queries     []string
		instruction string
		wantErr     bool
	}{
		{
			name:        "plain object",
			text:        `{"query":"курс биткоина","related":["btc usd","bitcoin price today"],"instruction":"Сравни курсы."}`,
			queries:     []string{"курс биткоина", "btc usd", "bitcoin price today"},
			instruction: "Сравни курсы.",
		},
		{
			name:    "fenced",
			text:    "```json\n{\"query\": \"go generics\"}\n```",
			queries: []string{"go generics"},
		},
		{
			name:    "queries variant",
			text:    `Sure! {"queries":["a","b"],"instruction":"x"} hope this helps`,
			queries: []string{"a", "b"},
			instruction: "x",
		},
		{
			name:    "non string entries skipped",
			text:    `{"query":"a","related":[1,null,"b"]}`,
			queries: []string{"a", "b"},
		},
		{name: "no object", text: "Основной запрос: x", wantErr: true},
		{name: "invalid object", text: "{query: x}", wantErr: true},
		{name: "no queries", text: `{"instruction":"x"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePreprocessJSON(tt.text)
			if tt.wantErr {
				var pe *internal.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "preprocess", pe.Source)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.queries, got.Queries)
			assert.Equal(t, tt.instruction, got.Instruction)
		})
	}
}

func TestParsePreprocessLines(t *testing.T) {
	text := `Вот результат анализа.
Основной запрос: курс биткоина
Дополнительные запросы:
1. курс BTC к доллару
2) bitcoin price today
3. прогноз биткоина

Инструкция для обработки результатов:
Сравни курсы за последние дни.
1. Укажи источник.`

	got, err := parsePreprocessLines(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"курс биткоина", "курс BTC к доллару", "bitcoin price today", "прогноз биткоина"}, got.Queries)
	assert.Equal(t, "Сравни курсы за последние дни.\n1. Укажи источник.", got.Instruction)
}

func TestParsePreprocessLines_Partial(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		queries     []string
		instruction string
		wantErr     bool
	}{
		{
			name:    "primary only",
			text:    "Основной запрос: погода в Москве",
			queries: []string{"погода в Москве"},
		},
		{
			name:        "bold prefixes and inline instruction",
			text:        "**Основной запрос:** rust async\n**Инструкция для обработки результатов:** кратко",
			queries:     []string{"rust async"},
			instruction: "кратко",
		},
		{
			name:    "english prefixes",
			text:    "Primary query: go 1.23 release\nRelated queries:\n1. go iterators",
			queries: []string{"go 1.23 release", "go iterators"},
		},
		{
			name:    "nothing recognized",
			text:    "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "instruction only",
			text:    "Инструкция для обработки результатов:\nкратко",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePreprocessLines(tt.text)
			if tt.wantErr {
				var pe *internal.ParseError
				assert.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.queries, got.Queries)
			assert.Equal(t, tt.instruction, got.Instruction)
		})
	}
}

func TestNormalizeQueries(t *testing.T) {
	got := normalizeQueries([]string{` "Go" generics `, "go generics", "", "[rust]", "a", "b", "c"}, 4)
	assert.Equal(t, []string{"Go generics", "rust", "a", "b"}, got)
	assert.Empty(t, normalizeQueries([]string{"  ", `""`}, 4))
}
