package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/llmcan/internal"
)

// Line prefixes of the plain-text preprocessing format
const (
	prefixPrimary     = "Основной запрос:"
	prefixRelated     = "Дополнительные запросы:"
	prefixInstruction = "Инструкция для обработки результатов:"

	prefixPrimaryEN     = "Primary query:"
	prefixRelatedEN     = "Related queries:"
	prefixInstructionEN = "Instruction:"
)

var defaultInstruction = map[internal.Language]string{
	internal.LanguageRussian: "Обработайте результаты поиска и предоставьте краткий ответ.",
	internal.LanguageEnglish: "Process the search results and provide a concise answer.",
}

var noResultsMessage = map[internal.Language]string{
	internal.LanguageRussian: "К сожалению, не удалось найти информацию по вашему запросу. Попробуйте переформулировать вопрос или уточнить детали.",
	internal.LanguageEnglish: "Sorry, I could not find any information for your request. Try rephrasing the question or adding details.",
}

var apologyMessage = map[internal.Language]string{
	internal.LanguageRussian: "Извините, не удалось обработать результаты поиска. Пожалуйста, попробуйте еще раз или переформулируйте запрос.",
	internal.LanguageEnglish: "Sorry, I could not process the search results. Please try again or rephrase your request.",
}

var sourcesHeading = map[internal.Language]string{
	internal.LanguageRussian: "**Источники:**",
	internal.LanguageEnglish: "**Sources:**",
}

// DefaultInstruction is the result-handling instruction used when the model
// gives none.
func DefaultInstruction(lang internal.Language) string {
	return localized(defaultInstruction, lang)
}

// NoResultsMessage is the reply when no query produced results
func NoResultsMessage(lang internal.Language) string {
	return localized(noResultsMessage, lang)
}

// ApologyMessage is the reply when the model could not synthesize an answer
func ApologyMessage(lang internal.Language) string {
	return localized(apologyMessage, lang)
}

func localized(m map[internal.Language]string, lang internal.Language) string {
	if s, ok := m[lang]; ok {
		return s
	}
	return m[internal.LanguageEnglish]
}

func preprocessPrompt(userInput string, maxQueries int) string {
	related := maxQueries - 1
	var b strings.Builder
	fmt.Fprintf(&b, "Запрос пользователя: %s\n\n", userInput)
	fmt.Fprintf(&b, "Проанализируй запрос пользователя, исправь возможные ошибки и сформулируй основной поисковый запрос и до %d связанных поисковых запросов для расширения контекста. Также создай инструкцию для обработки результатов поиска.\n\n", related)
	b.WriteString("Ответь строго одним JSON-объектом без пояснений:\n")
	b.WriteString(`{"query": "исправленный запрос пользователя", "related": ["запрос 1", "запрос 2"], "instruction": "детальная инструкция по обработке и форматированию результатов поиска"}`)
	b.WriteString("\n\nЕсли JSON невозможен, используй формат:\n")
	b.WriteString(prefixPrimary + " [исправленный запрос пользователя]\n")
	b.WriteString(prefixRelated + "\n")
	for i := 1; i <= related; i++ {
		fmt.Fprintf(&b, "%d. [запрос %d]\n", i, i)
	}
	b.WriteString("\n" + prefixInstruction + "\n")
	b.WriteString("[Детальная инструкция по обработке и форматированию результатов поиска]")
	return b.String()
}

func synthesisPrompt(instruction, resultsJSON string, lang internal.Language, transcript string, now time.Time) string {
	var b strings.Builder
	if transcript != "" {
		fmt.Fprintf(&b, "История диалога:\n%s\n\n", transcript)
	}
	fmt.Fprintf(&b, "Инструкция: %s\n\n", instruction)
	fmt.Fprintf(&b, "Результаты поиска:\n%s\n\n", resultsJSON)
	fmt.Fprintf(&b, "Текущая дата и время: %s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(`Проанализируй предоставленные результаты поиска и сформируй ответ на вопрос пользователя. Структура ответа:
1. Тема: одна строка, о чем ответ.
2. Выводы: точный ответ на вопрос с конкретными данными (курсы, даты, числовые значения), если они есть в результатах поиска. Сравни значения, если запрос требует сравнения.
3. Интересные моменты: важные детали из результатов поиска.
4. Источники: ссылайся на результаты как [1], [2] и т.д. в порядке их url.

Используй формат Markdown. Если информации недостаточно или она противоречива, укажи на это в ответе.

`)
	fmt.Fprintf(&b, "Ответ должен быть на языке пользователя: %s.", lang)
	return b.String()
}
