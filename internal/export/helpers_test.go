package export

import "github.com/iksnae/llmcan/internal"

func sampleTranscript() *Transcript {
	return NewTranscript("data/cognitive_agent_history.json", []internal.DialogTurn{
		internal.UserTurn("курс **биткоина**"),
		internal.AssistantTurn("Курс BTC/USD [1](https://example.com)\n\n**Источники:**\n1. https://example.com\n"),
	})
}
