package internal

import "strings"

// Role identifies the author of a dialog turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DialogTurn is one role-tagged message of the persisted conversation
type DialogTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserTurn builds a user dialog turn
func UserTurn(content string) DialogTurn {
	return DialogTurn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant dialog turn
func AssistantTurn(content string) DialogTurn {
	return DialogTurn{Role: RoleAssistant, Content: content}
}

// Valid reports whether the turn has a known role
func (t DialogTurn) Valid() bool {
	return t.Role == RoleUser || t.Role == RoleAssistant
}

// PreprocessedQuery is the structured form of a user utterance: the search
// queries to run (primary first) and the instruction for handling results.
type PreprocessedQuery struct {
	Queries     []string `json:"queries"`
	Instruction string   `json:"instruction"`
}

// FormatTranscript renders turns as "role: content" lines, the form used when
// embedding conversation context into prompts.
func FormatTranscript(turns []DialogTurn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}
