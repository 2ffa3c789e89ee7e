package domain

// MessageKind distinguishes prompts from validation feedback.
type MessageKind string

const (
	MessagePrompt MessageKind = "prompt"
	MessageError  MessageKind = "error"
)

// Message is one line of assistant output.
type Message struct {
	StepID string      `json:"stepId"`
	Text   string      `json:"text"`
	Kind   MessageKind `json:"kind"`
}

// InputRequest describes what the awaiting step accepts.
type InputRequest struct {
	Kind    InputKind `json:"kind"`
	Options []Option  `json:"options,omitempty"`
}

// Turn is everything produced between two user answers.
type Turn struct {
	SessionID string        `json:"sessionId"`
	StepID    string        `json:"stepId"`
	Phase     Phase         `json:"phase"`
	Messages  []Message     `json:"messages"`
	Input     *InputRequest `json:"input,omitempty"`
	Terminal  bool          `json:"terminal"`
	Outcome   Outcome       `json:"outcome,omitempty"`
	Record    *Application  `json:"record,omitempty"`
}

// Texts returns the message texts in order.
func (t *Turn) Texts() []string {
	out := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = m.Text
	}
	return out
}
