package provider

import "encoding/json"

// Defaults applied to SendCall when the caller leaves a field unset.
const (
	DefaultTask        = "Have a conversation with the person who answers."
	DefaultVoice       = "default"
	DefaultModel       = "enhanced"
	DefaultTemperature = 0.7
	DefaultMaxDuration = 30
	DefaultLanguage    = "pt-BR"
)

// SendCallRequest is the provider's call submission body.
type SendCallRequest struct {
	PhoneNumber     string         `json:"phone_number"`
	Task            string         `json:"task,omitempty"`
	PathwayID       string         `json:"pathway_id,omitempty"`
	VoiceID         string         `json:"voice_id,omitempty"`
	Model           string         `json:"model,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	MaxDuration     int            `json:"max_duration,omitempty"`
	WaitForGreeting *bool          `json:"wait_for_greeting,omitempty"`
	Record          *bool          `json:"record,omitempty"`
	Language        string         `json:"language,omitempty"`
	FirstSentence   string         `json:"first_sentence,omitempty"`
	Webhook         string         `json:"webhook,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

func (r SendCallRequest) withDefaults() SendCallRequest {
	out := r
	if out.Task == "" {
		out.Task = DefaultTask
	}
	if out.VoiceID == "" {
		out.VoiceID = DefaultVoice
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.Temperature == nil {
		t := DefaultTemperature
		out.Temperature = &t
	}
	if out.MaxDuration <= 0 {
		out.MaxDuration = DefaultMaxDuration
	}
	if out.WaitForGreeting == nil {
		v := true
		out.WaitForGreeting = &v
	}
	if out.Record == nil {
		v := true
		out.Record = &v
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	return out
}

type SendCallResponse struct {
	Status  string `json:"status"`
	CallID  string `json:"call_id"`
	Message string `json:"message,omitempty"`
}

type PathwayInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Nodes       json.RawMessage `json:"nodes,omitempty"`
}

func (in PathwayInput) withDefaults() PathwayInput {
	if in.Description == nil {
		empty := ""
		in.Description = &empty
	}
	if len(in.Nodes) == 0 {
		in.Nodes = json.RawMessage(`[]`)
	}
	return in
}

type KnowledgeBaseInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

func (in KnowledgeBaseInput) withDefaults() KnowledgeBaseInput {
	if in.Description == nil {
		empty := ""
		in.Description = &empty
	}
	if len(in.Content) == 0 {
		in.Content = json.RawMessage(`[]`)
	}
	return in
}

// StatusEvent is the provider's call status callback.
type StatusEvent struct {
	CallID       string  `json:"call_id"`
	Status       string  `json:"status"`
	Completed    bool    `json:"completed"`
	CallLength   float64 `json:"call_length"` // minutes
	Price        float64 `json:"price"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// DurationSeconds converts CallLength to whole seconds.
func (e StatusEvent) DurationSeconds() int {
	if e.CallLength <= 0 {
		return 0
	}
	return int(e.CallLength*60 + 0.5)
}
