package model

import "time"

// Chat stores metadata about a conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Model     string    `json:"model"`
}

// Message stores a single message in a chat. Thinking is a side channel
// extracted from the raw model output; it is shown to the user but never sent
// back to the model as conversation history.
type Message struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Thinking  string    `json:"thinking,omitempty"`
	Model     *string   `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FullChat includes the chat metadata and all its messages.
type FullChat struct {
	Chat
	Messages []Message `json:"messages"`
}

// StreamChunk is a single frame in a streaming chat response. Content carries
// the newly arrived delta; Thinking carries the thinking segment extracted from
// the accumulated buffer so far, so clients can render it live.
type StreamChunk struct {
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
	Done     bool   `json:"done"`
	Canceled bool   `json:"canceled,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Answer is the rendering decision for a free-text query: the classified
// intent plus, where the query carried enough information, a computed result.
// At most one of the payload fields is set.
type Answer struct {
	Query    string          `json:"query"`
	Intent   string          `json:"intent"`
	Calc     *CalcAnswer     `json:"calc,omitempty"`
	Clock    *ClockAnswer    `json:"clock,omitempty"`
	Currency *CurrencyAnswer `json:"currency,omitempty"`
	Unit     *UnitAnswer     `json:"unit,omitempty"`
}

type CalcAnswer struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

type ClockAnswer struct {
	Time      string `json:"time"`
	Date      string `json:"date"`
	DayOfYear int    `json:"day_of_year"`
	ISOWeek   int    `json:"iso_week"`
}

type CurrencyAnswer struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

type UnitAnswer struct {
	Value    float64 `json:"value"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Category string  `json:"category"`
	Result   float64 `json:"result"`
}
