package model

// ChatRequest is an inbound chat message together with the client-held history.
type ChatRequest struct {
	Message   string `json:"message"`
	History   []Turn `json:"history,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Image     string `json:"image,omitempty"`
}

// ChatReply is the structured result of a chat turn.
type ChatReply struct {
	Reply                string `json:"reply"`
	SessionID            string `json:"session_id,omitempty"`
	NeedsProfile         bool   `json:"needs_profile"`
	NeedsShoppingDetails bool   `json:"needs_shopping_details"`
	ContextKind          string `json:"context_kind,omitempty"`
	Model                string `json:"model,omitempty"`
}
