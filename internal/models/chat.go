package models

// ChatRequest is the payload accepted by POST /chat.
type ChatRequest struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// ChatReply is the ChatScript reply returned to the caller.
type ChatReply struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Error string `json:"error"`
}
