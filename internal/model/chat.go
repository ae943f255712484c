package model

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}
