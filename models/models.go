package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConnectRequest struct {
	MongoURI string `json:"mongo_uri" binding:"required" example:"mongodb://localhost:27017/shop"`
	DBName   string `json:"db_name,omitempty" example:"shop"` // overrides the database in the URI path
}

type ConnectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DBName  string `json:"db_name,omitempty"`
}

type ChatRequest struct {
	Query string `json:"query" binding:"required" example:"How many orders were placed last week?"`
}

type ChatResponse struct {
	Success    bool     `json:"success"`
	Response   string   `json:"response"`
	UserQuery  string   `json:"user_query"`
	ToolUsed   bool     `json:"tool_used"`
	ToolResult string   `json:"tool_result,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

type HistoryResponse struct {
	DBName  string     `json:"db_name"`
	History []ChatTurn `json:"history"`
}

type IndexResponse struct {
	DBName      string   `json:"db_name"`
	Collections []string `json:"collections"`
	Warnings    []string `json:"warnings,omitempty"`
}

// ChatTurn is one message of a session conversation.
type ChatTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is the per-browser state. It is loaded at the start of a request,
// mutated by the chat service and written back at the end.
type Session struct {
	ID        string     `json:"id"`
	MongoURI  string     `json:"mongo_uri,omitempty"`
	DBName    string     `json:"db_name,omitempty"`
	Indexed   bool       `json:"indexed"`
	History   []ChatTurn `json:"history"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

func (s *Session) Connected() bool {
	return s != nil && s.MongoURI != "" && s.DBName != ""
}

// AppendTurn adds a turn stamped with the current time.
func (s *Session) AppendTurn(role, content string) {
	s.History = append(s.History, ChatTurn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type SchemaRecord struct {
	DBName         string `json:"db_name"`
	CollectionName string `json:"collection_name"`
	SampleDocument string `json:"sample_document_json"`
}

type InteractionLog struct {
	IPAddress string    `json:"ip_address" bson:"ip_address"`
	SessionID string    `json:"session_id" bson:"session_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Query     string    `json:"query" bson:"query"`
	Response  string    `json:"response" bson:"response"`
}
