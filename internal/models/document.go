package models

// Document is a file read from the docs folder
type Document struct {
	Path      string
	Extension string
	Content   string
}

// Chunk represents a bounded piece of a document's text
type Chunk struct {
	Content string
	Source  string
	ChunkID int
}

type PromptResponse struct {
	Query   string
	Prompt  string
	Content string
}

// QueryRequest is the body of POST /query/
type QueryRequest struct {
	Query *string `json:"query"`
}

type QueryResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
