package model

// FileArtifact is the generated output for one (document, mode) pair.
// Degraded marks a checkpoint written during mapping; a successful final
// commit clears it.
type FileArtifact struct {
	DocumentID string `json:"document_id"`
	Mode       string `json:"mode"`
	Content    string `json:"content"`
	Degraded   int    `json:"degraded"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}
