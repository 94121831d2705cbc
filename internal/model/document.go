package model

// Document is a stored upload. Records are immutable once created; the only
// mutation a store supports is deletion.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}
