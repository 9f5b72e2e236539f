// Package models defines the request, response and document types shared by
// the router, the HTTP server and the CLI.
package models

import "time"

// Document is the stored text behind a vector id. Source is the file path
// or remote backend that produced it, used to forget everything a source
// contributed.
type Document struct {
	ID         string    `json:"id" db:"id"`
	Source     string    `json:"source" db:"source"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TextItem is one id/text pair to embed into the permanent partition.
type TextItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AddPermanentRequest is the body of POST /api/v1/vectors/permanent.
type AddPermanentRequest struct {
	Items []TextItem `json:"items"`
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Path string `json:"path"`
}

// IngestResponse reports what an ingest call added.
type IngestResponse struct {
	Path   string `json:"path"`
	Files  int    `json:"files"`
	Chunks int    `json:"chunks"`
}
