package api

import (
	"github.com/starford/fileexpo/internal/explorer"
	"github.com/starford/fileexpo/internal/models"
)

// PathRequest names one file system path.
type PathRequest struct {
	Path string `json:"path" example:"/home/me/notes.txt" validate:"required"`
}

// NameRequest names an entry in the current directory.
type NameRequest struct {
	Name string `json:"name" example:"report.txt" validate:"required"`
}

// SelectRequest replaces the selection. All selects the whole listing and
// takes precedence over Names.
type SelectRequest struct {
	Names []string `json:"names,omitempty" example:"a.txt,b.txt"`
	All   bool     `json:"all,omitempty"`
}

// PasteRequest controls overwriting on paste.
type PasteRequest struct {
	Overwrite bool `json:"overwrite"`
}

// BookmarkRequest adds a bookmark.
type BookmarkRequest struct {
	Name string `json:"name" example:"Projects"`
	Path string `json:"path" example:"/home/me/projects"`
}

// TagRequest attaches or detaches a tag.
type TagRequest struct {
	Path string `json:"path" validate:"required"`
	Tag  string `json:"tag" validate:"required"`
}

// TextRequest carries an utterance or a typed command.
type TextRequest struct {
	Text string `json:"text" example:"go to downloads" validate:"required"`
}

// ListingResponse is the current directory listing.
type ListingResponse struct {
	Cwd     string     `json:"cwd" validate:"required"`
	Entries []EntryDTO `json:"entries" validate:"required"`
}

// EntryDTO is a listing entry with display fields.
type EntryDTO struct {
	models.Entry
	SizeText string `json:"size_text"`
	DateText string `json:"date_text"`
}

// StateResponse is the explorer state.
type StateResponse = explorer.Snapshot

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []models.Entry `json:"results" validate:"required"`
}

// PathsResponse wraps a list of paths.
type PathsResponse struct {
	Paths []string `json:"paths" validate:"required"`
}

// JobResponse is returned when a background job is accepted.
type JobResponse struct {
	JobID string `json:"job_id" validate:"required"`
	Path  string `json:"path"`
}

// VoiceStateResponse reports the assistant state.
type VoiceStateResponse struct {
	State   string `json:"state"`
	Pending int    `json:"pending"`
}
