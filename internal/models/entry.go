// Package models defines the domain types shared by the explorer services.
package models

import "time"

// Entry is one item of a directory listing.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	Type    string    `json:"type"` // "Folder", upper-cased extension, or "File"
	ModTime time.Time `json:"mod_time"`
}

// Bookmark is a named shortcut to a directory.
type Bookmark struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
