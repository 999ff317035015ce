package core

import "time"

// Track is the metadata a device reports for the current item.
type Track struct {
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
}

// IsEmpty returns true if no metadata was reported.
func (t Track) IsEmpty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == ""
}
