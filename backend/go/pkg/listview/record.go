// Package listview holds the client-side listing logic: a snapshot of file
// records fetched from the server is reconciled with the local view state
// (active folder, search term, sort order) into the exact ordered list to
// render. The projection is pure; the Controller decides when the snapshot
// must be refreshed.
package listview

import "time"

// FileRecord is the wire form of one uploaded PDF's metadata, as returned by
// the listing API. Path is the unique storage key and the sole stable
// identifier for delete and signed-URL operations.
type FileRecord struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	Folder    string    `json:"folder"`
	Owner     *string   `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}
