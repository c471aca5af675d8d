package models

import "time"

// ScheduleImport is a batch record grouping all schedule rows created from one
// uploaded file. Deleting the import cascades to its schedules.
type ScheduleImport struct {
	ID             string    `db:"id" json:"id"`
	Filename       string    `db:"filename" json:"filename"`
	StoredFilename string    `db:"stored_filename" json:"stored_filename"`
	UploadedBy     string    `db:"uploaded_by" json:"uploaded_by"`
	UploadTime     time.Time `db:"upload_time" json:"upload_time"`
	CreatedRows    int       `db:"created_rows" json:"created_rows"`
	SkippedRows    int       `db:"skipped_rows" json:"skipped_rows"`
}

// ImportRow is a validated schedule row ready to be persisted as part of an
// import batch. The room is identified by its natural key and resolved (or
// created) inside the batch transaction.
type ImportRow struct {
	Building  string
	Number    string
	Date      time.Time
	OpenTime  string
	CloseTime string
}

// Schedule is a single day's open/close window for a room. Rows are created
// only by the import pipeline or manual seeding and never mutated afterwards.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Date      time.Time `db:"date" json:"date"`
	OpenTime  string    `db:"open_time" json:"open_time"`
	CloseTime string    `db:"close_time" json:"close_time"`
	ImportID  *string   `db:"import_id" json:"import_id,omitempty"`
}
