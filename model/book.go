package model //import "github.com/anxkit/anx-sync/model"

import "time"

// TimeFormat is the timestamp layout the reader app writes into tb_books.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func Now() string {
	return FormatTime(time.Now())
}

// Book is one row of tb_books. FilePath and CoverPath are stored relative to
// the device root, slash separated.
type Book struct {
	ID                int     `json:"id"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	FilePath          string  `json:"file_path"`
	CoverPath         string  `json:"cover_path"`
	FileMD5           string  `json:"file_md5"`
	CreateTime        string  `json:"create_time"`
	UpdateTime        string  `json:"update_time"`
	LastReadPosition  string  `json:"last_read_position"`
	ReadingPercentage float64 `json:"reading_percentage"`
	IsDeleted         bool    `json:"is_deleted"`
	Rating            float64 `json:"rating"`
	GroupID           int     `json:"group_id"`
	Description       string  `json:"description"`
}

type FindBook struct {
	ID        *int    `json:"id"`
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	FileMD5   *string `json:"file_md5"`
	IsDeleted *bool   `json:"is_deleted"`
	OrderBy   *string `json:"order_by"`

	// The maximum number of books to return.
	Limit *int `json:"limit"`
}

// BookUpdate carries the fields an update may touch. Nil means leave alone,
// the store only writes fields whose value differs from the current row.
type BookUpdate struct {
	Title             *string  `json:"title"`
	Author            *string  `json:"author"`
	FilePath          *string  `json:"file_path"`
	CoverPath         *string  `json:"cover_path"`
	FileMD5           *string  `json:"file_md5"`
	LastReadPosition  *string  `json:"last_read_position"`
	ReadingPercentage *float64 `json:"reading_percentage"`
	IsDeleted         *bool    `json:"is_deleted"`
	Rating            *float64 `json:"rating"`
	GroupID           *int     `json:"group_id"`
	Description       *string  `json:"description"`
}

// Metadata is what the host supplies for a book being ingested.
type Metadata struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	CoverBytes []byte   `json:"-"`
	CoverPath  string   `json:"cover_path"`

	Rating            float64 `json:"rating"`
	Description       string  `json:"description"`
	GroupID           int     `json:"group_id"`
	LastReadPosition  string  `json:"last_read_position"`
	ReadingPercentage float64 `json:"reading_percentage"`
}

// Author returns the first author, the only one tb_books can hold.
func (m *Metadata) Author() string {
	if len(m.Authors) == 0 || m.Authors[0] == "" {
		return "Unknown"
	}
	return m.Authors[0]
}

// Entry is the host-facing view of an active book. Path is absolute, the ID
// is stable for the lifetime of the entry and maps back to the row id.
type Entry struct {
	ID        string    `json:"id"`
	BookID    int       `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Path      string    `json:"path"`
	CoverPath string    `json:"cover_path"`
	HasCover  bool      `json:"has_cover"`
	Format    string    `json:"format"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Thumbnail []byte    `json:"-"`
	FileMD5   string    `json:"file_md5"`

	Rating            float64 `json:"rating"`
	Description       string  `json:"description"`
	GroupID           int     `json:"group_id"`
	LastReadPosition  string  `json:"last_read_position"`
	ReadingPercentage float64 `json:"reading_percentage"`
}
