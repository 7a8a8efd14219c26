package drive

import (
	"time"

	driveapi "google.golang.org/api/drive/v3"
)

// ParseFile converts a raw API file into a File.
func ParseFile(data *driveapi.File) *File {
	mimeType := data.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &File{
		ID:             data.Id,
		Name:           data.Name,
		MIMEType:       mimeType,
		Size:           data.Size,
		CreatedTime:    parseTime(data.CreatedTime),
		ModifiedTime:   parseTime(data.ModifiedTime),
		Parents:        data.Parents,
		WebViewLink:    data.WebViewLink,
		WebContentLink: data.WebContentLink,
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
