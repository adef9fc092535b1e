package huawei

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DriveFile is a file or folder entry as returned by the Drive Kit API.
// Different API versions name the same fields differently; the accessors
// below normalise them.
type DriveFile struct {
	ID             string    `json:"id"`
	FileID         string    `json:"fileId"`
	Name           string    `json:"name"`
	FileName       string    `json:"fileName"`
	MIMEType       string    `json:"mimeType"`
	Size           flexInt64 `json:"size"`
	ModifiedTime   string    `json:"modifiedTime"`
	EditedTime     string    `json:"editedTime"`
	ParentID       string    `json:"parentId"`
	ParentFolderID string    `json:"parentFolderId"`
	ParentFolder   []string  `json:"parentFolder"`
	DownloadURL    string    `json:"downloadUrl"`
}

// Ident returns the file id.
func (f DriveFile) Ident() string {
	if f.ID != "" {
		return f.ID
	}
	return f.FileID
}

// DisplayName returns the file name.
func (f DriveFile) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.FileName
}

// Modified returns the last modification time as reported by the provider.
func (f DriveFile) Modified() string {
	if f.ModifiedTime != "" {
		return f.ModifiedTime
	}
	return f.EditedTime
}

// Parents returns every parent id the entry reports.
func (f DriveFile) Parents() []string {
	var parents []string
	for _, p := range append([]string{f.ParentID, f.ParentFolderID}, f.ParentFolder...) {
		if p != "" {
			parents = append(parents, p)
		}
	}
	return parents
}

// IsImage reports whether the media type starts with "image/".
func (f DriveFile) IsImage() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

type fileList struct {
	Files      []DriveFile `json:"files"`
	NextCursor string      `json:"nextCursor"`
}

type searchRequest struct {
	Query  string `json:"query"`
	Fields string `json:"fields"`
	Cursor string `json:"cursor,omitempty"`
}

type linkRequest struct {
	ExpireSec int  `json:"expireSec"`
	Auth      bool `json:"auth"`
}

type linkResponse struct {
	DownloadLink string `json:"downloadLink"`
}

// flexInt64 accepts sizes encoded either as JSON numbers or strings.
type flexInt64 int64

func (n *flexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", b, err)
	}
	*n = flexInt64(v)
	return nil
}

// quote escapes a value for use inside a single-quoted search query literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
