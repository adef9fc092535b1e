package model

import "time"

// Photo is a remote album photo as returned to the browser.
type Photo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	MIMEType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

// Comment is a visitor comment on a local photo or video.
type Comment struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Name string `json:"name"`
	Date string `json:"date"`
}

// LocalPhoto is a photo uploaded from the browser and kept in the keyed store.
type LocalPhoto struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ItemKind tells where a gallery item came from.
type ItemKind string

const (
	KindRemote ItemKind = "remote"
	KindLocal  ItemKind = "local"
)

// GalleryItem is one entry of the merged gallery view.
type GalleryItem struct {
	Kind     ItemKind  `json:"kind"`
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	MIMEType string    `json:"mimeType,omitempty"`
	Likes    int       `json:"likes"`
	Comments []Comment `json:"comments"`
}

// RemoteItem wraps a remote photo. Remote items never carry likes or comments.
func RemoteItem(p Photo) GalleryItem {
	return GalleryItem{
		Kind:     KindRemote,
		ID:       p.ID,
		URL:      p.URL,
		Title:    p.Title,
		MIMEType: p.MIMEType,
		Comments: []Comment{},
	}
}

// LocalItem wraps a locally stored photo.
func LocalItem(p LocalPhoto) GalleryItem {
	comments := p.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return GalleryItem{
		Kind:     KindLocal,
		ID:       p.ID,
		URL:      p.URL,
		Title:    p.Title,
		Likes:    p.Likes,
		Comments: comments,
	}
}

// Video is an entry of the video gallery.
type Video struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// Milestone is an entry of the milestones timeline.
type Milestone struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Message is a guestbook entry. HTML is rendered on read and never stored;
// Email is stored and left out of every response.
type Message struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
	Date    string `json:"date"`
	HTML    string `json:"html,omitempty"`
}

// Elapsed is the time since the birthday, split the way the timer shows it.
type Elapsed struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// CachedToken is a provider access token persisted by the token cache.
type CachedToken struct {
	EncryptedAccessToken string    `json:"encrypted_access_token" dynamodbav:"encrypted_access_token"`
	TokenType            string    `json:"token_type" dynamodbav:"token_type"`
	Expiry               time.Time `json:"expiry" dynamodbav:"expiry"`
}
