// Package keepsake implements the page widgets that only read and write the
// keyed store: videos, milestones, the guestbook and the birthday timer.
// Each widget keeps one JSON document under its own key and falls back to a
// built-in seed until something is written.
package keepsake

import (
	"time"

	"github.com/jun/babymemories/internal/gallery"
	"github.com/jun/babymemories/internal/markdown"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/store"
)

// Store keys.
const (
	VideosKey     = "videos"
	MilestonesKey = "milestones"
	MessagesKey   = "messages"
	BirthdayKey   = "babyBirthday"
)

const dateLayout = "2006-01-02"

// ErrInvalid is returned for rejected input.
var ErrInvalid = gallery.ErrInvalid

// Service serves the keepsake widgets.
type Service struct {
	videos     *store.Typed[[]model.Video]
	milestones *store.Typed[[]model.Milestone]
	messages   *store.Typed[[]model.Message]
	birthday   *store.Typed[string]
	renderer   *markdown.Renderer
	now        func() time.Time
}

// NewService creates a Service over backend.
func NewService(backend store.Backend, renderer *markdown.Renderer) *Service {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	return &Service{
		videos:     store.NewTyped[[]model.Video](backend),
		milestones: store.NewTyped[[]model.Milestone](backend),
		messages:   store.NewTyped[[]model.Message](backend),
		birthday:   store.NewTyped[string](backend),
		renderer:   renderer,
		now:        time.Now,
	}
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}
