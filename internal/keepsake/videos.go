package keepsake

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/gallery"
	"github.com/jun/babymemories/internal/model"
)

// Videos lists the video gallery, newest additions first.
func (s *Service) Videos(ctx context.Context) ([]model.Video, error) {
	return s.videos.Load(ctx, VideosKey, DefaultVideos)
}

// AddVideo prepends a video. The thumbnail defaults to the video URL.
func (s *Service) AddVideo(ctx context.Context, title, url, thumbnail string) (model.Video, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Video{}, fmt.Errorf("%w: url is required", ErrInvalid)
	}
	if thumbnail = strings.TrimSpace(thumbnail); thumbnail == "" {
		thumbnail = url
	}
	video := model.Video{
		ID:        uuid.New().String(),
		URL:       url,
		Thumbnail: thumbnail,
		Title:     strings.TrimSpace(title),
		Date:      s.today(),
		Comments:  []model.Comment{},
	}
	_, err := s.videos.Update(ctx, VideosKey, DefaultVideos, func(videos *[]model.Video) error {
		*videos = append([]model.Video{video}, *videos...)
		return nil
	})
	if err != nil {
		return model.Video{}, err
	}
	return video, nil
}

// LikeVideo increments the like count of a video.
func (s *Service) LikeVideo(ctx context.Context, id string) (model.Video, error) {
	return s.mutateVideo(ctx, id, func(v *model.Video) {
		v.Likes++
	})
}

// CommentVideo appends a comment to a video.
func (s *Service) CommentVideo(ctx context.Context, id, text, name string) (model.Video, error) {
	comment, err := gallery.NewComment(text, name, s.now())
	if err != nil {
		return model.Video{}, err
	}
	return s.mutateVideo(ctx, id, func(v *model.Video) {
		v.Comments = append(v.Comments, comment)
	})
}

func (s *Service) mutateVideo(ctx context.Context, id string, apply func(*model.Video)) (model.Video, error) {
	var result model.Video
	_, err := s.videos.Update(ctx, VideosKey, DefaultVideos, func(videos *[]model.Video) error {
		for i := range *videos {
			if (*videos)[i].ID == id {
				apply(&(*videos)[i])
				result = (*videos)[i]
				return nil
			}
		}
		return adapter.ErrNotFound
	})
	return result, err
}

// DefaultVideos is the seed used before anything was stored.
func DefaultVideos() []model.Video {
	const sample = "https://sample-videos.com/video123/mp4/720/big_buck_bunny_720p_1mb.mp4"
	return []model.Video{
		{
			ID:        "1",
			URL:       sample,
			Thumbnail: "https://picsum.photos/id/237/800/450",
			Title:     "宝宝第一次洗澡",
			Date:      "2024-01-15",
			Likes:     128,
			Comments:  []model.Comment{},
		},
		{
			ID:        "2",
			URL:       sample,
			Thumbnail: "https://picsum.photos/id/238/800/450",
			Title:     "宝宝第一次翻身",
			Date:      "2024-03-20",
			Likes:     96,
			Comments:  []model.Comment{},
		},
	}
}
