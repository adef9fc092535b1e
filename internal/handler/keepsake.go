package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jun/babymemories/internal/keepsake"
	"github.com/jun/babymemories/internal/model"
)

// KeepsakeHandler serves the videos, milestones, guestbook and birthday
// widgets.
type KeepsakeHandler struct {
	svc *keepsake.Service
}

// NewKeepsakeHandler creates a KeepsakeHandler.
func NewKeepsakeHandler(svc *keepsake.Service) *KeepsakeHandler {
	return &KeepsakeHandler{svc: svc}
}

func (h *KeepsakeHandler) ListVideos(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	videos, err := h.svc.Videos(ctx)
	if err != nil {
		return serviceError(err, "Videos"), nil
	}
	return jsonResponse(http.StatusOK, videos), nil
}

func (h *KeepsakeHandler) AddVideo(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Thumbnail string `json:"thumbnail"`
	}
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	video, err := h.svc.AddVideo(ctx, payload.Title, payload.URL, payload.Thumbnail)
	if err != nil {
		return serviceError(err, "Video"), nil
	}
	return jsonResponse(http.StatusCreated, video), nil
}

func (h *KeepsakeHandler) LikeVideo(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	video, err := h.svc.LikeVideo(ctx, req.PathParameters["id"])
	if err != nil {
		return serviceError(err, "Video"), nil
	}
	return jsonResponse(http.StatusOK, video), nil
}

func (h *KeepsakeHandler) CommentVideo(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload commentPayload
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	video, err := h.svc.CommentVideo(ctx, req.PathParameters["id"], payload.Text, payload.Name)
	if err != nil {
		return serviceError(err, "Video"), nil
	}
	return jsonResponse(http.StatusOK, video), nil
}

func (h *KeepsakeHandler) ListMilestones(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	milestones, err := h.svc.Milestones(ctx)
	if err != nil {
		return serviceError(err, "Milestones"), nil
	}
	return jsonResponse(http.StatusOK, milestones), nil
}

func (h *KeepsakeHandler) AddMilestone(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload model.Milestone
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	milestone, err := h.svc.AddMilestone(ctx, payload)
	if err != nil {
		return serviceError(err, "Milestone"), nil
	}
	return jsonResponse(http.StatusCreated, milestone), nil
}

func (h *KeepsakeHandler) ListMessages(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	messages, err := h.svc.Messages(ctx)
	if err != nil {
		return serviceError(err, "Messages"), nil
	}
	return jsonResponse(http.StatusOK, messages), nil
}

func (h *KeepsakeHandler) AddMessage(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	message, err := h.svc.AddMessage(ctx, payload.Name, payload.Email, payload.Message)
	if err != nil {
		return serviceError(err, "Message"), nil
	}
	return jsonResponse(http.StatusCreated, message), nil
}

func (h *KeepsakeHandler) GetBirthday(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	birthday, err := h.svc.Birthday(ctx)
	if err != nil {
		return serviceError(err, "Birthday"), nil
	}
	return jsonResponse(http.StatusOK, birthday), nil
}

func (h *KeepsakeHandler) SetBirthday(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Birthday string `json:"birthday"`
	}
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	birthday, err := h.svc.SetBirthday(ctx, payload.Birthday)
	if err != nil {
		return serviceError(err, "Birthday"), nil
	}
	return jsonResponse(http.StatusOK, birthday), nil
}
