package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/gallery"
)

// Header returns the first header value matching name, ignoring case.
// API Gateway and the local server disagree on header casing.
func Header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// jsonResponse encodes v as the response body.
func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		return errorResponse(http.StatusInternalServerError, "Internal Server Error")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// errorResponse returns {"error": msg}.
func errorResponse(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"error": msg})
}

// decodeBody unmarshals the request body into v, decoding base64 bodies
// first.
func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		raw = decoded
	}
	return json.Unmarshal(raw, v)
}

// serviceError maps a domain error to a response. what names the missing
// resource in 404 bodies.
func serviceError(err error, what string) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, gallery.ErrInvalid):
		return errorResponse(http.StatusBadRequest, err.Error())
	case errors.Is(err, gallery.ErrNotLocal):
		return errorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, adapter.ErrNotFound):
		return errorResponse(http.StatusNotFound, what+" not found")
	}
	slog.Error("Request failed", "error", err)
	return errorResponse(http.StatusInternalServerError, "Internal Server Error")
}
