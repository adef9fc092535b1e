package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/adapter/googledrive"
	"github.com/jun/babymemories/internal/adapter/huawei"
	"github.com/jun/babymemories/internal/adapter/memory"
	"github.com/jun/babymemories/internal/auth"
	"github.com/jun/babymemories/internal/crypto"
	"github.com/jun/babymemories/internal/gallery"
	"github.com/jun/babymemories/internal/handler"
	"github.com/jun/babymemories/internal/keepsake"
	"github.com/jun/babymemories/internal/markdown"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/secret"
	"github.com/jun/babymemories/internal/store"
	"github.com/jun/babymemories/internal/ticket"
)

// Deps are the collaborators of an App.
type Deps struct {
	Photos  adapter.PhotoSource
	Content adapter.ContentSource // optional, serves proxy downloads
	Tickets handler.TicketVerifier
	Store   store.Backend

	AlbumName    string
	ErrorMode    handler.ErrorMode
	OriginSecret string // when set, requests must carry it in X-Origin-Verify
	Gallery      *gallery.Service
}

// App holds the dependencies for the Lambda function.
type App struct {
	photoHandler    *handler.PhotoHandler
	galleryHandler  *handler.GalleryHandler
	keepsakeHandler *handler.KeepsakeHandler
	originSecret    string
}

// New wires an App from deps.
func New(deps Deps) *App {
	svc := deps.Gallery
	if svc == nil {
		svc = gallery.NewService(deps.Photos, deps.AlbumName, deps.Store)
	}
	return &App{
		photoHandler:    handler.NewPhotoHandler(deps.Photos, deps.Content, deps.Tickets, deps.AlbumName, deps.ErrorMode),
		galleryHandler:  handler.NewGalleryHandler(svc),
		keepsakeHandler: handler.NewKeepsakeHandler(keepsake.NewService(deps.Store, markdown.NewRenderer())),
		originSecret:    deps.OriginSecret,
	}
}

// NewApp initializes the application dependencies from cfg.
func NewApp(ctx context.Context, cfg Config) *App {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if cfg.DevMode {
		resolver = secret.NewEnvResolver()
		slog.Info("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.ChainResolver{secret.NewSSMResolver(ssm.NewFromConfig(awsCfg)), secret.NewEnvResolver()}
		slog.Info("Using SSMResolver (SSM Parameter Store)")
	}

	// ---------- Keyed store ----------
	var backend store.Backend
	switch cfg.StoreBackend {
	case StoreDynamoDB:
		backend = store.NewDynamoBackend(dynamodb.NewFromConfig(awsCfg), cfg.StoreTable)
		slog.Info("Using DynamoDB store", "table", cfg.StoreTable)
	case StoreSQLite:
		sqlite, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			panic(fmt.Sprintf("unable to open sqlite store, %v", err))
		}
		backend = sqlite
		slog.Info("Using SQLite store", "path", cfg.SQLitePath)
	default:
		backend = store.NewMemoryBackend()
		slog.Info("Using in-memory store")
	}

	// ---------- Encryptor ----------
	var enc crypto.Encryptor
	if cfg.DevMode {
		enc = crypto.NewMockEncryptor()
		slog.Info("Using MockEncryptor (DEV_MODE=true)")
	} else {
		enc = crypto.NewKMSService(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)
	}

	// ---------- Content tickets ----------
	var signer *ticket.Signer
	ticketSecret, err := secret.Resolve(ctx, resolver, cfg.TicketSecret, cfg.TicketSecretParam)
	if err != nil {
		slog.Warn("Failed to resolve ticket secret", "error", err)
	}
	if ticketSecret != "" {
		signer = ticket.NewSigner(ticketSecret, cfg.TicketTTL, cfg.PublicBaseURL)
	}
	if cfg.URLMode == huawei.URLModeProxy && signer == nil {
		slog.Error("DOWNLOAD_URL_MODE=proxy needs TICKET_SECRET, falling back to token URLs")
		cfg.URLMode = huawei.URLModeToken
	}

	// ---------- Photo provider ----------
	photos, content := newPhotoProvider(ctx, cfg, resolver, backend, enc, signer)

	originSecret, err := secret.Resolve(ctx, resolver, "", cfg.OriginVerifySecretParam)
	if err != nil {
		slog.Warn("Failed to resolve origin verify secret", "error", err)
	}

	deps := Deps{
		Photos:       photos,
		Content:      content,
		Store:        backend,
		AlbumName:    cfg.AlbumName,
		ErrorMode:    cfg.ErrorMode,
		OriginSecret: originSecret,
		Gallery:      gallery.NewService(photos, cfg.AlbumName, backend).WithTimeout(cfg.GalleryTimeout),
	}
	if signer != nil {
		deps.Tickets = signer
	}
	return New(deps)
}

func newPhotoProvider(ctx context.Context, cfg Config, resolver secret.Resolver, backend store.Backend, enc crypto.Encryptor, signer *ticket.Signer) (adapter.PhotoSource, adapter.ContentSource) {
	var urlSigner adapter.URLSigner
	if signer != nil {
		urlSigner = signer
	}

	switch cfg.Provider {
	case ProviderMemory:
		slog.Info("Using in-memory demo album", "album", cfg.AlbumName)
		album := memory.NewDemoAlbum(cfg.AlbumName, urlSigner)
		return album, album

	case ProviderGoogleDrive:
		src, err := googledrive.NewSourceFromCredentials(ctx, []byte(cfg.GoogleCredentialsJSON), urlSigner)
		if err != nil {
			slog.Error("Google Drive source unavailable", "error", err)
			broken := unavailableSource{err: err}
			return broken, broken
		}
		slog.Info("Using Google Drive album", "album", cfg.AlbumName)
		return src, src

	default:
		clientSecret, err := secret.Resolve(ctx, resolver, cfg.HuaweiClientSecret, cfg.HuaweiClientSecretParam)
		if err != nil {
			slog.Warn("Failed to resolve HUAWEI_CLIENT_SECRET", "error", err)
		}
		hcfg := huawei.Config{
			ClientID:      cfg.HuaweiClientID,
			ClientSecret:  clientSecret,
			URLMode:       cfg.URLMode,
			Concurrency:   cfg.FetchConcurrency,
			RatePerSecond: cfg.FetchRate,
		}
		if urlSigner != nil {
			hcfg.Signer = urlSigner
		}
		if cfg.TokenCache {
			hcfg.Cache = auth.NewTokenCache(backend, enc, "")
		}
		slog.Info("Using Huawei Drive Kit album", "album", cfg.AlbumName, "url_mode", cfg.URLMode)
		client := huawei.NewClient(hcfg)
		return client, client
	}
}

// unavailableSource reports a provider that could not be constructed on
// every call, so the error mode still decides the response.
type unavailableSource struct {
	err error
}

func (u unavailableSource) ListAlbumPhotos(context.Context, string) ([]model.Photo, error) {
	return nil, u.err
}

func (u unavailableSource) OpenContent(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", u.err
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	method := req.HTTPMethod
	// Strip /api prefix if present (for CloudFront proxying)
	path := strings.TrimPrefix(req.Path, "/api")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	slog.Debug("Request", "method", method, "path", req.Path)

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}
	if req.QueryStringParameters == nil {
		req.QueryStringParameters = make(map[string]string)
	}
	handlers := app.route(parts, &req)
	methods := allowedMethods(handlers)

	// CORS Preflight
	if method == http.MethodOptions {
		return corsResponse(events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, methods), nil
	}

	// Security: Verify Request Origin (CloudFront only)
	if app.originSecret != "" && handler.Header(req, "X-Origin-Verify") != app.originSecret {
		slog.Warn("Security Block: Missing or invalid X-Origin-Verify header", "path", req.Path)
		return corsResponse(events.APIGatewayProxyResponse{
			StatusCode: http.StatusForbidden,
			Body:       `{"error":"Forbidden"}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, methods), nil
	}

	if handlers == nil {
		return corsResponse(notFound(method, path), methods), nil
	}
	h, ok := handlers[method]
	if !ok {
		return corsResponse(methodNotAllowed(methods), methods), nil
	}
	return corsResponse(must(h(ctx, req)), methods), nil
}

type handlerFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// route returns the handlers of the path, keyed by method, filling path
// parameters into req. An unknown path returns nil.
func (app *App) route(parts []string, req *events.APIGatewayProxyRequest) map[string]handlerFunc {
	switch {
	// /photos
	case len(parts) == 1 && parts[0] == "photos":
		return map[string]handlerFunc{http.MethodGet: app.photoHandler.ListPhotos}
	case len(parts) == 3 && parts[0] == "photos" && parts[2] == "content":
		req.PathParameters["id"] = parts[1]
		return map[string]handlerFunc{http.MethodGet: app.photoHandler.PhotoContent}

	// /gallery
	case len(parts) == 1 && parts[0] == "gallery":
		return map[string]handlerFunc{http.MethodGet: app.galleryHandler.GetGallery}
	case len(parts) == 2 && parts[0] == "gallery" && parts[1] == "photos":
		return map[string]handlerFunc{http.MethodPost: app.galleryHandler.AddPhoto}
	case len(parts) == 4 && parts[0] == "gallery" && parts[1] == "photos" && parts[3] == "like":
		req.PathParameters["id"] = parts[2]
		return map[string]handlerFunc{http.MethodPost: app.galleryHandler.LikePhoto}
	case len(parts) == 4 && parts[0] == "gallery" && parts[1] == "photos" && parts[3] == "comments":
		req.PathParameters["id"] = parts[2]
		return map[string]handlerFunc{http.MethodPost: app.galleryHandler.CommentPhoto}

	// /videos
	case len(parts) == 1 && parts[0] == "videos":
		return map[string]handlerFunc{
			http.MethodGet:  app.keepsakeHandler.ListVideos,
			http.MethodPost: app.keepsakeHandler.AddVideo,
		}
	case len(parts) == 3 && parts[0] == "videos" && parts[2] == "like":
		req.PathParameters["id"] = parts[1]
		return map[string]handlerFunc{http.MethodPost: app.keepsakeHandler.LikeVideo}
	case len(parts) == 3 && parts[0] == "videos" && parts[2] == "comments":
		req.PathParameters["id"] = parts[1]
		return map[string]handlerFunc{http.MethodPost: app.keepsakeHandler.CommentVideo}

	// /milestones, /messages, /birthday
	case len(parts) == 1 && parts[0] == "milestones":
		return map[string]handlerFunc{
			http.MethodGet:  app.keepsakeHandler.ListMilestones,
			http.MethodPost: app.keepsakeHandler.AddMilestone,
		}
	case len(parts) == 1 && parts[0] == "messages":
		return map[string]handlerFunc{
			http.MethodGet:  app.keepsakeHandler.ListMessages,
			http.MethodPost: app.keepsakeHandler.AddMessage,
		}
	case len(parts) == 1 && parts[0] == "birthday":
		return map[string]handlerFunc{
			http.MethodGet: app.keepsakeHandler.GetBirthday,
			http.MethodPut: app.keepsakeHandler.SetBirthday,
		}
	}
	return nil
}

// allowedMethods lists the methods a route serves, in a fixed order, plus
// OPTIONS.
func allowedMethods(handlers map[string]handlerFunc) string {
	var methods []string
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		if _, ok := handlers[m]; ok {
			methods = append(methods, m)
		}
	}
	return strings.Join(append(methods, http.MethodOptions), ", ")
}

func methodNotAllowed(methods string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusMethodNotAllowed,
		Body:       `{"error":"Method Not Allowed"}`,
		Headers:    map[string]string{"Content-Type": "application/json", "Allow": methods},
	}
}

func notFound(method, path string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("Not Found: %s %s", method, path)})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// corsResponse adds CORS headers to an API Gateway response.
func corsResponse(resp events.APIGatewayProxyResponse, methods string) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = "*"
	resp.Headers["Access-Control-Allow-Methods"] = methods
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type"
	return resp
}

// must unwraps a handler response, turning an error into a 500.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		slog.Error("Handler error", "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"Internal Server Error"}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}
	}
	return resp
}
