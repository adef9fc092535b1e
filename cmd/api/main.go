package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jun/babymemories/internal/app"
	"github.com/jun/babymemories/internal/logging"
)

func main() {
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"), format)

	application := app.NewApp(context.Background(), app.LoadConfig())
	lambda.Start(application.HandleRequest)
}
