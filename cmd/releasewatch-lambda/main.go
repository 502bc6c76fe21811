package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aleister1102/releasewatch/internal/app"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aws/aws-lambda-go/lambda"
)

// Response is returned to the Lambda invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func handler(ctx context.Context) (Response, error) {
	rt, err := app.Bootstrap("")
	if err != nil {
		return Response{}, err
	}

	a, err := app.New(ctx, rt)
	if err != nil {
		rt.Logger.Error().Err(err).Msg("Failed to initialize application")
		return Response{}, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("Failed to close snapshot store")
		}
	}()

	a.Run(ctx)
	return Response{StatusCode: 200, Body: "Successfully executed"}, nil
}

func main() {
	if !config.IsLambda() {
		fmt.Fprintln(os.Stderr, "releasewatch-lambda must run inside AWS Lambda; use releasewatch run locally")
		os.Exit(1)
	}
	lambda.Start(handler)
}
