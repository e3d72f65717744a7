package apigw

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/todo"
)

// Dispatcher is the subset of [todo.Dispatcher] used by [Handler].
type Dispatcher interface {
	Dispatch(ctx context.Context, req todo.Request) (todo.Response, error)
}

// Handler adapts API Gateway HTTP API (payload format 2.0) events to a
// [Dispatcher].
type Handler struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewHandler creates a Handler. The returned handler's [Handler.Handle]
// method can be passed directly to lambda.Start.
func NewHandler(dispatcher Dispatcher, opts ...Option) (*Handler, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}

	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Handler{
		dispatcher: dispatcher,
		logger:     options.logger.With().Str("adapter", "apigw").Logger(),
	}, nil
}

// Handle converts the event, dispatches it and converts the response back.
//
// A dispatcher error is returned unchanged so that the Lambda runtime reports
// the invocation as failed and API Gateway answers with its own 5xx.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := NewRequest(event)
	if err != nil {
		h.logger.Info().Err(err).Str("request_id", event.RequestContext.RequestID).Msg("Rejected request with undecodable body")

		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": todo.ContentTypeJSON},
			Body:       `{"error":"invalid request body"}`,
		}, nil
	}

	resp, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", event.RequestContext.RequestID).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Failed to dispatch request")

		return events.APIGatewayV2HTTPResponse{}, err
	}

	return NewResponse(resp), nil
}

// NewRequest converts an API Gateway HTTP API event to a [todo.Request].
// Path parameters are passed on still escaped; the dispatcher decodes them.
func NewRequest(event events.APIGatewayV2HTTPRequest) (todo.Request, error) {
	path := event.RawPath
	if path == "" {
		path = event.RequestContext.HTTP.Path
	}

	body := []byte(event.Body)

	if event.IsBase64Encoded && event.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return todo.Request{}, fmt.Errorf("failed to decode base64 request body: %w", err)
		}

		body = decoded
	}

	return todo.Request{
		Method:     event.RequestContext.HTTP.Method,
		Path:       path,
		PathParams: event.PathParameters,
		Body:       body,
	}, nil
}

// NewResponse converts a [todo.Response] to an API Gateway HTTP API response.
func NewResponse(resp todo.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}
