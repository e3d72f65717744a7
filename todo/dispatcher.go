package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	// PathParamID is the path parameter carrying the item id on PUT and DELETE.
	PathParamID = "id"

	// ContentTypeJSON is the content type of every response.
	ContentTypeJSON = "application/json"

	msgTitleRequired    = "title is required"
	msgFieldsRequired   = "provide 'title' and/or 'done'"
	msgInvalidBody      = "invalid request body"
	msgRouteNotFoundFmt = "Route not found: %s %s"
)

// Request is a decoded inbound HTTP request.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Body       []byte
}

// Response is the outcome of dispatching a [Request]. Body is empty for 204
// responses.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type createBody struct {
	Title string `json:"title"`
}

type idBody struct {
	ID string `json:"id"`
}

type handlerFunc func(ctx context.Context, req *Request) (Response, error)

// route is a single entry of the route table. A route applies when the
// request method equals method and match reports true.
type route struct {
	name   string
	method string
	match  func(req *Request) bool
	handle handlerFunc
}

// Dispatcher matches requests against a fixed route table and performs the
// corresponding [Store] operation.
//
// Use [New] to create a Dispatcher.
type Dispatcher struct {
	store  Store
	opts   *Options
	routes []route
}

// New creates a Dispatcher backed by the given store.
func New(store Store, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}

	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	if options.newID == nil {
		return nil, errors.New("id generator cannot be nil")
	}

	if options.clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	d := &Dispatcher{
		store: store,
		opts:  options,
	}

	// First match wins. Method and path pairs are disjoint, so the order only
	// matters for readability.
	d.routes = []route{
		{name: "health", method: http.MethodGet, match: pathEquals("/health"), handle: d.health},
		{name: "list_items", method: http.MethodGet, match: pathEquals("/items"), handle: d.listItems},
		{name: "create_item", method: http.MethodPost, match: pathEquals("/items"), handle: d.createItem},
		{name: "update_item", method: http.MethodPut, match: hasPathParam(PathParamID), handle: d.updateItem},
		{name: "delete_item", method: http.MethodDelete, match: hasPathParam(PathParamID), handle: d.deleteItem},
	}

	return d, nil
}

// Dispatch routes the request and returns the response. A non-nil error means
// the store failed on a route other than /health; no response was produced
// and the caller is expected to report an internal error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	for _, r := range d.routes {
		if req.Method != r.method || !r.match(&req) {
			continue
		}

		d.opts.logger.Debug().
			Str("route", r.name).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Dispatching request")

		return r.handle(ctx, &req)
	}

	return jsonResponse(http.StatusNotFound, errorBody{Error: fmt.Sprintf(msgRouteNotFoundFmt, req.Method, req.Path)})
}

func (d *Dispatcher) health(ctx context.Context, _ *Request) (Response, error) {
	if err := d.store.Probe(ctx); err != nil {
		return jsonResponse(http.StatusInternalServerError, healthBody{Status: "error", Message: err.Error()})
	}

	return jsonResponse(http.StatusOK, healthBody{Status: "ok"})
}

func (d *Dispatcher) listItems(ctx context.Context, _ *Request) (Response, error) {
	items, err := d.store.ScanItems(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("failed to list items: %w", err)
	}

	if items == nil {
		items = []Item{}
	}

	return jsonResponse(http.StatusOK, items)
}

func (d *Dispatcher) createItem(ctx context.Context, req *Request) (Response, error) {
	var body createBody

	if err := decodeBody(req.Body, &body); err != nil {
		return jsonResponse(http.StatusBadRequest, errorBody{Error: msgInvalidBody})
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		return jsonResponse(http.StatusBadRequest, errorBody{Error: msgTitleRequired})
	}

	item := Item{
		ID:    d.opts.newID(),
		Title: title,
		Done:  false,
	}

	if err := d.store.PutItem(ctx, item); err != nil {
		return Response{}, fmt.Errorf("failed to create item: %w", err)
	}

	d.notify(ctx, EventItemCreated, item.ID, &item)

	return jsonResponse(http.StatusCreated, item)
}

func (d *Dispatcher) updateItem(ctx context.Context, req *Request) (Response, error) {
	id := pathParam(req, PathParamID)

	var update ItemUpdate

	if err := decodeBody(req.Body, &update); err != nil {
		return jsonResponse(http.StatusBadRequest, errorBody{Error: msgInvalidBody})
	}

	fields := update.Fields()
	if len(fields) == 0 {
		return jsonResponse(http.StatusBadRequest, errorBody{Error: msgFieldsRequired})
	}

	if err := d.store.UpdateItem(ctx, id, fields); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return jsonResponse(http.StatusNotFound, errorBody{Error: ErrItemNotFound.Error()})
		}

		return Response{}, fmt.Errorf("failed to update item %s: %w", id, err)
	}

	// Not transactional with the update: a concurrent delete may leave
	// nothing to read back.
	item, err := d.store.GetItem(ctx, id)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read item %s after update: %w", id, err)
	}

	d.notify(ctx, EventItemUpdated, id, item)

	if item == nil {
		return jsonResponse(http.StatusOK, idBody{ID: id})
	}

	return jsonResponse(http.StatusOK, item)
}

func (d *Dispatcher) deleteItem(ctx context.Context, req *Request) (Response, error) {
	id := pathParam(req, PathParamID)

	if err := d.store.DeleteItem(ctx, id); err != nil {
		return Response{}, fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	d.notify(ctx, EventItemDeleted, id, nil)

	return Response{
		StatusCode: http.StatusNoContent,
		Headers:    map[string]string{"Content-Type": ContentTypeJSON},
	}, nil
}

func (d *Dispatcher) notify(ctx context.Context, eventType EventType, id string, item *Item) {
	if d.opts.notifier == nil {
		return
	}

	event := Event{
		Type:      eventType,
		ItemID:    id,
		Item:      item,
		Timestamp: d.opts.clock().UTC(),
	}

	if err := d.opts.notifier.Notify(ctx, event); err != nil {
		d.opts.logger.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Str("item_id", id).
			Msg("Failed to deliver item change event")
	}
}

func pathEquals(path string) func(*Request) bool {
	return func(req *Request) bool {
		return req.Path == path
	}
}

func hasPathParam(name string) func(*Request) bool {
	return func(req *Request) bool {
		return req.PathParams[name] != ""
	}
}

// pathParam returns the URL-decoded path parameter. A value that is not
// validly escaped is returned as is.
func pathParam(req *Request, name string) string {
	raw := req.PathParams[name]

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}

	return decoded
}

// decodeBody decodes a JSON body into v. An empty body decodes as {}.
func decodeBody(body []byte, v any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, v)
}

func jsonResponse(status int, body any) (Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal response body: %w", err)
	}

	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": ContentTypeJSON},
		Body:       data,
	}, nil
}
