// Package httpserver serves the to-do routes over plain HTTP with echo, for
// local development and container deployments.
//
// Requests are converted to [github.com/slackmgr/todo/todo.Request] and
// passed to the dispatcher unchanged. Requests that match no echo route are
// passed on as well, so unknown routes get the dispatcher's 404 body. Store
// failures are logged and answered with an opaque 500.
package httpserver
