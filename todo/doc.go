// Package todo implements the request dispatcher of the to-do item service.
//
// # Overview
//
// A [Dispatcher] receives an already-decoded [Request] (method, path, path
// parameters and body), matches it against a fixed, ordered route table and
// performs the corresponding operation on a [Store]:
//
//	GET    /health      probe the store
//	GET    /items       list all items
//	POST   /items       create an item
//	PUT    /items/{id}  partially update an item
//	DELETE /items/{id}  delete an item
//
// Anything else yields a 404 response. Path templates are not parsed here:
// PUT and DELETE rely on the calling framework to supply the "id" path
// parameter.
//
// # Stores
//
// [Store] is the minimal key-value capability set the dispatcher needs. The
// dynamodb and postgres packages provide implementations; package todotest
// provides an in-memory one for tests.
//
// # Errors
//
// Validation failures and unknown routes are reported as 4xx responses. Store
// failures are only caught on the health route; on every other route they are
// returned from [Dispatcher.Dispatch] so that the hosting framework can turn
// them into its own 5xx response.
//
// # Notifications
//
// If a [Notifier] is configured with [WithNotifier], an [Event] is emitted
// after every successful create, update and delete. Notification failures are
// logged and never change the response.
//
// # Concurrency
//
// [Dispatcher] holds no mutable state and is safe for concurrent use, provided
// its [Store] and [Notifier] are.
package todo
