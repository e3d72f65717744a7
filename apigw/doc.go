// Package apigw runs the to-do dispatcher behind Amazon API Gateway HTTP APIs
// on AWS Lambda.
//
// The integration must use payload format version 2.0 and a route with an
// {id} path parameter for PUT and DELETE, for example:
//
//	GET    /health
//	GET    /items
//	POST   /items
//	PUT    /items/{id}
//	DELETE /items/{id}
//
// Usage:
//
//	handler, err := apigw.NewHandler(dispatcher, apigw.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lambda.Start(handler.Handle)
package apigw
