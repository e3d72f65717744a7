// Package dynamodb provides a DynamoDB-backed implementation of the
// [github.com/slackmgr/todo/todo.Store] interface.
//
// # Overview
//
// Every to-do item is stored as a single DynamoDB item with a simple primary
// key: the partition key "id" (type S). The "title" (S) and "done" (BOOL)
// attributes are stored alongside it. Items are converted with the
// attributevalue package, so the table layout follows the dynamodbav tags of
// [github.com/slackmgr/todo/todo.Item].
//
// # Getting Started
//
// Create a [Client] with [New], supplying an AWS config, the DynamoDB table
// name, and any [Option] values you need:
//
//	client := dynamodb.New(&awsCfg, tableName, dynamodb.WithConsistentReads(true))
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	if err := client.Init(ctx, false); err != nil {
//	    return err
//	}
//
// By default, [Client.Connect] creates an AWS SDK v2 DynamoDB client from the
// supplied [aws.Config]. Supply [WithAPI] to inject a custom or mock
// implementation.
//
// # Partial Updates
//
// [Client.UpdateItem] builds a single SET expression from the field set,
// mapping each field to #k<i> and :v<i> placeholders in order. The update is
// conditional on the item existing; a failed condition is reported as
// [github.com/slackmgr/todo/todo.ErrItemNotFound], so updates never create
// partial items.
//
// # Concurrency
//
// [Client] is safe for concurrent use by multiple goroutines once
// [Client.Connect] has returned.
package dynamodb
