// Package postgres stores to-do items in a PostgreSQL table and implements
// todo.Store from github.com/slackmgr/todo/todo on top of a pgx v5 pool.
//
// A client is built with [New], connected with [Client.Connect] and prepared
// with [Client.Init], which creates the table when it is missing:
//
//	client := postgres.New(
//	    postgres.WithHost("db.internal"),
//	    postgres.WithUser("todo"),
//	    postgres.WithPassword(password),
//	    postgres.WithDatabase("todo"),
//	    postgres.WithSSLMode(postgres.SSLModeRequire),
//	)
//
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	if err := client.Init(ctx, false); err != nil {
//	    return err
//	}
//
// # Table layout
//
// Each item is one row in the items table (see [WithItemsTable]):
//
//	id text PRIMARY KEY, title text NOT NULL, done boolean NOT NULL DEFAULT false
//
// [Client.UpdateItem] writes only the columns it is given and fails with
// todo.ErrItemNotFound when the id has no row. Unless Init is told to skip
// it, the column types and nullability are checked against
// information_schema.columns at startup.
//
// # Pool tuning
//
// The WithPool* options map onto the matching pgxpool.Config fields. Options
// that are not given leave the pgxpool defaults in place.
package postgres
