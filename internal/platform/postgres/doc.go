// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they run equally against a
// connection pool or a transaction; multi-statement mutations (answer append
// plus counter bump, accept flag pair, outbox enqueue) are composed into one
// transaction by the service layer through WithTx.
package postgres
