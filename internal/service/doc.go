// Package service provides application-level services orchestrating the
// question and answer lifecycle.
//
// Services sit between the HTTP handlers and the persistence layer. They own
// the orchestration that no single collaborator can: validating proposed tags
// against the tag catalog cache, applying domain guards on the loaded
// aggregate, and committing the mutation together with its outbox event in a
// single database transaction. Handlers never talk to stores directly.
//
// Error handling follows a sentinel-first approach: expected failures surface
// as sentinel errors (from this package, the domain package, or the store
// package) that callers check with errors.Is, while unexpected failures are
// wrapped in QuestionServiceError with the failing operation attached.
package service
