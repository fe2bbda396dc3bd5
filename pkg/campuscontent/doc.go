// Package campuscontent provides the content layer of a campus
// collaboration board: notes, marketplace listings, events, Q&A doubts and
// collaborative projects, plus their nested answers and applications.
//
// A single Service interface orchestrates asset publishing, entity
// persistence, best-effort engagement counters, parent/child collections and
// read-side query pipelines. Document stores (memory, Postgres, SQLite) and
// blob stores (memory, filesystem, S3) are provided under subpackages and are
// injected through functional options.
//
// # Ordering
//
// Every list operation returns items in a per-type canonical order enforced
// by the store: notes, listings, questions and projects by createdAt
// descending; events by date ascending; answers by upvoteCount descending;
// applications by appliedAt descending. The query pipeline in package query
// may re-sort the result client-side.
//
// # Counters
//
// Engagement counters (downloads, views, registrations, upvotes, child
// counts) are incremented atomically by the store. Increments that are
// best-effort return an Outcome instead of an error; a failed increment is
// logged and never fails the enclosing user action.
package campuscontent
