// Package notes defines the core domain types shared by the store, search,
// journal, and worker packages: note and tag records, list filters and sort
// orders, search results, and the structured error taxonomy.
//
// Types in this package are plain values with no behavior beyond small
// helpers. All persistence lives in internal/store; all query semantics live
// in internal/search.
package notes
