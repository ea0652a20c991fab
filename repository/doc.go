// Package repository provides a generic Bun repository for UUID-keyed,
// soft-deletable entities: lookups, predicate filtering with pagination,
// insert-or-merge saves, upserts, soft deletes and their transactional forms.
package repository
