// Package release turns pending changesets into an applied version bump:
// it plans the next version and changelog entry, writes the manifest and
// changelog, and consumes the changesets. A state marker written before the
// first mutation lets an interrupted run be resumed without a second bump.
package release
