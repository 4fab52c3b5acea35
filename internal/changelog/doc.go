// Package changelog renders release sections from pending changesets and
// inserts them into a Markdown changelog document.
//
// This package implements:
//   - Entry construction from a version bump and its changesets
//   - A registry of render templates (default, detailed, github, file:<path>)
//   - Newest-first insertion below the document title and preamble
//   - Lookup of a released version's notes by its "## v{version} " header
//   - Terminal formatting for previews
//
// Templates are pure functions of an Entry and a RenderConfig. The config is
// loaded once per invocation and passed in explicitly.
package changelog
