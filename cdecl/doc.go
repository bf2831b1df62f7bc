// Package cdecl defines the contract between the pipeline and the
// C-parsing front-end.
//
// The front-end itself is external: it owns the actual C/C++ parser and
// produces a TranslationUnit, a flat stream of already-parsed top-level
// declarations with source locations and structural type information.
// This package only models that stream; it never parses C.
//
// # One session per process
//
// The underlying parsing engine is a process-wide singleton: only one
// parsing session may be active in a process at a time. Session makes
// that constraint explicit. Callers that run concurrently (parallel
// tests, parallel builds) must share a single Session, which serializes
// Parse calls internally, or run in separate processes. NewSession
// returns ErrSessionActive while another Session is open.
package cdecl
