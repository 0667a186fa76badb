// Package types defines the Timeline and table interfaces, the interval and
// registry entity types, and the error taxonomy for the appendable engine.
//
// Blocks form a flat timeline with at most one open block. Entries form a
// forest addressed by materialized paths ("/", "/<id>/", "/<id>/<id>/", ...)
// where opening an entry at depth N closes every open entry at depth N or
// deeper.
package types
