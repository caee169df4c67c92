// Package deps turns the dependency declarations found in library manifests
// into a canonical list of Filter values.
//
// Manifests declare dependencies in three shapes: a single object with a
// "name" key, a name→version mapping, or a list of objects. Declarations
// captures whichever shape was written, preserving key order, and Normalize
// collapses it into []Filter. Code past the manifest boundary only ever sees
// []Filter.
package deps
