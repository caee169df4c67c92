// Package manifest reads, validates, and writes library manifests.
//
// A library ships a source manifest (library.json, library.yaml, or
// library.yml) describing its name, version, compatibility tags, and
// dependencies. The package store records what it installed in a
// .library.json file next to the library's sources. Source manifests are
// validated against the JSON Schema embedded from schema/library.schema.json.
package manifest
