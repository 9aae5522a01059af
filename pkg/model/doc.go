// Package model defines the declarative field model consumed by the form
// engine. A Field is immutable once the schema registry hands it out: the
// engine, strategies and validators only read it. Field names may contain
// dots (`metadata.status`) to address nested output paths; the fieldpath
// package owns the path semantics. Validation rules reuse the canonical
// identifiers min/max, minLength/maxLength and pattern with string
// parameters so catalogs stay diffable as YAML and JSON.
package model
