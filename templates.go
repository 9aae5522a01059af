package mythforms

import (
	"io/fs"

	"github.com/goliatone/go-mythforms/pkg/review"
	"github.com/goliatone/go-mythforms/pkg/schema"
)

// EmbeddedCatalog exposes the built-in schema catalog so callers can copy or
// extend it and load the result with WithCatalog.
func EmbeddedCatalog() fs.FS {
	return schema.DefaultCatalog()
}

// EmbeddedReviewTemplates exposes the built-in review templates so callers
// can reuse or extend them without importing the review package directly.
func EmbeddedReviewTemplates() fs.FS {
	return review.TemplatesFS()
}
