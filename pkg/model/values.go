package model

// EntityReference is a lightweight pointer to another record, embedded by
// value inside reference-list fields.
type EntityReference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Icon string `json:"icon,omitempty"`
}

// Parallel links an entity to its counterpart in another tradition.
type Parallel struct {
	Tradition string `json:"tradition"`
	Name      string `json:"name"`
	Notes     string `json:"notes,omitempty"`
}

// SourceCitation points at the primary or secondary source backing a record.
type SourceCitation struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	URL    string `json:"url,omitempty"`
	Page   string `json:"page,omitempty"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Upload is a binary payload selected locally and not yet persisted remotely.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Size reports the payload size in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// Attachment holds either the URL of a persisted image or a pending upload.
// The two are mutually exclusive.
type Attachment struct {
	URL    string  `json:"url,omitempty"`
	Upload *Upload `json:"-"`
}

// IsZero reports whether the attachment holds neither a URL nor an upload.
func (a Attachment) IsZero() bool {
	return a.URL == "" && a.Upload == nil
}

// Pending reports whether the attachment is a local upload.
func (a Attachment) Pending() bool {
	return a.Upload != nil
}
