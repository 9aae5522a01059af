package fieldtypes

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/goliatone/go-mythforms/pkg/model"
)

// PayloadEncoder is implemented by strategies whose in-memory value differs
// from the value written to a record payload.
type PayloadEncoder interface {
	Encode(field model.Field, value any) any
}

// imageStrategy holds a model.Attachment: the URL of a stored image or a
// pending upload, never both.
type imageStrategy struct{}

func (imageStrategy) Type() model.FieldType { return model.FieldTypeImage }

func (imageStrategy) Default(field model.Field) any {
	return model.Attachment{URL: stringDefault(field)}
}

func (imageStrategy) Extract(field model.Field, control Control) (any, error) {
	if control.Upload != nil {
		if err := AcceptUpload(field, *control.Upload); err != nil {
			return nil, err
		}
		upload := *control.Upload
		upload.Data = append([]byte(nil), control.Upload.Data...)
		return model.Attachment{Upload: &upload}, nil
	}
	return model.Attachment{URL: strings.TrimSpace(control.Text)}, nil
}

func (imageStrategy) Control(_ model.Field, value any) Control {
	att := asAttachment(value)
	return Control{Text: att.URL, Upload: att.Upload}
}

func (imageStrategy) Normalize(field model.Field, raw any) any {
	switch v := raw.(type) {
	case nil:
		return model.Attachment{URL: stringDefault(field)}
	case map[string]any:
		return model.Attachment{URL: strings.TrimSpace(asString(v["url"]))}
	default:
		return asAttachment(v)
	}
}

func (imageStrategy) Validate(field model.Field, value any) error {
	label := field.DisplayLabel()
	att, ok := value.(model.Attachment)
	if !ok {
		return failf("%s must be an image", label)
	}
	if att.Pending() {
		if att.URL != "" {
			return failf("%s cannot hold both a URL and an upload", label)
		}
		if err := AcceptUpload(field, *att.Upload); err != nil {
			var uploadErr *UploadError
			if errors.As(err, &uploadErr) {
				return &FieldError{Message: uploadErr.Message}
			}
			return failf("%s: %v", label, err)
		}
		return nil
	}
	if !validImageURL(att.URL) {
		return failf("%s must be a valid URL", label)
	}
	return ParseRules(field).checkPattern(label, att.URL)
}

// Encode writes the stored URL; pending uploads encode as an empty string
// until the attachment sink assigns one.
func (imageStrategy) Encode(_ model.Field, value any) any {
	return asAttachment(value).URL
}

// UploadError explains why an upload was refused. It unwraps to
// ErrUploadTooLarge or ErrUploadType.
type UploadError struct {
	FieldError
	Err error
}

func (e *UploadError) Unwrap() error { return e.Err }

// AcceptUpload checks an upload against the field's size limit and accepted
// media types. An empty accept list admits any type.
func AcceptUpload(field model.Field, upload model.Upload) error {
	label := field.DisplayLabel()
	if limit := field.Options.MaxBytes; limit > 0 && upload.Size() > limit {
		return &UploadError{
			FieldError: FieldError{Message: fmt.Sprintf("%s must be at most %s", label, formatBytes(limit))},
			Err:        ErrUploadTooLarge,
		}
	}
	if len(field.Options.Accept) == 0 {
		return nil
	}
	kind := uploadType(upload)
	for _, accepted := range field.Options.Accept {
		if matchMediaType(accepted, kind) {
			return nil
		}
	}
	return &UploadError{
		FieldError: FieldError{Message: fmt.Sprintf("%s must be one of %s", label, strings.Join(field.Options.Accept, ", "))},
		Err:        ErrUploadType,
	}
}

func uploadType(upload model.Upload) string {
	kind := upload.ContentType
	if kind == "" {
		kind = mime.TypeByExtension(strings.ToLower(path.Ext(upload.Filename)))
	}
	if parsed, _, err := mime.ParseMediaType(kind); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(kind))
}

func matchMediaType(accepted, kind string) bool {
	accepted = strings.ToLower(strings.TrimSpace(accepted))
	if accepted == "" || kind == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(accepted, "/*"); ok {
		return strings.HasPrefix(kind, prefix+"/")
	}
	return accepted == kind
}

func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit && n%(unit*unit) == 0:
		return strconv.FormatInt(n/(unit*unit), 10) + " MB"
	case n >= unit && n%unit == 0:
		return strconv.FormatInt(n/unit, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

func validImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	return validURL(raw)
}

func asAttachment(value any) model.Attachment {
	switch v := value.(type) {
	case model.Attachment:
		return v
	case *model.Attachment:
		if v != nil {
			return *v
		}
	case string:
		return model.Attachment{URL: strings.TrimSpace(v)}
	}
	return model.Attachment{}
}

// coordinatesStrategy holds *model.Coordinates, nil when unset. Input that
// does not parse is kept as text so validation can report it.
type coordinatesStrategy struct{}

func (coordinatesStrategy) Type() model.FieldType { return model.FieldTypeCoordinates }

func (coordinatesStrategy) Default(field model.Field) any {
	if coords, ok := asCoordinates(field.Default); ok {
		return coords
	}
	return nil
}

func (coordinatesStrategy) Extract(_ model.Field, control Control) (any, error) {
	lat, lng := "", ""
	if len(control.Rows) > 0 {
		lat, lng = trimmed(control.Rows[0]["lat"]), trimmed(control.Rows[0]["lng"])
	} else if text := trimmed(control.Text); text != "" {
		parts := strings.SplitN(text, ",", 2)
		lat = trimmed(parts[0])
		if len(parts) == 2 {
			lng = trimmed(parts[1])
		}
	}
	if lat == "" && lng == "" {
		return nil, nil
	}
	latV, errLat := strconv.ParseFloat(lat, 64)
	lngV, errLng := strconv.ParseFloat(lng, 64)
	if errLat != nil || errLng != nil {
		return lat + "," + lng, nil
	}
	return &model.Coordinates{Lat: latV, Lng: lngV}, nil
}

func (coordinatesStrategy) Control(_ model.Field, value any) Control {
	coords, ok := asCoordinates(value)
	if !ok {
		return Control{Text: asString(value)}
	}
	lat, lng := formatNumber(coords.Lat), formatNumber(coords.Lng)
	return Control{Text: lat + ", " + lng, Rows: []Row{{"lat": lat, "lng": lng}}}
}

func (s coordinatesStrategy) Normalize(field model.Field, raw any) any {
	if raw == nil {
		return s.Default(field)
	}
	if coords, ok := asCoordinates(raw); ok {
		return coords
	}
	if str, ok := raw.(string); ok {
		value, _ := s.Extract(field, Control{Text: str})
		return value
	}
	return s.Default(field)
}

func (coordinatesStrategy) Validate(field model.Field, value any) error {
	label := field.DisplayLabel()
	coords, ok := asCoordinates(value)
	if !ok {
		return failf("%s must be a latitude and longitude", label)
	}
	if coords.Lat < -90 || coords.Lat > 90 {
		return failf("%s latitude must be between -90 and 90", label)
	}
	if coords.Lng < -180 || coords.Lng > 180 {
		return failf("%s longitude must be between -180 and 180", label)
	}
	return nil
}

func asCoordinates(value any) (*model.Coordinates, bool) {
	switch v := value.(type) {
	case *model.Coordinates:
		if v == nil {
			return nil, false
		}
		out := *v
		return &out, true
	case model.Coordinates:
		return &v, true
	case map[string]any:
		lat, okLat := toFloat(v["lat"])
		lng, okLng := toFloat(v["lng"])
		if !okLat || !okLng {
			return nil, false
		}
		return &model.Coordinates{Lat: lat, Lng: lng}, true
	default:
		return nil, false
	}
}
