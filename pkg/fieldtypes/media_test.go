package fieldtypes

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mythforms/pkg/model"
)

func imageField() model.Field {
	return model.Field{
		Name: "image",
		Type: model.FieldTypeImage,
		Options: model.FieldOptions{
			Accept:   []string{"image/png", "image/jpeg"},
			MaxBytes: 8,
		},
	}
}

func TestAcceptUpload(t *testing.T) {
	field := imageField()

	if err := AcceptUpload(field, model.Upload{Filename: "zeus.png", Data: []byte("png")}); err != nil {
		t.Fatalf("expected png to be accepted, got %v", err)
	}
	err := AcceptUpload(field, model.Upload{Filename: "zeus.png", ContentType: "image/png", Data: make([]byte, 9)})
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Fatalf("expected ErrUploadTooLarge, got %v", err)
	}
	err = AcceptUpload(field, model.Upload{Filename: "zeus.gif", ContentType: "image/gif", Data: []byte("gif")})
	if !errors.Is(err, ErrUploadType) {
		t.Fatalf("expected ErrUploadType, got %v", err)
	}
	if err.Error() != "Image must be one of image/png, image/jpeg" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	wildcard := field
	wildcard.Options.Accept = []string{"image/*"}
	if err := AcceptUpload(wildcard, model.Upload{ContentType: "image/gif", Data: []byte("gif")}); err != nil {
		t.Fatalf("expected wildcard to accept gif, got %v", err)
	}
}

func TestImage_UploadOrURL(t *testing.T) {
	field := imageField()
	strategy := Default().For(field)

	upload := &model.Upload{Filename: "zeus.png", ContentType: "image/png", Data: []byte("png")}
	value, err := strategy.Extract(field, Control{Upload: upload})
	if err != nil {
		t.Fatalf("extract upload: %v", err)
	}
	att := value.(model.Attachment)
	if !att.Pending() || att.URL != "" {
		t.Fatalf("expected pending upload without URL, got %+v", att)
	}
	if got := strategy.(PayloadEncoder).Encode(field, att); got != "" {
		t.Fatalf("expected pending upload to encode empty, got %#v", got)
	}

	if _, err := strategy.Extract(field, Control{Upload: &model.Upload{ContentType: "image/gif"}}); !errors.Is(err, ErrUploadType) {
		t.Fatalf("expected rejected upload, got %v", err)
	}

	value, _ = strategy.Extract(field, Control{Text: "https://example.org/zeus.png"})
	if err := strategy.Validate(field, value); err != nil {
		t.Fatalf("expected URL to validate, got %v", err)
	}
	if err := strategy.Validate(field, model.Attachment{URL: "not a url"}); err == nil {
		t.Fatalf("expected invalid URL to fail")
	}
	restored := strategy.Normalize(field, map[string]any{"url": "/attachments/deities/zeus/image.png"})
	if diff := cmp.Diff(model.Attachment{URL: "/attachments/deities/zeus/image.png"}, restored); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinates_Validate(t *testing.T) {
	field := model.Field{Name: "location", Type: model.FieldTypeCoordinates}
	strategy := Default().For(field)

	value, _ := strategy.Extract(field, Control{Text: "40.08, 22.35"})
	if diff := cmp.Diff(&model.Coordinates{Lat: 40.08, Lng: 22.35}, value); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
	if err := strategy.Validate(field, value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := strategy.Validate(field, &model.Coordinates{Lat: 91}); err == nil {
		t.Fatalf("expected latitude out of range")
	}
	bad, _ := strategy.Extract(field, Control{Rows: []Row{{"lat": "north", "lng": "1"}}})
	if err := strategy.Validate(field, bad); err == nil {
		t.Fatalf("expected unparseable coordinates to fail")
	}
}
