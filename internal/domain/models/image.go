// internal/domain/models/image.go
package models

import "github.com/dalemusser/fwsm/internal/domain/decode"

// Image is a stored media file referenced from an organization or page
// content. URL is the original; Formats carries the derived size variants.
type Image struct {
	ID         int
	Attributes ImageAttributes
}

type ImageAttributes struct {
	URL             string
	AlternativeText *string
	Formats         ImageFormats
}

// ImageFormats holds the derived variants. The backend always produces a
// thumbnail; small is only produced for images large enough.
type ImageFormats struct {
	Thumbnail ImageVariant
	Small     *ImageVariant
}

type ImageVariant struct {
	URL string
}

// UploadedImage is one element of the upload response, which is flat (no
// attributes wrapper) and may omit formats for tiny files.
type UploadedImage struct {
	ID      int
	Name    string
	URL     string
	Mime    *string
	Formats *ImageFormats
}

// ThumbnailURL returns the thumbnail variant, falling back to the original.
func (i Image) ThumbnailURL() string {
	if i.Attributes.Formats.Thumbnail.URL != "" {
		return i.Attributes.Formats.Thumbnail.URL
	}
	return i.Attributes.URL
}

// SmallURL returns the small variant, falling back to the original.
func (i Image) SmallURL() string {
	if s := i.Attributes.Formats.Small; s != nil && s.URL != "" {
		return s.URL
	}
	return i.Attributes.URL
}

var decodeVariant = decode.Object(func(o *decode.Obj) ImageVariant {
	return ImageVariant{URL: decode.Field(o, "url", decode.String())}
})

var decodeFormats = decode.Object(func(o *decode.Obj) ImageFormats {
	return ImageFormats{
		Thumbnail: decode.Field(o, "thumbnail", decodeVariant),
		Small:     decode.Field(o, "small", decode.Optional(decodeVariant)),
	}
})

// DecodeImage validates a populated media entry.
var DecodeImage = decode.Object(func(o *decode.Obj) Image {
	return Image{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) ImageAttributes {
			return ImageAttributes{
				URL:             decode.Field(a, "url", decode.String()),
				AlternativeText: decode.Field(a, "alternativeText", decode.Optional(decode.String())),
				Formats:         decode.Field(a, "formats", decodeFormats),
			}
		})),
	}
})

// DecodeUploadedImage validates one uploaded file descriptor.
var DecodeUploadedImage = decode.Object(func(o *decode.Obj) UploadedImage {
	return UploadedImage{
		ID:      decode.Field(o, "id", decode.Positive()),
		Name:    decode.Field(o, "name", decode.String()),
		URL:     decode.Field(o, "url", decode.String()),
		Mime:    decode.Field(o, "mime", decode.Optional(decode.String())),
		Formats: decode.Field(o, "formats", decode.Optional(decodeFormats)),
	}
})

// DecodeUploadedImages validates the upload response. An empty array means the
// backend accepted the request but stored nothing, which is a contract
// violation.
var DecodeUploadedImages = decode.NonEmpty(decode.OneOrMany(DecodeUploadedImage))
