package model

import (
	"errors"
	"strings"
)

var (
	// ErrNoCoverImage reports an image list without a usable cover image.
	ErrNoCoverImage = errors.New("recipe has no cover image")

	// ErrAmbiguousCover reports an image list with more than one cover
	// candidate.
	ErrAmbiguousCover = errors.New("recipe has multiple cover images")
)

// CoverImage selects the single image flagged type "cover". Strict on
// ambiguity.
func (r *Recipe) CoverImage() (Image, error) {
	var (
		cover Image
		found bool
	)
	for _, img := range r.ImageList {
		if !strings.EqualFold(img.Type, "cover") {
			continue
		}
		if found {
			return Image{}, ErrAmbiguousCover
		}
		cover = img
		found = true
	}
	if !found {
		return Image{}, ErrNoCoverImage
	}
	return cover, nil
}

// CoverImageOrNil is the tolerant variant for exports: any cover problem
// yields nil instead of an error.
func (r *Recipe) CoverImageOrNil() *Image {
	cover, err := r.CoverImage()
	if err != nil {
		return nil
	}
	return &cover
}

// CoverURL returns the authenticated cover image URL, or "" without a
// usable cover.
func (r *Recipe) CoverURL(apiKey string) string {
	cover := r.CoverImageOrNil()
	if cover == nil {
		return ""
	}
	return cover.URLWithKey(apiKey)
}
