package domain

import "fmt"

// Blob is a binary payload fetched from the file endpoints
type Blob struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
}

// BannerAsset is a banner image made renderable for the lifetime of the page
// that fetched it. Ref points into the asset store and stops resolving once
// the owning loader releases it.
type BannerAsset struct {
	FileID      int    `json:"file_id"`
	Ref         string `json:"ref"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// URL returns the path the asset is served from.
func (b BannerAsset) URL() string {
	if b.Ref == "" {
		return ""
	}
	return fmt.Sprintf("/assets/%s", b.Ref)
}
