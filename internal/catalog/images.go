package catalog

import "strings"

// DefaultImageBaseURL serves w500 renditions.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterURL returns the image URL for a poster path, or "" for an empty path.
func PosterURL(path string) string {
	return imageURL(DefaultImageBaseURL, path)
}

// PosterURL returns the image URL for a poster path using the configured image host.
func (c *Client) PosterURL(path string) string {
	return imageURL(c.imageBase, path)
}

func imageURL(base, path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
