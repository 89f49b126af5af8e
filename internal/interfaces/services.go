package interfaces

import "github.com/ternarybob/prism/internal/models"

// ThumbnailCapturer renders a small preview image of an asset. Capture never
// fails: implementations degrade to an empty string so thumbnailing can never
// block the save path.
type ThumbnailCapturer interface {
	Capture(asset *models.Asset) string
}
