package imagegen

import "context"

// Provider renders a composite of the requesting user wearing the given
// items. Rendering is personal to the viewer: userPhotoRef is their own
// reference photo.
type Provider interface {
	Generate(ctx context.Context, userPhotoRef string, itemRefs []string) ([]byte, error)
	Name() string
}
