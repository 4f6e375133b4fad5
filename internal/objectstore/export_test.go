package objectstore

import "fmt"

// IsPublic reports whether key has been marked public.
func (n *NatsObjectStore) IsPublic(key string) (bool, error) {
	info, err := n.store.GetInfo(key)
	if err != nil {
		return false, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return info.Metadata[metaVisibility] == visibilityPublic, nil
}

// ContentType returns the content type key was uploaded with.
func (n *NatsObjectStore) ContentType(key string) (string, error) {
	info, err := n.store.GetInfo(key)
	if err != nil {
		return "", fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return info.Headers.Get(headerContentType), nil
}
