package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"animagif/internal/catalog"
)

// resolveRecording finds a recording by full ID or by a unique prefix of
// its ID, as printed by list.
func resolveRecording(ctx context.Context, library *catalog.Library, arg string) (catalog.Recording, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return library.Get(ctx, id)
	}

	prefix := strings.ToLower(strings.TrimSpace(arg))
	if prefix == "" {
		return catalog.Recording{}, fmt.Errorf("%w: empty id", catalog.ErrNotFound)
	}

	recordings, err := library.List(ctx)
	if err != nil {
		return catalog.Recording{}, err
	}

	var matches []catalog.Recording
	for _, r := range recordings {
		if strings.HasPrefix(r.ID.String(), prefix) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return catalog.Recording{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return catalog.Recording{}, fmt.Errorf("id prefix %q matches %d recordings", arg, len(matches))
	}
}
