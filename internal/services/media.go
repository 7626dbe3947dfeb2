package services

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/storage"
)

// decodeDataURI strips an optional data-URI prefix and decodes the base64
// payload, returning the bytes and the declared content type.
func decodeDataURI(raw string) ([]byte, string, error) {
	contentType := "application/octet-stream"
	payload := raw

	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ";base64,")
		if idx < 0 {
			return nil, "", apperr.New(apperr.Validation, "Malformed file data")
		}
		contentType = raw[len("data:"):idx]
		payload = raw[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Validation, "Malformed file data", err)
	}

	return data, contentType, nil
}

// uploadMedia uploads each file concurrently under the owner's namespace and
// returns the stored paths in input order. Items upload independently but
// the join happens before the owning record is ever written, so a failed
// upload fails the whole request.
func uploadMedia(ctx context.Context, store StorageGateway, userID uuid.UUID, category string, files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	paths := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)

	for i, raw := range files {
		i, raw := i, raw
		g.Go(func() error {
			data, contentType, err := decodeDataURI(raw)
			if err != nil {
				return err
			}

			path, err := storage.NewObjectPath(userID.String(), category)
			if err != nil {
				return err
			}

			stored, err := store.Upload(gctx, path, data, contentType)
			if err != nil {
				return apperr.Wrap(apperr.Upstream, "Failed to upload file", err)
			}

			paths[i] = stored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}
