package generation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/background"
	"github.com/plateful-app/plateful/internal/pkg/constants"
	"github.com/plateful-app/plateful/internal/pkg/storage"
)

// maxImageBytes caps how much we will pull from a provider result URL.
const maxImageBytes = 32 << 20 // 32 MiB

// PersistResult describes a successfully re-hosted image.
type PersistResult struct {
	ImagePath string    `json:"image_path"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Persister re-hosts a provider's ephemeral result in our own object store
// and keeps the recipe↔image association row consistent with it.
//
// Order of operations: upload new object → commit association row → delete
// superseded object. A failure between upload and commit can strand the new
// object (stale object, never a stale pointer); the old image stays valid
// until the new row is committed.
type Persister struct {
	store         storage.ObjectStore
	images        repository.RecipeImageRepository
	httpClient    *http.Client
	publicBaseURL string
}

// NewPersister builds a persistence pipeline.
func NewPersister(store storage.ObjectStore, images repository.RecipeImageRepository, publicBaseURL string) *Persister {
	return &Persister{
		store:         store,
		images:        images,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Persist downloads the externally-hosted result, uploads it under a
// collision-resistant key, upserts the association row and finally deletes
// the superseded object in the background.
func (p *Persister) Persist(ctx context.Context, sourceURL string, userID, recipeID uint, imageModel string) (*PersistResult, error) {
	data, err := p.download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	ext := storage.ExtFromURL(sourceURL)
	key := storage.BuildObjectKey(
		strconv.FormatUint(uint64(userID), 10),
		strconv.FormatUint(uint64(recipeID), 10),
		ext,
	)

	metadata := map[string]string{
		"user-id":     strconv.FormatUint(uint64(userID), 10),
		"recipe-id":   strconv.FormatUint(uint64(recipeID), 10),
		"image-model": imageModel,
		"uploaded-at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.store.Put(ctx, key, data, storage.ContentTypeForExt(ext), metadata); err != nil {
		return nil, &UploadError{Key: key, Err: err}
	}

	expiresAt := time.Now().Add(models.RecipeImageTTL)
	previousPath, err := p.images.Replace(&models.RecipeImage{
		UserID:     userID,
		RecipeID:   recipeID,
		ImagePath:  key,
		ImageModel: imageModel,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		// The freshly uploaded object is now orphaned. Non-destructive: the
		// previous association still points at a valid object.
		return nil, fmt.Errorf("update image record for recipe %d: %w", recipeID, err)
	}

	if previousPath != "" {
		p.deleteOldObject(previousPath, recipeID)
	}

	return &PersistResult{
		ImagePath: key,
		PublicURL: p.publicBaseURL + constants.PublicImageRoute + "/" + key,
		ExpiresAt: expiresAt,
	}, nil
}

func (p *Persister) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &DownloadError{URL: sourceURL, Err: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &DownloadError{URL: sourceURL, Err: err}
	}
	if len(data) == 0 {
		return nil, &DownloadError{URL: sourceURL, Err: fmt.Errorf("empty response body")}
	}
	return data, nil
}

// deleteOldObject removes the superseded object after the new association row
// is committed. Failures only leak a stale object, so this runs fire-and-
// forget with the error logged.
func (p *Persister) deleteOldObject(previousPath string, recipeID uint) {
	background.Go("delete-superseded-image", func(ctx context.Context) error {
		if err := p.store.Delete(ctx, previousPath); err != nil {
			return fmt.Errorf("delete superseded object %s for recipe %d: %w", previousPath, recipeID, err)
		}
		log.Infof("[Generation] Deleted superseded image %s for recipe %d", previousPath, recipeID)
		return nil
	})
}
