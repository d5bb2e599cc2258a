package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/catalogo-mayorista/internal/obs"
)

// Uploader turns raw uploads into resized variants in an ObjectStore.
type Uploader struct {
	Store    ObjectStore
	Variants []Variant
	Now      func() time.Time

	mu     sync.Mutex
	lastMs int64
}

// stamp returns strictly increasing unix milliseconds so object paths never collide.
func (u *Uploader) stamp() int64 {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	ms := now().UnixMilli()
	if ms <= u.lastMs {
		ms = u.lastMs + 1
	}
	u.lastMs = ms
	return ms
}

func (u *Uploader) variants() []Variant {
	if len(u.Variants) > 0 {
		return u.Variants
	}
	return DefaultVariants
}

// ProductImages stores every variant of every file under products/{id}/ and
// returns their public URLs in upload order.
func (u *Uploader) ProductImages(ctx context.Context, productID string, files [][]byte) ([]string, error) {
	if u == nil || u.Store == nil {
		return nil, errors.New("media: object store not configured")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.New("media: product id is required")
	}
	urls := make([]string, 0, len(files)*len(u.variants()))
	for i, data := range files {
		img, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
		for _, v := range u.variants() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			encoded, err := Encode(Resize(img, v.Width))
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", v.Suffix, err)
			}
			objectPath := fmt.Sprintf("products/%s/%d-%s.%s", productID, u.stamp(), v.Suffix, EncodedExt)
			if err := u.Store.Put(ctx, objectPath, EncodedContentType, encoded); err != nil {
				return nil, err
			}
			obs.ObserveImageVariant(v.Suffix)
			urls = append(urls, u.Store.PublicURL(objectPath))
		}
	}
	return urls, nil
}

// StageOriginal stores an untouched upload under uploads/{id}/ so variants can
// be generated later. It returns the object path.
func (u *Uploader) StageOriginal(ctx context.Context, productID, contentType string, data []byte) (string, error) {
	if u == nil || u.Store == nil {
		return "", errors.New("media: object store not configured")
	}
	if _, err := Decode(data); err != nil {
		return "", err
	}
	objectPath := fmt.Sprintf("uploads/%s/%d-original", strings.TrimSpace(productID), u.stamp())
	if err := u.Store.Put(ctx, objectPath, contentType, data); err != nil {
		return "", err
	}
	return objectPath, nil
}

// VariantsFromStaged loads staged originals and stores their variants.
func (u *Uploader) VariantsFromStaged(ctx context.Context, productID string, objectPaths []string) ([]string, error) {
	if u == nil || u.Store == nil {
		return nil, errors.New("media: object store not configured")
	}
	files := make([][]byte, 0, len(objectPaths))
	for _, p := range objectPaths {
		data, err := u.Store.Get(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		files = append(files, data)
	}
	return u.ProductImages(ctx, productID, files)
}

// Logo stores a branding logo as uploaded under branding/{catalogID}/.
func (u *Uploader) Logo(ctx context.Context, catalogID, filename, contentType string, data []byte) (string, error) {
	if u == nil || u.Store == nil {
		return "", errors.New("media: object store not configured")
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "logo"
	}
	objectPath := fmt.Sprintf("branding/%s/%d-%s", catalogID, u.stamp(), name)
	if err := u.Store.Put(ctx, objectPath, contentType, data); err != nil {
		return "", err
	}
	return u.Store.PublicURL(objectPath), nil
}
