package media_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/media"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResizeKeepsAspectAndNeverUpscales(t *testing.T) {
	img, err := media.Decode(pngBytes(t, 600, 300))
	require.NoError(t, err)

	small := media.Resize(img, 256)
	require.Equal(t, 256, small.Bounds().Dx())
	require.Equal(t, 128, small.Bounds().Dy())

	same := media.Resize(img, 1024)
	require.Equal(t, 600, same.Bounds().Dx())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := media.Decode([]byte("not an image"))
	require.ErrorIs(t, err, media.ErrUnsupportedImage)
}

func TestProductImagesUploadsEveryVariant(t *testing.T) {
	store := &media.MemoryStore{Bucket: "images", BaseURL: "https://cdn.example.com"}
	fixed := time.UnixMilli(1700000000000)
	u := &media.Uploader{Store: store, Now: func() time.Time { return fixed }}

	urls, err := u.ProductImages(context.Background(), "prod-1", [][]byte{pngBytes(t, 300, 150), pngBytes(t, 40, 40)})
	require.NoError(t, err)
	require.Len(t, urls, 6)
	require.Equal(t, "https://cdn.example.com/images/products/prod-1/1700000000000-thumb.jpg", urls[0])
	require.Equal(t, "https://cdn.example.com/images/products/prod-1/1700000000001-md.jpg", urls[1])

	paths := store.Paths()
	sort.Strings(paths)
	require.Len(t, paths, 6)
	for _, p := range paths {
		require.True(t, strings.HasPrefix(p, "products/prod-1/"))
		obj, ok := store.Object(p)
		require.True(t, ok)
		require.Equal(t, "image/jpeg", obj.ContentType)
		decoded, err := media.Decode(obj.Data)
		require.NoError(t, err)
		require.LessOrEqual(t, decoded.Bounds().Dx(), 300)
	}
}

func TestProductImagesStopsOnBadFile(t *testing.T) {
	store := &media.MemoryStore{Bucket: "images"}
	u := &media.Uploader{Store: store}
	_, err := u.ProductImages(context.Background(), "prod-1", [][]byte{[]byte("x")})
	require.ErrorIs(t, err, media.ErrUnsupportedImage)
	require.Empty(t, store.Paths())
}

func TestLogoPath(t *testing.T) {
	store := &media.MemoryStore{Bucket: "images"}
	u := &media.Uploader{Store: store, Now: func() time.Time { return time.UnixMilli(42) }}

	url, err := u.Logo(context.Background(), "main", "../../mi logo.png", "image/png", []byte("png"))
	require.NoError(t, err)
	require.Equal(t, "https://storage.googleapis.com/images/branding/main/42-mi%20logo.png", url)
	obj, ok := store.Object("branding/main/42-mi logo.png")
	require.True(t, ok)
	require.Equal(t, "image/png", obj.ContentType)
}

func TestStagedOriginalsBecomeVariants(t *testing.T) {
	store := &media.MemoryStore{Bucket: "images"}
	u := &media.Uploader{Store: store, Now: func() time.Time { return time.UnixMilli(1000) }}
	ctx := context.Background()

	staged, err := u.StageOriginal(ctx, "prod-2", "image/png", pngBytes(t, 64, 32))
	require.NoError(t, err)
	require.Equal(t, "uploads/prod-2/1000-original", staged)

	_, err = u.StageOriginal(ctx, "prod-2", "image/png", []byte("nope"))
	require.ErrorIs(t, err, media.ErrUnsupportedImage)

	urls, err := u.VariantsFromStaged(ctx, "prod-2", []string{staged})
	require.NoError(t, err)
	require.Len(t, urls, 3)

	_, err = u.VariantsFromStaged(ctx, "prod-2", []string{"uploads/prod-2/missing"})
	require.ErrorIs(t, err, media.ErrObjectNotFound)
}
