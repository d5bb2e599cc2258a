package branding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	dbgen "github.com/noah-isme/catalogo-mayorista/internal/db/gen"
)

const (
	DefaultPrimaryColor   = "#000000"
	DefaultSecondaryColor = "#ffffff"

	// MaxLogoBytes caps an uploaded logo.
	MaxLogoBytes = 2 << 20
)

var logoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
}

// Queries is the branding slice of the generated queries.
type Queries interface {
	GetBranding(ctx context.Context, catalogID string) (dbgen.Branding, error)
	UpsertBranding(ctx context.Context, arg dbgen.UpsertBrandingParams) (dbgen.Branding, error)
}

// LogoStore persists logo files and returns their public URL.
type LogoStore interface {
	Logo(ctx context.Context, catalogID, filename, contentType string, data []byte) (string, error)
}

// Branding is the public look of one catalog.
type Branding struct {
	CatalogID      string     `json:"catalog_id"`
	LogoURL        *string    `json:"logo_url"`
	PrimaryColor   string     `json:"primary_color"`
	SecondaryColor string     `json:"secondary_color"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Input is an update request. Empty colors keep the stored ones.
type Input struct {
	CatalogID      string `json:"-" validate:"required,max=64"`
	PrimaryColor   string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" validate:"omitempty,hexcolor"`
}

// Logo is an uploaded logo file.
type Logo struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	Queries  Queries
	Logos    LogoStore
	Validate *validator.Validate
	Logger   zerolog.Logger
}

func defaults(catalogID string) Branding {
	return Branding{CatalogID: catalogID, PrimaryColor: DefaultPrimaryColor, SecondaryColor: DefaultSecondaryColor}
}

func toBranding(row dbgen.Branding) Branding {
	b := Branding{
		CatalogID:      row.CatalogID,
		PrimaryColor:   row.PrimaryColor,
		SecondaryColor: row.SecondaryColor,
	}
	if row.LogoUrl.Valid {
		u := row.LogoUrl.String
		b.LogoURL = &u
	}
	if row.UpdatedAt.Valid {
		t := row.UpdatedAt.Time
		b.UpdatedAt = &t
	}
	return b
}

// Get returns the branding of a catalog, or the defaults when none is stored.
func (s *Service) Get(ctx context.Context, catalogID string) (Branding, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return Branding{}, common.BadRequest("catalog_id", "catalog id is required")
	}
	row, err := s.Queries.GetBranding(ctx, catalogID)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaults(catalogID), nil
	}
	if err != nil {
		return Branding{}, fmt.Errorf("get branding: %w", err)
	}
	return toBranding(row), nil
}

// CheckLogo accepts PNG, JPEG and SVG files within MaxLogoBytes.
func CheckLogo(l Logo) (string, error) {
	if len(l.Data) == 0 {
		return "", common.BadRequest("logo", "logo is empty")
	}
	if len(l.Data) > MaxLogoBytes {
		return "", common.NewAppError("FILE_TOO_LARGE", "logo is too large", http.StatusRequestEntityTooLarge, nil)
	}
	ct, ok := logoTypes[strings.ToLower(path.Ext(l.Filename))]
	if !ok {
		return "", common.BadRequest("logo", "logo must be PNG, JPEG or SVG")
	}
	switch sniffed := http.DetectContentType(l.Data); {
	case ct == "image/svg+xml":
		if !strings.Contains(strings.ToLower(string(l.Data[:min(len(l.Data), 1024)])), "<svg") {
			return "", common.BadRequest("logo", "logo is not an SVG document")
		}
	case sniffed != ct:
		return "", common.BadRequest("logo", "logo content does not match its extension")
	}
	return ct, nil
}

// Update stores colors and an optional logo. Without a logo the stored one is kept.
func (s *Service) Update(ctx context.Context, in Input, logo *Logo) (Branding, error) {
	in.CatalogID = strings.TrimSpace(in.CatalogID)
	in.PrimaryColor = strings.TrimSpace(in.PrimaryColor)
	in.SecondaryColor = strings.TrimSpace(in.SecondaryColor)

	v := s.Validate
	if v == nil {
		v = common.NewValidator()
	}
	if err := v.Struct(in); err != nil {
		return Branding{}, common.ValidationError("invalid branding", err)
	}

	current, err := s.Get(ctx, in.CatalogID)
	if err != nil {
		return Branding{}, err
	}
	if in.PrimaryColor == "" {
		in.PrimaryColor = current.PrimaryColor
	}
	if in.SecondaryColor == "" {
		in.SecondaryColor = current.SecondaryColor
	}

	var logoURL pgtype.Text
	if logo != nil {
		ct, err := CheckLogo(*logo)
		if err != nil {
			return Branding{}, err
		}
		if s.Logos == nil {
			return Branding{}, common.NewAppError("MEDIA_NOT_CONFIGURED", "logo storage is not configured", http.StatusServiceUnavailable, nil)
		}
		u, err := s.Logos.Logo(ctx, in.CatalogID, logo.Filename, ct, logo.Data)
		if err != nil {
			return Branding{}, fmt.Errorf("store logo: %w", err)
		}
		logoURL = pgtype.Text{String: u, Valid: true}
	}

	row, err := s.Queries.UpsertBranding(ctx, dbgen.UpsertBrandingParams{
		CatalogID:      in.CatalogID,
		LogoUrl:        logoURL,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
	})
	if err != nil {
		return Branding{}, fmt.Errorf("upsert branding: %w", err)
	}
	s.Logger.Info().Str("catalog_id", in.CatalogID).Bool("logo", logo != nil).Msg("branding updated")
	return toBranding(row), nil
}
