package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/types"
)

const avatarSize = 512

// avatarPalette is the fixed set of background colors new accounts draw from.
var avatarPalette = []color.NRGBA{
	{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF},
	{R: 0xF1, G: 0x8F, B: 0x01, A: 0xFF},
	{R: 0xC7, G: 0x3E, B: 0x1D, A: 0xFF},
	{R: 0x3B, G: 0x1F, B: 0x2B, A: 0xFF},
	{R: 0x6A, G: 0x4C, B: 0x93, A: 0xFF},
	{R: 0x1B, G: 0x99, B: 0x8B, A: 0xFF},
}

// AvatarService renders an initials avatar for a new account and uploads it.
type AvatarService interface {
	CreateAndUpload(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	bucket   BucketService
	fontFace font.Face
}

// NewAvatarService loads the optional AVATAR_FONT TTF. Without a font the
// avatar is a plain colored disc with no initials.
func NewAvatarService(log *logger.Logger, bucket BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	var face font.Face
	if fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT")); fontPath != "" {
		serviceLog.Info("Loading avatar font", "font", fontPath)
		loaded, err := loadFontFace(fontPath, 206)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar font: %w", err)
		}
		face = loaded
	}

	return &avatarService{
		log:      serviceLog,
		bucket:   bucket,
		fontFace: face,
	}, nil
}

func (as *avatarService) CreateAndUpload(ctx context.Context, user *types.User) error {
	// Without storage the account is simply created without an avatar.
	if as.bucket == nil {
		as.log.Warn("No bucket configured, skipping avatar upload", "user_id", user.ID)
		return nil
	}

	buf, err := as.render(user)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())
	if err := as.bucket.UploadBytes(ctx, key, buf.Bytes(), "image/png"); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}

	user.AvatarBucketKey = key
	user.AvatarURL = as.bucket.GetPublicURL(key)
	return nil
}

func (as *avatarService) render(user *types.User) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	base := avatarPalette[rand.Intn(len(avatarPalette))]
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	if as.fontFace != nil {
		initials := computeInitials(user.Name)
		dc.SetFontFace(as.fontFace)
		tw, th := dc.MeasureString(initials)
		cx, cy := float64(avatarSize)/2, float64(avatarSize)/2
		dc.SetColor(color.White)
		dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func computeInitials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		return strings.ToUpper(parts[0][:1])
	default:
		return strings.ToUpper(parts[0][:1]) + strings.ToUpper(parts[len(parts)-1][:1])
	}
}

func loadFontFace(path string, points float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}
