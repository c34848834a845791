package services

import (
	"context"
	"io"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/storage"
	"accessible-env-backend/pkg/logger"
)

// Upload is an image received from a client
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Description string
}

// InterfaceImageService stores location and assessment photos
type InterfaceImageService interface {
	UploadLocationImage(ctx context.Context, actor rules.Actor, locationID uint, up Upload) (*models.LocationImage, error)
	ListLocationImages(ctx context.Context, locationID uint) ([]models.LocationImage, error)
	DeleteLocationImage(ctx context.Context, actor rules.Actor, locationID, imageID uint) error
	UploadAssessmentImage(ctx context.Context, actor rules.Actor, assessmentID uint, detailID *uint, up Upload) (*models.AssessmentImage, error)
	ListAssessmentImages(ctx context.Context, actor rules.Actor, assessmentID uint) ([]models.AssessmentImage, error)
	DeleteAssessmentImage(ctx context.Context, actor rules.Actor, assessmentID, imageID uint) error
}

type ImageService struct {
	DB        *gorm.DB
	Config    *config.Config
	Storage   storage.ObjectStorage
	Publisher messaging.Publisher
}

func NewImageService(db *gorm.DB, cfg *config.Config, store storage.ObjectStorage, publisher messaging.Publisher) InterfaceImageService {
	return &ImageService{DB: db, Config: cfg, Storage: store, Publisher: publisher}
}

// 1 UploadLocationImage stores a photo of a location
func (s *ImageService) UploadLocationImage(ctx context.Context, actor rules.Actor, locationID uint, up Upload) (*models.LocationImage, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermImageUpload); err != nil {
		return nil, err
	}
	ext, err := checkUpload(&up)
	if err != nil {
		return nil, err
	}
	locations := repositories.NewLocationRepository(s.DB)
	loc, err := locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.Status == models.LocationArchived {
		return nil, apperr.Conflict(code.ErrLocationArchived, "")
	}

	key := storage.ObjectKey("locations", locationID, ext)
	url, err := s.put(ctx, key, up)
	if err != nil {
		return nil, err
	}
	img := &models.LocationImage{
		LocationID:  locationID,
		ObjectKey:   key,
		URL:         url,
		Description: strings.TrimSpace(up.Description),
		UploadedBy:  actor.ID,
	}
	if err := locations.CreateImage(ctx, img); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	publishAsync(s.Publisher, messaging.EventImageUploaded, map[string]interface{}{
		"scope":       "location",
		"location_id": locationID,
		"image_id":    img.ID,
		"object_key":  key,
		"url":         url,
	})
	return img, nil
}

// 2 ListLocationImages lists the photos of a location
func (s *ImageService) ListLocationImages(ctx context.Context, locationID uint) ([]models.LocationImage, error) {
	locations := repositories.NewLocationRepository(s.DB)
	if _, err := locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return locations.ListImages(ctx, locationID)
}

// 3 DeleteLocationImage removes a photo; uploaders and inspectors may
func (s *ImageService) DeleteLocationImage(ctx context.Context, actor rules.Actor, locationID, imageID uint) error {
	locations := repositories.NewLocationRepository(s.DB)
	img, err := locations.GetImage(ctx, locationID, imageID)
	if err != nil {
		return err
	}
	if !rules.CanModifyOwned(actor, img.UploadedBy) {
		return apperr.Forbidden(code.ErrForbidden, "you can only delete your own images")
	}
	if err := locations.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	s.removeObject(ctx, img.ObjectKey)
	return nil
}

// 4 UploadAssessmentImage attaches evidence to an assessment, optionally to
// one of its details. Only the assessor may upload while it is editable.
func (s *ImageService) UploadAssessmentImage(ctx context.Context, actor rules.Actor, assessmentID uint, detailID *uint, up Upload) (*models.AssessmentImage, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermImageUpload); err != nil {
		return nil, err
	}
	ext, err := checkUpload(&up)
	if err != nil {
		return nil, err
	}
	assessments := repositories.NewAssessmentRepository(s.DB)
	a, err := assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.AssessorID != actor.ID {
		return nil, apperr.Forbidden(code.ErrForbidden, "only the assessor can add images")
	}
	if !a.Status.IsEditable() {
		return nil, apperr.Conflict(code.ErrAssessmentLocked, "")
	}
	if detailID != nil {
		if _, err := assessments.GetDetail(ctx, assessmentID, *detailID); err != nil {
			return nil, err
		}
	}

	key := storage.ObjectKey("assessments", assessmentID, ext)
	url, err := s.put(ctx, key, up)
	if err != nil {
		return nil, err
	}
	img := &models.AssessmentImage{
		AssessmentID: assessmentID,
		DetailID:     detailID,
		ObjectKey:    key,
		URL:          url,
		Description:  strings.TrimSpace(up.Description),
		UploadedBy:   actor.ID,
	}
	if err := assessments.CreateImage(ctx, img); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	publishAsync(s.Publisher, messaging.EventImageUploaded, map[string]interface{}{
		"scope":         "assessment",
		"assessment_id": assessmentID,
		"image_id":      img.ID,
		"object_key":    key,
		"url":           url,
	})
	return img, nil
}

// 5 ListAssessmentImages lists the evidence of a visible assessment
func (s *ImageService) ListAssessmentImages(ctx context.Context, actor rules.Actor, assessmentID uint) ([]models.AssessmentImage, error) {
	assessments := repositories.NewAssessmentRepository(s.DB)
	a, err := assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := assessmentVisible(ctx, repositories.NewLocationRepository(s.DB), actor, a); err != nil {
		return nil, err
	}
	return assessments.ListImages(ctx, assessmentID)
}

// 6 DeleteAssessmentImage removes evidence while the assessment is editable
func (s *ImageService) DeleteAssessmentImage(ctx context.Context, actor rules.Actor, assessmentID, imageID uint) error {
	assessments := repositories.NewAssessmentRepository(s.DB)
	a, err := assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return err
	}
	img, err := assessments.GetImage(ctx, assessmentID, imageID)
	if err != nil {
		return err
	}
	if !actor.IsSuperadmin() {
		if img.UploadedBy != actor.ID {
			return apperr.Forbidden(code.ErrForbidden, "you can only delete your own images")
		}
		if !a.Status.IsEditable() {
			return apperr.Conflict(code.ErrAssessmentLocked, "")
		}
	}
	if err := assessments.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	s.removeObject(ctx, img.ObjectKey)
	return nil
}

func (s *ImageService) put(ctx context.Context, key string, up Upload) (string, error) {
	url, err := s.Storage.Put(ctx, key, up.Reader, up.Size, up.ContentType)
	if err != nil {
		return "", apperr.Infrastructure(code.ErrStorage, err)
	}
	return url, nil
}

func (s *ImageService) removeObject(ctx context.Context, key string) {
	if err := s.Storage.Delete(ctx, key); err != nil {
		logger.Warning("delete object %s failed: %v", key, err)
	}
}

// checkUpload validates type and size and returns the file extension. The
// leading bytes must be an accepted image and their sniffed type replaces the
// declared one.
func checkUpload(up *Upload) (string, error) {
	if _, ok := storage.ImageExtension(up.ContentType); !ok {
		return "", errUnsupportedImage()
	}
	if up.Size <= 0 {
		return "", apperr.Validation(code.ErrValidation, "empty file")
	}
	if up.Size > storage.MaxImageSize {
		return "", apperr.Validation(code.ErrFileTooLarge, "image must not exceed 10 MiB")
	}
	r, sniffed, err := storage.SniffImage(up.Reader)
	if err != nil {
		return "", apperr.Validation(code.ErrValidation, "unreadable file")
	}
	if sniffed == "" {
		return "", errUnsupportedImage()
	}
	up.Reader = r
	up.ContentType = sniffed
	ext, _ := storage.ImageExtension(sniffed)
	return ext, nil
}

func errUnsupportedImage() error {
	return apperr.Validation(code.ErrUnsupportedMedia, "only jpeg, png, webp and gif images are accepted")
}
