package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultWeightLimit = 30

var (
	ErrWeightNotFound      = errors.New("weight entry not found")
	ErrWeightAlreadyLogged = errors.New("weight already logged for this day")
	ErrInvalidWeight       = fmt.Errorf("%w: weight must be positive", ErrValidation)
	ErrInvalidWeightUnit   = fmt.Errorf("%w: unit must be kg or lbs", ErrValidation)
	ErrInvalidContentType  = fmt.Errorf("%w: content type must be an image", ErrValidation)
	ErrPhotoKeyMismatch    = fmt.Errorf("%w: object key does not belong to this entry", ErrValidation)
	ErrUploadURLError      = errors.New("failed to generate upload URL")
)

// UploadURLResponse is returned when a client asks to upload a progress photo.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // reported back on confirm
}

// WeightEntry is a weight with a temporary link to its progress photo, if any.
type WeightEntry struct {
	domain.Weight
	PhotoURL *string `json:"photoUrl,omitempty"`
}

type LogWeightInput struct {
	Weight float64
	Unit   domain.WeightUnit
	Date   *time.Time
}

type WeightService interface {
	Log(ctx context.Context, userID primitive.ObjectID, input LogWeightInput) (*domain.Weight, error)
	List(ctx context.Context, userID primitive.ObjectID, limit int) ([]WeightEntry, error)
	Delete(ctx context.Context, userID, weightID primitive.ObjectID) error
	RequestPhotoUpload(ctx context.Context, userID, weightID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhoto(ctx context.Context, userID, weightID primitive.ObjectID, objectKey string) (*WeightEntry, error)
}

type weightService struct {
	weightRepo  repository.WeightRepository
	fileStorage storage.FileStorage
	invalidator DashboardInvalidator
	loc         *time.Location
	now         func() time.Time
}

// NewWeightService creates the weight service. Calendar days are computed in loc.
func NewWeightService(weightRepo repository.WeightRepository, fileStorage storage.FileStorage, invalidator DashboardInvalidator, loc *time.Location) WeightService {
	if loc == nil {
		loc = time.Local
	}
	if fileStorage == nil {
		fileStorage = storage.NewDisabledStorage()
	}
	return &weightService{
		weightRepo:  weightRepo,
		fileStorage: fileStorage,
		invalidator: invalidatorOrNoop(invalidator),
		loc:         loc,
		now:         time.Now,
	}
}

func (s *weightService) Log(ctx context.Context, userID primitive.ObjectID, input LogWeightInput) (*domain.Weight, error) {
	if input.Weight <= 0 {
		return nil, ErrInvalidWeight
	}
	unit := input.Unit
	if unit == "" {
		unit = domain.UnitKg
	}
	if !unit.Valid() {
		return nil, ErrInvalidWeightUnit
	}

	date := s.now()
	if input.Date != nil && !input.Date.IsZero() {
		date = *input.Date
	}

	weight := &domain.Weight{
		UserID: userID,
		Date:   date.UTC(),
		Day:    domain.DayKey(date, s.loc),
		Weight: input.Weight,
		Unit:   unit,
	}
	id, err := s.weightRepo.Create(ctx, weight)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWeightAlreadyLogged
		}
		return nil, fmt.Errorf("create weight: %w", err)
	}
	weight.ID = id
	s.invalidator.Invalidate(userID)
	return weight, nil
}

func (s *weightService) List(ctx context.Context, userID primitive.ObjectID, limit int) ([]WeightEntry, error) {
	weights, err := s.weightRepo.ListByUser(ctx, userID, clampLimit(limit, defaultWeightLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	entries := make([]WeightEntry, len(weights))
	for i := range weights {
		entries[i] = s.entry(ctx, weights[i])
	}
	return entries, nil
}

// entry attaches a download link. A failure only drops the link.
func (s *weightService) entry(ctx context.Context, w domain.Weight) WeightEntry {
	e := WeightEntry{Weight: w}
	if w.PhotoKey == "" {
		return e
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, w.PhotoKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if !storage.IsDisabled(err) {
			log.WithError(err).WithField("weight", w.ID.Hex()).Warn("weight: photo download url")
		}
		return e
	}
	e.PhotoURL = &url
	return e
}

func (s *weightService) owned(ctx context.Context, userID, weightID primitive.ObjectID) (*domain.Weight, error) {
	w, err := s.weightRepo.GetByID(ctx, weightID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeightNotFound
		}
		return nil, fmt.Errorf("get weight: %w", err)
	}
	if w.UserID != userID {
		return nil, ErrWeightNotFound
	}
	return w, nil
}

func (s *weightService) Delete(ctx context.Context, userID, weightID primitive.ObjectID) error {
	w, err := s.owned(ctx, userID, weightID)
	if err != nil {
		return err
	}
	if err := s.weightRepo.Delete(ctx, weightID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWeightNotFound
		}
		return fmt.Errorf("delete weight: %w", err)
	}
	s.deletePhoto(ctx, w.PhotoKey)
	s.invalidator.Invalidate(userID)
	return nil
}

func (s *weightService) deletePhoto(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.fileStorage.DeleteObject(ctx, key); err != nil && !storage.IsDisabled(err) {
		log.WithError(err).WithField("key", key).Warn("weight: orphaned progress photo")
	}
}

func (s *weightService) RequestPhotoUpload(ctx context.Context, userID, weightID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidContentType
	}
	if _, err := s.owned(ctx, userID, weightID); err != nil {
		return nil, err
	}

	key := storage.PhotoKey(userID, weightID, contentType)
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if storage.IsDisabled(err) {
			return nil, err
		}
		log.WithError(err).WithField("weight", weightID.Hex()).Error("weight: presign upload")
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}

func (s *weightService) ConfirmPhoto(ctx context.Context, userID, weightID primitive.ObjectID, objectKey string) (*WeightEntry, error) {
	if !storage.PhotoKeyBelongsTo(objectKey, userID, weightID) {
		return nil, ErrPhotoKeyMismatch
	}
	w, err := s.owned(ctx, userID, weightID)
	if err != nil {
		return nil, err
	}

	if err := s.weightRepo.SetPhotoKey(ctx, weightID, userID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeightNotFound
		}
		return nil, fmt.Errorf("set photo: %w", err)
	}
	if w.PhotoKey != "" && w.PhotoKey != objectKey {
		s.deletePhoto(ctx, w.PhotoKey)
	}
	w.PhotoKey = objectKey

	e := s.entry(ctx, *w)
	return &e, nil
}
