package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"stylit/internal/domain"
	"stylit/internal/jobqueue"
	"stylit/internal/models"
	"stylit/pkg/cloudinary"
	"stylit/pkg/imagegen"
)

type UserGetter interface {
	GetByID(id uint) (*models.User, error)
}

type ImageWriter interface {
	Upsert(li *models.LookImage) error
}

// StatusBroadcaster pushes live job-state transitions to connected clients.
type StatusBroadcaster interface {
	LookStatusChanged(userID uint, publicID, status string)
}

// GenerationService is the worker side of the pipeline: it renders the
// composite, persists the artifact, and walks the job state machine. A failed
// attempt is recorded terminal; the backend never retries on its own.
type GenerationService struct {
	looks    LookStore
	images   ImageWriter
	users    UserGetter
	items    ItemStore
	provider imagegen.Provider
	uploader cloudinary.Client
	notif    Notifier
	hub      StatusBroadcaster
	imageTTL time.Duration
}

func NewGenerationService(
	looks LookStore,
	images ImageWriter,
	users UserGetter,
	items ItemStore,
	provider imagegen.Provider,
	uploader cloudinary.Client,
	notif Notifier,
	hub StatusBroadcaster,
	imageTTL time.Duration,
) *GenerationService {
	return &GenerationService{
		looks:    looks,
		images:   images,
		users:    users,
		items:    items,
		provider: provider,
		uploader: uploader,
		notif:    notif,
		hub:      hub,
		imageTTL: imageTTL,
	}
}

// Process performs one generation attempt. It matches the jobqueue
// ProcessFunc signature.
func (s *GenerationService) Process(ctx context.Context, job jobqueue.Job) error {
	look, err := s.looks.GetByID(job.LookID)
	if err != nil {
		return fmt.Errorf("load look %d: %w", job.LookID, err)
	}
	user, err := s.users.GetByID(job.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", job.UserID, err)
	}

	s.setLookStatus(look, job.UserID, domain.GenerationProcessing)

	items, err := s.items.GetByIDs(look.Items())
	if err != nil {
		s.recordFailure(look, user.ID, fmt.Sprintf("load items: %v", err))
		return nil
	}
	refs := make([]string, 0, len(items))
	for _, it := range items {
		refs = append(refs, it.ImageURL)
	}

	log.Printf("[WORKER] generating look=%d user=%d attempt=%s", look.ID, user.ID, job.AttemptID)
	rendered, err := s.provider.Generate(ctx, user.PhotoURL, refs)
	if err != nil {
		log.Printf("[WORKER] provider failed look=%d: %v", look.ID, err)
		s.recordFailure(look, user.ID, err.Error())
		return nil
	}

	url, _, err := s.uploader.UploadImage(ctx, bytes.NewReader(rendered), "looks", fmt.Sprintf("%s-%d-%s", look.PublicID, user.ID, job.AttemptID))
	if err != nil {
		log.Printf("[WORKER] upload failed look=%d: %v", look.ID, err)
		s.recordFailure(look, user.ID, "artifact upload failed")
		return nil
	}

	expires := time.Now().Add(s.imageTTL)
	if err := s.images.Upsert(&models.LookImage{
		LookID:     look.ID,
		UserID:     user.ID,
		StorageRef: url,
		Status:     domain.GenerationCompleted,
		Provider:   s.provider.Name(),
		ExpiresAt:  &expires,
	}); err != nil {
		return fmt.Errorf("persist look image: %w", err)
	}
	s.setLookStatus(look, user.ID, domain.GenerationCompleted)
	log.Printf("[WORKER] look=%d completed", look.ID)

	// System/bulk jobs are announced through a separate batched channel;
	// pushing here too would double-notify.
	if s.notif != nil && domain.IsUserAttributed(look.CreationSource) {
		_ = s.notif.LookReady(look.CreatorUserID, look.ID, look.PublicID)
	}
	return nil
}

func (s *GenerationService) recordFailure(look *models.Look, userID uint, msg string) {
	if err := s.images.Upsert(&models.LookImage{
		LookID:       look.ID,
		UserID:       userID,
		Status:       domain.GenerationFailed,
		Provider:     s.provider.Name(),
		ErrorMessage: msg,
	}); err != nil {
		log.Printf("[WORKER] record failure look=%d: %v", look.ID, err)
	}
	s.setLookStatus(look, userID, domain.GenerationFailed)
}

func (s *GenerationService) setLookStatus(look *models.Look, userID uint, status string) {
	if err := s.looks.UpdateFields(look.ID, map[string]interface{}{"generation_status": status}); err != nil {
		log.Printf("[WORKER] set status look=%d: %v", look.ID, err)
		return
	}
	look.GenerationStatus = status
	if s.hub != nil {
		s.hub.LookStatusChanged(userID, look.PublicID, status)
	}
}
