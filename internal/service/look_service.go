package service

import (
	"log"
	"strings"
	"time"

	"stylit/internal/domain"
	"stylit/internal/jobqueue"
	"stylit/internal/models"

	"github.com/google/uuid"
)

type LookStore interface {
	Create(l *models.Look) error
	GetByID(id uint) (*models.Look, error)
	GetByPublicID(publicID string) (*models.Look, error)
	Update(l *models.Look) error
	UpdateFields(id uint, fields map[string]interface{}) error
	CountUserCreatedSince(userID uint, since time.Time) (int64, error)
	ListByCreator(userID uint, limit, offset int) ([]models.Look, error)
}

type ItemStore interface {
	GetByIDs(ids []uint) ([]models.Item, error)
}

type ImageStore interface {
	GetForViewer(lookID, userID uint) (*models.LookImage, error)
	Reset(lookID, userID uint) error
}

// Deductor is the slice of the credit service admission needs.
type Deductor interface {
	Deduct(userID uint, count int) (*Balance, error)
}

type Enqueuer interface {
	Enqueue(job jobqueue.Job) error
}

// LookService owns job admission, the curation gate, status lookup, and
// retry. Generation itself runs on the worker queue.
type LookService struct {
	looks  LookStore
	items  ItemStore
	images ImageStore
	ledger Deductor
	queue  Enqueuer
	now    func() time.Time
}

func NewLookService(looks LookStore, items ItemStore, images ImageStore, ledger Deductor, queue Enqueuer) *LookService {
	return &LookService{looks: looks, items: items, images: images, ledger: ledger, queue: queue, now: time.Now}
}

// Create admits a new generation job. Checks run in a fixed order so a
// rejected request never consumes a credit: item bound, rate limit, then the
// credit charge.
func (s *LookService) Create(userID uint, itemIDs []uint, source string) (*models.Look, error) {
	if len(itemIDs) < domain.MinLookItems || len(itemIDs) > domain.MaxLookItems {
		return nil, domain.ErrInvalidItems
	}
	return s.admit(userID, itemIDs, source, nil)
}

// Recreate replicates an existing look's item set, keeping lineage. The item
// bound is bypassed: the set was already accepted once.
func (s *LookService) Recreate(publicID string, actorID uint) (*models.Look, error) {
	orig, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if domain.Authorize(actorID, orig) != nil && !orig.IsPublic {
		return nil, domain.ErrUnauthorized
	}
	return s.admit(actorID, orig.Items(), domain.SourceRecreate, &orig.ID)
}

func (s *LookService) admit(userID uint, itemIDs []uint, source string, originalID *uint) (*models.Look, error) {
	now := s.now()
	recent, err := s.looks.CountUserCreatedSince(userID, now.Add(-domain.RateLimitWindow))
	if err != nil {
		return nil, err
	}
	if recent >= domain.HourlyLookLimit {
		return nil, domain.ErrRateLimited
	}

	items, err := s.items.GetByIDs(itemIDs)
	if err != nil {
		return nil, err
	}
	if len(items) != len(itemIDs) {
		return nil, domain.ErrNotFound
	}

	// Last check before any mutation: the charge itself.
	if _, err := s.ledger.Deduct(userID, 1); err != nil {
		return nil, err
	}

	var total int64
	currency := ""
	seen := map[string]bool{}
	tags := make([]string, 0, domain.MaxStyleTags)
	for _, it := range items {
		total += it.PriceCents
		// Last item's currency wins; mixed-currency sets inherit it as-is.
		currency = it.Currency
		for _, t := range it.TagList() {
			if len(tags) >= domain.MaxStyleTags {
				break
			}
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}

	look := &models.Look{
		PublicID:        uuid.New().String(),
		CreatorUserID:   userID,
		ItemIDs:         models.EncodeItemIDs(itemIDs),
		TotalPriceCents: total,
		Currency:        currency,
		StyleTags:       strings.Join(tags, ","),
		GenerationStatus: domain.GenerationPending,
		CurationStatus:   domain.CurationPending,
		CreationSource:   source,
		OriginalLookID:   originalID,
	}
	if err := s.looks.Create(look); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobqueue.NewJob(look.ID, userID)); err != nil {
		// Look stays pending; the retry endpoint re-enqueues it.
		log.Printf("[LOOKS] enqueue look=%d: %v", look.ID, err)
	}
	return look, nil
}

// Retry re-enqueues a generation attempt for the creator. The image row and
// job state are reset first; no credit is charged again. Completed and
// in-flight jobs are not retryable.
func (s *LookService) Retry(publicID string, actorID uint) (*models.Look, error) {
	look, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := domain.Authorize(actorID, look); err != nil {
		return nil, err
	}
	if look.GenerationStatus == domain.GenerationCompleted || look.GenerationStatus == domain.GenerationProcessing {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.images.Reset(look.ID, actorID); err != nil {
		return nil, err
	}
	look.GenerationStatus = domain.GenerationPending
	if err := s.looks.UpdateFields(look.ID, map[string]interface{}{"generation_status": domain.GenerationPending}); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobqueue.NewJob(look.ID, actorID)); err != nil {
		log.Printf("[LOOKS] retry enqueue look=%d: %v", look.ID, err)
	}
	return look, nil
}

// StatusResult is the polling view. Image-level state wins over job-level
// state whenever a cache row exists for the caller.
type StatusResult struct {
	Status    string `json:"status"`
	ImageURL  string `json:"image_url,omitempty"`
	Error     string `json:"error,omitempty"`
	FromImage bool   `json:"-"`
}

// GenerationStatus returns the caller's own image entry when one exists, and
// falls back to the look's job status during the window before any image row
// has been written.
func (s *LookService) GenerationStatus(publicID string, actorID uint) (*StatusResult, error) {
	look, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if domain.Authorize(actorID, look) != nil && !look.IsPublic {
		return nil, domain.ErrUnauthorized
	}
	img, err := s.images.GetForViewer(look.ID, actorID)
	if err != nil {
		return nil, err
	}
	if img != nil && img.Status != "" {
		return &StatusResult{Status: img.Status, ImageURL: img.StorageRef, Error: img.ErrorMessage, FromImage: true}, nil
	}
	return &StatusResult{Status: look.GenerationStatus}, nil
}

// Save moves a fresh look into the kept pile. Saved is terminal.
func (s *LookService) Save(publicID string, actorID uint) (*models.Look, error) {
	return s.curate(publicID, actorID, func(l *models.Look) (map[string]interface{}, error) {
		switch l.CurationStatus {
		case domain.CurationSaved:
			return nil, nil // quiet no-op
		case domain.CurationPending:
			l.CurationStatus = domain.CurationSaved
			return map[string]interface{}{"curation_status": domain.CurationSaved}, nil
		default:
			return nil, domain.ErrInvalidTransition
		}
	})
}

// Discard hides a look. Discarding forces both sharing flags off regardless
// of their prior values.
func (s *LookService) Discard(publicID string, actorID uint) (*models.Look, error) {
	return s.curate(publicID, actorID, func(l *models.Look) (map[string]interface{}, error) {
		switch l.CurationStatus {
		case domain.CurationSaved:
			return nil, domain.ErrInvalidTransition
		case domain.CurationDiscarded:
			return nil, nil // quiet no-op
		default:
			l.CurationStatus = domain.CurationDiscarded
			l.IsPublic = false
			l.SharedWithFriends = false
			return map[string]interface{}{
				"curation_status":     domain.CurationDiscarded,
				"is_public":           false,
				"shared_with_friends": false,
			}, nil
		}
	})
}

// Restore brings a discarded look back as saved; nothing ever returns to
// pending.
func (s *LookService) Restore(publicID string, actorID uint) (*models.Look, error) {
	return s.curate(publicID, actorID, func(l *models.Look) (map[string]interface{}, error) {
		switch l.CurationStatus {
		case domain.CurationSaved:
			return nil, nil // quiet no-op
		case domain.CurationDiscarded:
			l.CurationStatus = domain.CurationSaved
			return map[string]interface{}{"curation_status": domain.CurationSaved}, nil
		default:
			return nil, domain.ErrInvalidTransition
		}
	})
}

func (s *LookService) curate(publicID string, actorID uint, fn func(l *models.Look) (map[string]interface{}, error)) (*models.Look, error) {
	look, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := domain.Authorize(actorID, look); err != nil {
		return nil, err
	}
	updates, err := fn(look)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		return look, nil
	}
	if err := s.looks.UpdateFields(look.ID, updates); err != nil {
		return nil, err
	}
	return look, nil
}

// SetSharing updates the visibility flags. Discarded looks stay hidden.
func (s *LookService) SetSharing(publicID string, actorID uint, isPublic, sharedWithFriends bool) (*models.Look, error) {
	look, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := domain.Authorize(actorID, look); err != nil {
		return nil, err
	}
	if look.CurationStatus == domain.CurationDiscarded {
		return nil, domain.ErrInvalidTransition
	}
	look.IsPublic = isPublic
	look.SharedWithFriends = sharedWithFriends
	if err := s.looks.UpdateFields(look.ID, map[string]interface{}{
		"is_public":           isPublic,
		"shared_with_friends": sharedWithFriends,
	}); err != nil {
		return nil, err
	}
	return look, nil
}

// Get returns a look visible to the actor (owner or public).
func (s *LookService) Get(publicID string, actorID uint) (*models.Look, error) {
	look, err := s.looks.GetByPublicID(publicID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if domain.Authorize(actorID, look) != nil && !look.IsPublic {
		return nil, domain.ErrUnauthorized
	}
	return look, nil
}

// ListMine returns the actor's looks, newest first.
func (s *LookService) ListMine(actorID uint, limit, offset int) ([]models.Look, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.looks.ListByCreator(actorID, limit, offset)
}
