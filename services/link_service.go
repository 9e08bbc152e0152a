// Package services contains the business logic between the HTTP handlers
// and the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shortlink/apperrors"
	"shortlink/clientinfo"
	"shortlink/models"
	"shortlink/repository"
)

// IDGenerator produces candidate short ids. Satisfied by *shortid.Generator.
type IDGenerator interface {
	Generate() (string, error)
}

// LinkUpdate describes a partial edit of a link. Nil pointer fields are left
// unchanged. ClearExpiresAt distinguishes "remove the expiration" from
// "leave it alone"; it wins over ExpiresAt when both are set.
type LinkUpdate struct {
	RedirectURL    *string
	Remark         *string
	ExpiresAt      *time.Time
	ClearExpiresAt bool
}

// LinkStats bundles a link with its full click log and the per-device and
// per-OS breakdowns the dashboard charts are built from.
type LinkStats struct {
	Link         *models.Link   `json:"link"`
	Clicks       []models.Click `json:"clicks"`
	TotalClicks  int            `json:"total_clicks"`
	DeviceCounts map[string]int `json:"device_counts"`
	OSCounts     map[string]int `json:"os_counts"`
}

// LinkService owns the link lifecycle: creation with collision retry,
// partial updates, deletion, listing and search, plus the redirect-side
// resolution policy and click recording.
type LinkService struct {
	links       repository.LinkRepository
	users       repository.UserRepository
	gen         IDGenerator
	maxAttempts int
}

func NewLinkService(links repository.LinkRepository, users repository.UserRepository, gen IDGenerator, maxAttempts int) *LinkService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &LinkService{links: links, users: users, gen: gen, maxAttempts: maxAttempts}
}

// Create persists a new link for the owner. Destination and remark are
// required; expiry is optional. Short ids are generated optimistically and
// regenerated on duplicate-key up to maxAttempts.
func (s *LinkService) Create(ctx context.Context, ownerID uint, redirectURL, remark string, expiresAt *time.Time) (*models.Link, error) {
	if strings.TrimSpace(redirectURL) == "" {
		return nil, apperrors.Validationf("redirect URL is required")
	}
	if strings.TrimSpace(remark) == "" {
		return nil, apperrors.Validationf("remark is required")
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		shortID, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		link := &models.Link{
			UserID:      ownerID,
			ShortID:     shortID,
			RedirectURL: redirectURL,
			Remark:      remark,
			ExpiresAt:   expiresAt,
		}
		err = s.links.Insert(ctx, link)
		if err == nil {
			return link, nil
		}
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			log.Printf("short id %q already taken, regenerating (%d/%d)", shortID, attempt, s.maxAttempts)
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: could not allocate a unique short id after %d attempts",
		apperrors.ErrStoreUnavailable, s.maxAttempts)
}

// Update applies a partial edit to a link owned by ownerID. Short id, owner,
// creation time and the click log are never touched. Returns the updated
// record, or ErrNotFound when the link does not exist or belongs to someone
// else.
func (s *LinkService) Update(ctx context.Context, ownerID, linkID uint, upd LinkUpdate) (*models.Link, error) {
	fields := map[string]any{}
	if upd.RedirectURL != nil {
		if strings.TrimSpace(*upd.RedirectURL) == "" {
			return nil, apperrors.Validationf("redirect URL cannot be blank")
		}
		fields["redirect_url"] = *upd.RedirectURL
	}
	if upd.Remark != nil {
		if strings.TrimSpace(*upd.Remark) == "" {
			return nil, apperrors.Validationf("remark cannot be blank")
		}
		fields["remark"] = *upd.Remark
	}
	switch {
	case upd.ClearExpiresAt:
		fields["expires_at"] = nil
	case upd.ExpiresAt != nil:
		fields["expires_at"] = *upd.ExpiresAt
	}

	// Combined existence and ownership check; non-owners get the same
	// ErrNotFound as a missing record.
	if _, err := s.links.FindByIDAndOwner(ctx, linkID, ownerID); err != nil {
		return nil, err
	}
	if err := s.links.UpdateFields(ctx, linkID, ownerID, fields); err != nil {
		return nil, err
	}
	return s.links.FindByIDAndOwner(ctx, linkID, ownerID)
}

// Delete removes the link permanently, clicks included.
func (s *LinkService) Delete(ctx context.Context, ownerID, linkID uint) error {
	return s.links.DeleteByIDAndOwner(ctx, linkID, ownerID)
}

// Get returns a single link owned by ownerID.
func (s *LinkService) Get(ctx context.Context, ownerID, linkID uint) (*models.Link, error) {
	return s.links.FindByIDAndOwner(ctx, linkID, ownerID)
}

// List returns every link owned by ownerID, newest first. An empty slice is
// a valid result, not an error.
func (s *LinkService) List(ctx context.Context, ownerID uint) ([]models.Link, error) {
	return s.links.FindByOwner(ctx, ownerID)
}

// Search filters the owner's links by case-insensitive substring match on
// the remark.
func (s *LinkService) Search(ctx context.Context, ownerID uint, query string) ([]models.Link, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validationf("search query is required")
	}
	return s.links.SearchByOwnerAndRemark(ctx, ownerID, query)
}

// Resolve decides whether a redirect attempt is honored. Absent short id is
// ErrNotFound; a link whose expiration has passed is ErrLinkExpired and
// accumulates no further clicks; otherwise the link is active.
func (s *LinkService) Resolve(ctx context.Context, shortID string) (*models.Link, error) {
	link, err := s.links.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}
	if link.Expired(time.Now()) {
		return nil, apperrors.ErrLinkExpired
	}
	return link, nil
}

// RecordClick appends one click event with the server timestamp and the
// resolved client context, and returns the updated record. ErrNotFound is a
// soft failure here: the caller has already resolved the destination and the
// redirect stands, only the click is lost.
func (s *LinkService) RecordClick(ctx context.Context, shortID string, client clientinfo.Context) (*models.Link, error) {
	click := &models.Click{
		Timestamp: time.Now(),
		IPAddress: orUnknown(client.IPAddress),
		Device:    orUnknown(client.Device),
		OS:        orUnknown(client.OS),
	}
	return s.links.AppendClick(ctx, shortID, click)
}

// Stats returns the click log and device/OS breakdowns for a link owned by
// ownerID.
func (s *LinkService) Stats(ctx context.Context, ownerID, linkID uint) (*LinkStats, error) {
	link, err := s.links.FindByIDAndOwner(ctx, linkID, ownerID)
	if err != nil {
		return nil, err
	}
	clicks, err := s.links.ClicksByLinkID(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	stats := &LinkStats{
		Link:         link,
		Clicks:       clicks,
		TotalClicks:  len(clicks),
		DeviceCounts: map[string]int{},
		OSCounts:     map[string]int{},
	}
	for _, c := range clicks {
		stats.DeviceCounts[c.Device]++
		stats.OSCounts[c.OS]++
	}
	return stats, nil
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return clientinfo.Unknown
	}
	return v
}
