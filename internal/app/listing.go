package app

import (
	"context"
	"fmt"
	"strings"

	"staycal/internal/domain"
)

// ListingService guards listing publication state. A listing must be
// complete to publish and cannot leave published while confirmed
// bookings reference it.
type ListingService struct {
	listings domain.ListingRepository
}

func NewListingService(l domain.ListingRepository) *ListingService {
	return &ListingService{listings: l}
}

// Publish moves a draft or pending-review listing to published.
func (s *ListingService) Publish(ctx context.Context, id int64) error {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return fmt.Errorf("publish listing %d: %w", id, err)
	}
	switch l.Status {
	case domain.ListingDraft, domain.ListingPendingReview:
	case domain.ListingPublished:
		return nil // already there
	default:
		return fmt.Errorf("publish listing %d: %w", id, domain.ErrInvalidTransition)
	}

	if err := s.canPublish(ctx, l); err != nil {
		return err
	}
	return s.listings.UpdateListingStatus(ctx, id, domain.ListingPublished)
}

// Unpublish moves a published listing to the target status, refusing
// while any confirmed booking references the listing.
func (s *ListingService) Unpublish(ctx context.Context, id int64, target domain.ListingStatus) error {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return fmt.Errorf("unpublish listing %d: %w", id, err)
	}
	if l.Status != domain.ListingPublished {
		return fmt.Errorf("unpublish listing %d: %w", id, domain.ErrInvalidTransition)
	}
	if target == domain.ListingPublished {
		return nil
	}

	n, err := s.listings.CountConfirmedForListing(ctx, id)
	if err != nil {
		return fmt.Errorf("unpublish listing %d: %w", id, err)
	}
	if n > 0 {
		return fmt.Errorf("unpublish listing %d: %w", id, domain.ErrActiveBookingsExist)
	}
	return s.listings.UpdateListingStatus(ctx, id, target)
}

// canPublish checks publish-readiness: title and address present, and at
// least one room type with a configured base price.
func (s *ListingService) canPublish(ctx context.Context, l domain.Listing) error {
	if strings.TrimSpace(l.Title) == "" || strings.TrimSpace(l.Address) == "" {
		return fmt.Errorf("listing %d: %w", l.ID, domain.ErrIncompleteListing)
	}
	rts, err := s.listings.ListRoomTypes(ctx, l.ID)
	if err != nil {
		return fmt.Errorf("listing %d room types: %w", l.ID, err)
	}
	for _, rt := range rts {
		if rt.BasePriceCents > 0 {
			return nil
		}
	}
	return fmt.Errorf("listing %d: %w", l.ID, domain.ErrIncompleteListing)
}
