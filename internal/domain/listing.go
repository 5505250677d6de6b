package domain

type ListingStatus string

const (
	ListingDraft         ListingStatus = "draft"
	ListingPublished     ListingStatus = "published"
	ListingPendingReview ListingStatus = "pending_review"
	ListingArchived      ListingStatus = "archived"
)

type Listing struct {
	ID      int64
	Title   string
	Address string
	Status  ListingStatus
}
