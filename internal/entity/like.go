package entity

import "time"

// Like records that UserEmail liked the listing ListingID. There is at most
// one Like per pair.
type Like struct {
	ListingID string
	UserEmail string
	CreatedAt time.Time
}

// LikeOutcome is the result of a tracked like. AlreadyLiked is set when the
// pair was recorded before and nothing was written; Result is only set when
// the counter was incremented.
type LikeOutcome struct {
	Liked        bool
	AlreadyLiked bool
	Likes        int64
	Result       *UpdateResult
}
