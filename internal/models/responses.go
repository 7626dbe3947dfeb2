package models

// AcceptOfferResult carries the outcome of an offer acceptance: the winning
// offer, the listing marked sold, and how many sibling offers were rejected.
type AcceptOfferResult struct {
	Offer          *Offer    `json:"offer"`
	Property       *Property `json:"property"`
	RejectedOffers int64     `json:"rejected_offers"`
}

// CancelOfferResult carries the outcome of an offer cancellation.
type CancelOfferResult struct {
	Offer    *Offer    `json:"offer"`
	Property *Property `json:"property"`
}
