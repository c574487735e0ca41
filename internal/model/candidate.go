// Package model defines the records that flow through lead enrichment.
package model

// Kind identifies which lead field a candidate value is for.
type Kind string

const (
	KindPhone        Kind = "phone"
	KindEmail        Kind = "email"
	KindFullName     Kind = "full_name"
	KindFirstName    Kind = "first_name"
	KindLastName     Kind = "last_name"
	KindCity         Kind = "city"
	KindState        Kind = "state"
	KindNeighborhood Kind = "neighborhood"
	KindAddress      Kind = "address"
	KindZipCode      Kind = "zip_code"
)

// AllKinds returns every enrichable kind in display order.
func AllKinds() []Kind {
	return []Kind{
		KindPhone,
		KindEmail,
		KindFullName,
		KindFirstName,
		KindLastName,
		KindCity,
		KindState,
		KindNeighborhood,
		KindAddress,
		KindZipCode,
	}
}

// Source tags where a candidate came from. Sources are ordered: a lower
// Rank means a higher priority.
type Source string

const (
	SourceStructuredField   Source = "structured_field"
	SourceBioAI             Source = "bio_ai"
	SourceBioRegex          Source = "bio_regex"
	SourceHandle            Source = "handle"
	SourceWebsiteScrape     Source = "website_scrape"
	SourceMessagingDeepLink Source = "messaging_deep_link"
	SourceHashtagLookup     Source = "hashtag_lookup"
)

var sourceRank = map[Source]int{
	SourceStructuredField:   0,
	SourceBioAI:             1,
	SourceBioRegex:          2,
	SourceHandle:            3,
	SourceWebsiteScrape:     4,
	SourceMessagingDeepLink: 5,
	SourceHashtagLookup:     6,
}

// Rank returns the priority position of s. Unknown sources sort last.
func (s Source) Rank() int {
	if r, ok := sourceRank[s]; ok {
		return r
	}
	return len(sourceRank)
}

// Candidate is a tentative, not yet validated value for one field.
type Candidate struct {
	Kind   Kind   `json:"kind"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}
