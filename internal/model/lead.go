package model

import (
	"slices"
	"strings"
)

// Lead is one input record as loaded from the record store.
type Lead struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name,omitempty"`
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	Biography     string   `json:"biography,omitempty"`
	ExternalURL   string   `json:"external_url,omitempty"`
	BusinessEmail string   `json:"business_email,omitempty"`
	BusinessPhone string   `json:"business_phone,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	Address       string   `json:"address,omitempty"`
	ZipCode       string   `json:"zip_code,omitempty"`
	Hashtags      []string `json:"hashtags,omitempty"`
}

// EnrichedRecord accumulates the merged output for one lead. Fields that
// held a value on the input lead are locked and never overwritten.
type EnrichedRecord struct {
	LeadID       string `json:"lead_id"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Address      string `json:"address,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`

	AdditionalPhones []string `json:"additional_phones,omitempty"`
	AdditionalEmails []string `json:"additional_emails,omitempty"`

	// Sources maps each newly filled kind to the source that filled it.
	Sources map[Kind]Source `json:"sources,omitempty"`

	ConsentTags  []string `json:"consent_tags,omitempty"`
	ConsentScore int      `json:"consent_score"`

	locked map[Kind]bool
}

// NewEnrichedRecord seeds a record from a lead. Every non-empty lead field
// is copied over and locked.
func NewEnrichedRecord(l Lead) *EnrichedRecord {
	r := &EnrichedRecord{
		LeadID:  l.ID,
		Sources: make(map[Kind]Source),
		locked:  make(map[Kind]bool),
	}
	seed := map[Kind]string{
		KindPhone:        l.Phone,
		KindEmail:        l.Email,
		KindFullName:     l.FullName,
		KindFirstName:    l.FirstName,
		KindLastName:     l.LastName,
		KindCity:         l.City,
		KindState:        l.State,
		KindNeighborhood: l.Neighborhood,
		KindAddress:      l.Address,
		KindZipCode:      l.ZipCode,
	}
	for k, v := range seed {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		*r.slot(k) = v
		r.locked[k] = true
	}
	return r
}

func (r *EnrichedRecord) slot(k Kind) *string {
	switch k {
	case KindPhone:
		return &r.Phone
	case KindEmail:
		return &r.Email
	case KindFullName:
		return &r.FullName
	case KindFirstName:
		return &r.FirstName
	case KindLastName:
		return &r.LastName
	case KindCity:
		return &r.City
	case KindState:
		return &r.State
	case KindNeighborhood:
		return &r.Neighborhood
	case KindAddress:
		return &r.Address
	case KindZipCode:
		return &r.ZipCode
	}
	panic("model: unknown kind " + string(k))
}

// Get returns the current value of a kind.
func (r *EnrichedRecord) Get(k Kind) string {
	return *r.slot(k)
}

// Has reports whether a kind currently holds a value.
func (r *EnrichedRecord) Has(k Kind) bool {
	return r.Get(k) != ""
}

// Locked reports whether a kind was pre-filled from the input lead.
func (r *EnrichedRecord) Locked(k Kind) bool {
	return r.locked[k]
}

// Fill sets an empty, unlocked kind and records its source. It returns
// false, leaving the record untouched, when the slot is locked or taken.
func (r *EnrichedRecord) Fill(k Kind, value string, src Source) bool {
	value = strings.TrimSpace(value)
	if value == "" || r.locked[k] || r.Has(k) {
		return false
	}
	*r.slot(k) = value
	r.Sources[k] = src
	return true
}

// Clear empties a kind that was filled during this enrichment. Locked
// kinds are left alone.
func (r *EnrichedRecord) Clear(k Kind) {
	if r.locked[k] {
		return
	}
	*r.slot(k) = ""
	delete(r.Sources, k)
}

// AddPhone records an extra phone number. The primary value and
// duplicates are ignored.
func (r *EnrichedRecord) AddPhone(p string) {
	r.AdditionalPhones = addToSet(r.AdditionalPhones, p, r.Phone)
}

// AddEmail records an extra email address. The primary value and
// duplicates are ignored.
func (r *EnrichedRecord) AddEmail(e string) {
	r.AdditionalEmails = addToSet(r.AdditionalEmails, e, r.Email)
}

func addToSet(set []string, v, primary string) []string {
	v = strings.TrimSpace(v)
	if v == "" || v == primary {
		return set
	}
	i, found := slices.BinarySearch(set, v)
	if found {
		return set
	}
	return slices.Insert(set, i, v)
}

// Filled returns the kinds filled during this enrichment, in AllKinds order.
func (r *EnrichedRecord) Filled() []Kind {
	var out []Kind
	for _, k := range AllKinds() {
		if _, ok := r.Sources[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// WebPage is the fetched content of an associated website.
type WebPage struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
	HTML       string `json:"-"`
	StatusCode int    `json:"status_code"`
	Tokens     int    `json:"tokens,omitempty"`
	// Fetcher names the scraper that produced the page.
	Fetcher string `json:"fetcher"`
}

// Content returns the text and raw HTML joined for pattern scanning, so
// mailto:, tel: and deep links in attributes are visible to the scanners.
func (p *WebPage) Content() string {
	if p == nil {
		return ""
	}
	if p.HTML == "" {
		return p.Text
	}
	return p.Text + "\n" + p.HTML
}
