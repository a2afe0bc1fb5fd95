package property

import (
	"fmt"
	"slices"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/google/uuid"
)

// Status is the listing lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusDraft    Status = "draft"
	StatusInactive Status = "inactive"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDraft, StatusInactive:
		return true
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid property status: %s", s))
	}
	return status, nil
}

var (
	ErrPropertyNotFound    = domain.NewCodedError(domain.KindNotFound, "PROPERTY_NOT_FOUND", "property not found")
	ErrNotPropertyOwner    = domain.NewCodedError(domain.KindForbidden, "NOT_PROPERTY_OWNER", "property does not belong to this host")
	ErrPropertyHasBookings = domain.NewCodedError(domain.KindConflict, "PROPERTY_HAS_BOOKINGS", "property has active bookings")
)

// NotFoundError returns ErrPropertyNotFound annotated with the id.
func NotFoundError(id int64) error {
	return ErrPropertyNotFound.WithDetail(fmt.Sprintf("id %d", id))
}

// Property is a listing owned by one host.
type Property struct {
	ID            int64
	HostID        uuid.UUID
	Title         string
	Description   string
	PropertyType  string
	Location      string
	Latitude      float64
	Longitude     float64
	PricePerNight int64
	Bedrooms      int
	Bathrooms     int
	MaxGuests     int
	Images        []string
	Amenities     []string
	Status        Status
	// Rating is the two-decimal mean of all review ratings; nil until the first review.
	Rating    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Details are the host-supplied fields of a new listing.
type Details struct {
	Title         string
	Description   string
	PropertyType  string
	Location      string
	Latitude      float64
	Longitude     float64
	PricePerNight int64
	Bedrooms      int
	Bathrooms     int
	MaxGuests     int
	Images        []string
	Amenities     []string
	Status        Status
}

// NewProperty validates d and builds a listing owned by hostID. An empty
// status defaults to active.
func NewProperty(hostID uuid.UUID, d Details) (*Property, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if d.Title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if err := validateNumbers(d.PricePerNight, d.Bedrooms, d.Bathrooms, d.MaxGuests); err != nil {
		return nil, err
	}
	if !d.Status.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid property status: %s", d.Status))
	}

	now := time.Now().UTC()
	return &Property{
		HostID:        hostID,
		Title:         d.Title,
		Description:   d.Description,
		PropertyType:  d.PropertyType,
		Location:      d.Location,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		PricePerNight: d.PricePerNight,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		MaxGuests:     d.MaxGuests,
		Images:        slices.Clone(d.Images),
		Amenities:     uniqueLabels(d.Amenities),
		Status:        d.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validateNumbers(price int64, counts ...int) error {
	if price <= 0 {
		return domain.NewValidationError("price per night must be positive")
	}
	for _, c := range counts {
		if c < 0 {
			return domain.NewValidationError("capacity fields cannot be negative")
		}
	}
	return nil
}

// uniqueLabels drops duplicate amenity labels, keeping first-seen order.
func uniqueLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Identity returns the property id.
func (p *Property) Identity() int64 { return p.ID }

// AssignIdentity sets the property id.
func (p *Property) AssignIdentity(id int64) { p.ID = id }

// Clone returns a deep copy, so stored records never alias caller memory.
func (p *Property) Clone() *Property {
	c := *p
	c.Images = slices.Clone(p.Images)
	c.Amenities = slices.Clone(p.Amenities)
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
	return &c
}

// IsOwnedBy checks if the property belongs to the given host.
func (p *Property) IsOwnedBy(hostID uuid.UUID) bool {
	return p.HostID == hostID
}

// IsActive returns true if the property appears in general listings.
func (p *Property) IsActive() bool {
	return p.Status == StatusActive
}
