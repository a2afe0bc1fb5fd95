package property

import (
	"fmt"
	"slices"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
)

// Patch is a shallow partial update. Nil fields keep their prior value.
type Patch struct {
	Title         *string
	Description   *string
	PropertyType  *string
	Location      *string
	Latitude      *float64
	Longitude     *float64
	PricePerNight *int64
	Bedrooms      *int
	Bathrooms     *int
	MaxGuests     *int
	Images        *[]string
	Amenities     *[]string
	Status        *Status
	// Rating is only written by the review aggregator.
	Rating *string
}

// Validate checks the fields the patch sets.
func (p Patch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return domain.NewValidationError("title cannot be empty")
	}
	if p.PricePerNight != nil && *p.PricePerNight <= 0 {
		return domain.NewValidationError("price per night must be positive")
	}
	for _, c := range []*int{p.Bedrooms, p.Bathrooms, p.MaxGuests} {
		if c != nil && *c < 0 {
			return domain.NewValidationError("capacity fields cannot be negative")
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid property status: %s", *p.Status))
	}
	return nil
}

// Apply merges the patch into prop. The id, host and creation time never change.
func (p Patch) Apply(prop *Property) {
	setIf(&prop.Title, p.Title)
	setIf(&prop.Description, p.Description)
	setIf(&prop.PropertyType, p.PropertyType)
	setIf(&prop.Location, p.Location)
	setIf(&prop.Latitude, p.Latitude)
	setIf(&prop.Longitude, p.Longitude)
	setIf(&prop.PricePerNight, p.PricePerNight)
	setIf(&prop.Bedrooms, p.Bedrooms)
	setIf(&prop.Bathrooms, p.Bathrooms)
	setIf(&prop.MaxGuests, p.MaxGuests)
	setIf(&prop.Status, p.Status)
	if p.Images != nil {
		prop.Images = slices.Clone(*p.Images)
	}
	if p.Amenities != nil {
		prop.Amenities = uniqueLabels(*p.Amenities)
	}
	if p.Rating != nil {
		r := *p.Rating
		prop.Rating = &r
	}
	prop.UpdatedAt = time.Now().UTC()
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
