package application

import (
	"context"
	"time"

	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/domain/uow"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePropertyRequest is the request DTO for listing a property.
type CreatePropertyRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	PropertyType  string   `json:"property_type"`
	Location      string   `json:"location"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	PricePerNight int64    `json:"price_per_night" binding:"required"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	MaxGuests     int      `json:"max_guests"`
	Images        []string `json:"images"`
	Amenities     []string `json:"amenities"`
	Status        string   `json:"status"`
}

// UpdatePropertyRequest is a partial update; omitted fields keep their value.
type UpdatePropertyRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	PropertyType  *string   `json:"property_type"`
	Location      *string   `json:"location"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	PricePerNight *int64    `json:"price_per_night"`
	Bedrooms      *int      `json:"bedrooms"`
	Bathrooms     *int      `json:"bathrooms"`
	MaxGuests     *int      `json:"max_guests"`
	Images        *[]string `json:"images"`
	Amenities     *[]string `json:"amenities"`
	Status        *string   `json:"status"`
}

// PropertyFilter carries the listing query. Zero values are no constraint.
type PropertyFilter struct {
	PropertyType  string `form:"property_type"`
	Location      string `form:"location"`
	MaxGuests     int    `form:"max_guests"`
	PricePerNight int64  `form:"price_per_night"`
}

// PropertyDTO is the API response representation of a property.
type PropertyDTO struct {
	ID            int64     `json:"id"`
	HostID        uuid.UUID `json:"host_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	PropertyType  string    `json:"property_type"`
	Location      string    `json:"location"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PricePerNight int64     `json:"price_per_night"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	MaxGuests     int       `json:"max_guests"`
	Images        []string  `json:"images"`
	Amenities     []string  `json:"amenities"`
	Status        string    `json:"status"`
	Rating        *string   `json:"rating,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PropertyService implements use cases for the property catalog.
type PropertyService struct {
	tx                      uow.Transactor
	blockDeleteWithBookings bool
	events                  eventPublisher
	logger                  *zap.Logger
}

// NewPropertyService creates a new PropertyService. When
// blockDeleteWithBookings is set, a property with pending or confirmed
// bookings cannot be deleted.
func NewPropertyService(
	tx uow.Transactor,
	blockDeleteWithBookings bool,
	producer kafka.Publisher,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		tx:                      tx,
		blockDeleteWithBookings: blockDeleteWithBookings,
		events:                  eventPublisher{producer: producer, logger: logger},
		logger:                  logger,
	}
}

// CreateProperty lists a new property owned by hostID.
func (s *PropertyService) CreateProperty(ctx context.Context, hostID uuid.UUID, req CreatePropertyRequest) (*PropertyDTO, error) {
	prop, err := propertyDomain.NewProperty(hostID, propertyDomain.Details{
		Title:         req.Title,
		Description:   req.Description,
		PropertyType:  req.PropertyType,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PricePerNight: req.PricePerNight,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		MaxGuests:     req.MaxGuests,
		Images:        req.Images,
		Amenities:     req.Amenities,
		Status:        propertyDomain.Status(req.Status),
	})
	if err != nil {
		return nil, err
	}

	if err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Properties().Save(ctx, prop)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("property created",
		zap.Int64("property_id", prop.ID),
		zap.String("host_id", hostID.String()),
	)
	s.events.publishEvent(ctx, events.TopicPropertyEvents, events.PropertyCreated, propertySubject(prop.ID), events.PropertyCreatedEvent{
		PropertyID:    prop.ID,
		HostID:        prop.HostID,
		PropertyType:  prop.PropertyType,
		Location:      prop.Location,
		PricePerNight: prop.PricePerNight,
		Status:        string(prop.Status),
		OccurredAt:    time.Now().UTC(),
	})

	result := toPropertyDTO(prop)
	return &result, nil
}

// GetProperty returns a single property.
func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*PropertyDTO, error) {
	var prop *propertyDomain.Property
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		prop, err = repos.Properties().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := toPropertyDTO(prop)
	return &result, nil
}

// ListHostProperties returns every property of a host, drafts included.
func (s *PropertyService) ListHostProperties(ctx context.Context, hostID uuid.UUID) ([]PropertyDTO, error) {
	var props []*propertyDomain.Property
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		props, err = repos.Properties().FindByHostID(ctx, hostID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toPropertyDTOs(props), nil
}

// ListProperties returns the active properties matching filter.
func (s *PropertyService) ListProperties(ctx context.Context, filter PropertyFilter) ([]PropertyDTO, error) {
	criteria := propertyDomain.Criteria{
		PropertyType:  filter.PropertyType,
		Location:      filter.Location,
		MaxGuests:     filter.MaxGuests,
		PricePerNight: filter.PricePerNight,
	}

	var all []*propertyDomain.Property
	err := s.tx.Read(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		all, err = repos.Properties().FindAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	matched := make([]*propertyDomain.Property, 0, len(all))
	for _, p := range all {
		if criteria.Matches(p) && p.IsActive() {
			matched = append(matched, p)
		}
	}
	return toPropertyDTOs(matched), nil
}

// UpdateProperty applies a partial update on behalf of the owning host.
func (s *PropertyService) UpdateProperty(ctx context.Context, hostID uuid.UUID, id int64, req UpdatePropertyRequest) (*PropertyDTO, error) {
	patch := propertyDomain.Patch{
		Title:         req.Title,
		Description:   req.Description,
		PropertyType:  req.PropertyType,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PricePerNight: req.PricePerNight,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		MaxGuests:     req.MaxGuests,
		Images:        req.Images,
		Amenities:     req.Amenities,
	}
	if req.Status != nil {
		status, err := propertyDomain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var prop *propertyDomain.Property
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		prop, err = repos.Properties().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !prop.IsOwnedBy(hostID) {
			return propertyDomain.ErrNotPropertyOwner
		}
		return applyPropertyPatch(ctx, repos, prop, patch)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("property updated", zap.Int64("property_id", id))
	result := toPropertyDTO(prop)
	return &result, nil
}

// DeleteProperty removes a property owned by hostID. It reports false when
// the property does not exist. Bookings, payments and reviews that reference
// it are left in place.
func (s *PropertyService) DeleteProperty(ctx context.Context, hostID uuid.UUID, id int64) (bool, error) {
	deleted := false
	err := s.tx.Write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		prop, err := repos.Properties().FindByIDForUpdate(ctx, id)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil
			}
			return err
		}
		if !prop.IsOwnedBy(hostID) {
			return propertyDomain.ErrNotPropertyOwner
		}

		if s.blockDeleteWithBookings {
			bookings, err := repos.Bookings().FindByPropertyID(ctx, id)
			if err != nil {
				return err
			}
			for _, b := range bookings {
				if b.Status.IsActive() {
					return propertyDomain.ErrPropertyHasBookings
				}
			}
		}

		deleted, err = repos.Properties().Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Info("property deleted", zap.Int64("property_id", id))
		s.events.publishEvent(ctx, events.TopicPropertyEvents, events.PropertyDeleted, propertySubject(id), events.PropertyDeletedEvent{
			PropertyID: id,
			HostID:     hostID,
			OccurredAt: time.Now().UTC(),
		})
	}
	return deleted, nil
}

// applyPropertyPatch is the catalog's update path: it merges patch into prop
// and persists it within the caller's unit of work.
func applyPropertyPatch(ctx context.Context, repos uow.Repositories, prop *propertyDomain.Property, patch propertyDomain.Patch) error {
	patch.Apply(prop)
	return repos.Properties().Update(ctx, prop)
}

func toPropertyDTO(p *propertyDomain.Property) PropertyDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return PropertyDTO{
		ID:            p.ID,
		HostID:        p.HostID,
		Title:         p.Title,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		Location:      p.Location,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		PricePerNight: p.PricePerNight,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		MaxGuests:     p.MaxGuests,
		Images:        images,
		Amenities:     amenities,
		Status:        string(p.Status),
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPropertyDTOs(props []*propertyDomain.Property) []PropertyDTO {
	dtos := make([]PropertyDTO, len(props))
	for i, p := range props {
		dtos[i] = toPropertyDTO(p)
	}
	return dtos
}
