package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyModel is the GORM model for the properties table.
type PropertyModel struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	HostID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title         string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	PropertyType  string          `gorm:"type:varchar(50);index"`
	Location      string          `gorm:"type:varchar(255)"`
	Latitude      float64         `gorm:"type:double precision"`
	Longitude     float64         `gorm:"type:double precision"`
	PricePerNight int64           `gorm:"not null"`
	Bedrooms      int             `gorm:"not null;default:0"`
	Bathrooms     int             `gorm:"not null;default:0"`
	MaxGuests     int             `gorm:"not null;default:0"`
	Images        json.RawMessage `gorm:"type:jsonb;not null"`
	Amenities     json.RawMessage `gorm:"type:jsonb;not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active';index"`
	Rating        *string         `gorm:"type:varchar(10)"`
	CreatedAt     time.Time       `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"type:timestamptz;not null;default:now()"`
}

func (PropertyModel) TableName() string { return "properties" }

// GormPropertyRepository implements PropertyRepository using GORM.
type GormPropertyRepository struct {
	db *gorm.DB
}

func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

func (r *GormPropertyRepository) FindByID(ctx context.Context, id int64) (*propertyDomain.Property, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

func (r *GormPropertyRepository) FindByIDForUpdate(ctx context.Context, id int64) (*propertyDomain.Property, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPropertyRepository) findOne(db *gorm.DB, id int64) (*propertyDomain.Property, error) {
	var model PropertyModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, propertyDomain.NotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find property by ID: %w", err)
	}
	return toPropertyDomain(&model)
}

func (r *GormPropertyRepository) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*propertyDomain.Property, error) {
	var models []PropertyModel
	if err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find host properties: %w", err)
	}
	return toPropertyDomains(models)
}

func (r *GormPropertyRepository) FindAll(ctx context.Context) ([]*propertyDomain.Property, error) {
	var models []PropertyModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return toPropertyDomains(models)
}

func (r *GormPropertyRepository) Save(ctx context.Context, p *propertyDomain.Property) error {
	model, err := toPropertyModel(p)
	if err != nil {
		return err
	}
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	p.ID = model.ID
	return nil
}

func (r *GormPropertyRepository) Update(ctx context.Context, p *propertyDomain.Property) error {
	model, err := toPropertyModel(p)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&PropertyModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"title":           model.Title,
			"description":     model.Description,
			"property_type":   model.PropertyType,
			"location":        model.Location,
			"latitude":        model.Latitude,
			"longitude":       model.Longitude,
			"price_per_night": model.PricePerNight,
			"bedrooms":        model.Bedrooms,
			"bathrooms":       model.Bathrooms,
			"max_guests":      model.MaxGuests,
			"images":          model.Images,
			"amenities":       model.Amenities,
			"status":          model.Status,
			"rating":          model.Rating,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return propertyDomain.NotFoundError(p.ID)
	}
	return nil
}

func (r *GormPropertyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&PropertyModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete property: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func toPropertyModel(p *propertyDomain.Property) (*PropertyModel, error) {
	images, err := marshalLabels(p.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	amenities, err := marshalLabels(p.Amenities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal amenities: %w", err)
	}

	return &PropertyModel{
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
	}, nil
}

func toPropertyDomain(m *PropertyModel) (*propertyDomain.Property, error) {
	var images, amenities []string
	if err := unmarshalLabels(m.Images, &images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if err := unmarshalLabels(m.Amenities, &amenities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal amenities: %w", err)
	}

	status, err := propertyDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return &propertyDomain.Property{
		ID:            m.ID,
		HostID:        m.HostID,
		Title:         m.Title,
		Description:   m.Description,
		PropertyType:  m.PropertyType,
		Location:      m.Location,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		PricePerNight: m.PricePerNight,
		Bedrooms:      m.Bedrooms,
		Bathrooms:     m.Bathrooms,
		MaxGuests:     m.MaxGuests,
		Images:        images,
		Amenities:     amenities,
		Status:        status,
		Rating:        m.Rating,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func toPropertyDomains(models []PropertyModel) ([]*propertyDomain.Property, error) {
	out := make([]*propertyDomain.Property, len(models))
	for i := range models {
		p, err := toPropertyDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// marshalLabels encodes a nil slice as [] so the NOT NULL jsonb column is satisfied.
func marshalLabels(labels []string) (json.RawMessage, error) {
	if labels == nil {
		labels = []string{}
	}
	return json.Marshal(labels)
}

func unmarshalLabels(raw json.RawMessage, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}
