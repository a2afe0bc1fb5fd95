package property

import (
	"context"

	"github.com/google/uuid"
)

// PropertyRepository defines persistence operations for listings.
type PropertyRepository interface {
	FindByID(ctx context.Context, id int64) (*Property, error)
	// FindByIDForUpdate also locks the property row until the unit of work ends.
	// Booking creation and rating recomputation serialize on this lock.
	FindByIDForUpdate(ctx context.Context, id int64) (*Property, error)
	FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*Property, error)
	FindAll(ctx context.Context) ([]*Property, error)
	Save(ctx context.Context, p *Property) error
	Update(ctx context.Context, p *Property) error
	// Delete removes the property and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
}
