package application

import (
	"context"
	"testing"

	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	host := uuid.New()

	p := env.createProperty(t, host, CreatePropertyRequest{
		Title:     "Hill Cabin",
		Location:  "Manali",
		MaxGuests: 4,
		Amenities: []string{"wifi", "wifi", "heater"},
	})
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "active", p.Status)
	assert.Nil(t, p.Rating)
	assert.Equal(t, []string{"wifi", "heater"}, p.Amenities)
	assert.Equal(t, []string{}, p.Images)

	got, err := env.props.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)

	_, err = env.props.GetProperty(ctx, 99)
	assert.ErrorIs(t, err, propertyDomain.ErrPropertyNotFound)

	assert.Equal(t, []string{events.PropertyCreated}, env.publisher.types())
}

func TestPropertyService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.props.CreateProperty(ctx, uuid.New(), CreatePropertyRequest{Title: "Flat", PricePerNight: 0})
	assert.Error(t, err)

	_, err = env.props.CreateProperty(ctx, uuid.New(), CreatePropertyRequest{Title: "Flat", PricePerNight: 10, Status: "archived"})
	assert.Error(t, err)
}

func TestPropertyService_ListFiltered(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	host := uuid.New()

	big := env.createProperty(t, host, CreatePropertyRequest{Title: "Big", PropertyType: "villa", Location: "North Goa", MaxGuests: 8, PricePerNight: 9000})
	small := env.createProperty(t, host, CreatePropertyRequest{Title: "Small", PropertyType: "apartment", Location: "Pune", MaxGuests: 2, PricePerNight: 2000})
	exact := env.createProperty(t, host, CreatePropertyRequest{Title: "Six", PropertyType: "villa", Location: "goa", MaxGuests: 6, PricePerNight: 6000})
	env.createProperty(t, host, CreatePropertyRequest{Title: "Draft", PropertyType: "villa", Location: "Goa", MaxGuests: 10, Status: "draft"})
	env.createProperty(t, host, CreatePropertyRequest{Title: "Off", PropertyType: "villa", Location: "Goa", MaxGuests: 10, Status: "inactive"})

	ids := func(list []PropertyDTO) []int64 {
		out := make([]int64, len(list))
		for i, p := range list {
			out[i] = p.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter PropertyFilter
		want   []int64
	}{
		{"empty filter returns all active", PropertyFilter{}, []int64{big.ID, small.ID, exact.ID}},
		{"capacity at least", PropertyFilter{MaxGuests: 6}, []int64{big.ID, exact.ID}},
		{"type exact", PropertyFilter{PropertyType: "apartment"}, []int64{small.ID}},
		{"location case-insensitive substring", PropertyFilter{Location: "GOA"}, []int64{big.ID, exact.ID}},
		{"price ceiling", PropertyFilter{PricePerNight: 6000}, []int64{small.ID, exact.ID}},
		{"combined", PropertyFilter{PropertyType: "villa", MaxGuests: 7, PricePerNight: 10000}, []int64{big.ID}},
		{"no match", PropertyFilter{PropertyType: "castle"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.props.ListProperties(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestPropertyService_ListHostIncludesDrafts(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	host, other := uuid.New(), uuid.New()

	env.createProperty(t, host, CreatePropertyRequest{Title: "Live"})
	env.createProperty(t, host, CreatePropertyRequest{Title: "Draft", Status: "draft"})
	env.createProperty(t, other, CreatePropertyRequest{Title: "Theirs"})

	mine, err := env.props.ListHostProperties(ctx, host)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "draft", mine[1].Status)
}

func TestPropertyService_UpdateOwnerOnly(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	host := uuid.New()
	p := env.createProperty(t, host, CreatePropertyRequest{Title: "Old", Location: "Goa", MaxGuests: 3})

	_, err := env.props.UpdateProperty(ctx, uuid.New(), p.ID, UpdatePropertyRequest{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, propertyDomain.ErrNotPropertyOwner)

	updated, err := env.props.UpdateProperty(ctx, host, p.ID, UpdatePropertyRequest{
		Title:     strPtr("New"),
		MaxGuests: intPtr(5),
		Status:    strPtr("inactive"),
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Goa", updated.Location, "omitted fields keep their value")
	assert.Equal(t, 5, updated.MaxGuests)
	assert.Equal(t, "inactive", updated.Status)

	_, err = env.props.UpdateProperty(ctx, host, 42, UpdatePropertyRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, propertyDomain.ErrPropertyNotFound)

	_, err = env.props.UpdateProperty(ctx, host, p.ID, UpdatePropertyRequest{Status: strPtr("gone")})
	assert.Error(t, err)
}

func TestPropertyService_DeleteOrphansByDefault(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	host, guest := uuid.New(), uuid.New()
	p := env.createProperty(t, host, CreatePropertyRequest{})
	b := env.book(t, guest, p.ID, "2024-06-10", "2024-06-15")

	_, err := env.props.DeleteProperty(ctx, uuid.New(), p.ID)
	assert.ErrorIs(t, err, propertyDomain.ErrNotPropertyOwner)

	deleted, err := env.props.DeleteProperty(ctx, host, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = env.props.DeleteProperty(ctx, host, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	orphan, err := env.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, orphan.PropertyID)

	next := env.createProperty(t, host, CreatePropertyRequest{})
	assert.Equal(t, p.ID+1, next.ID, "ids are not reused after delete")
}

func TestPropertyService_DeleteBlockedWithActiveBookings(t *testing.T) {
	env := newTestEnv(t, envOptions{blockDeleteWithBookings: true})
	ctx := context.Background()
	host, guest := uuid.New(), uuid.New()
	p := env.createProperty(t, host, CreatePropertyRequest{})
	b := env.book(t, guest, p.ID, "2024-06-10", "2024-06-15")

	_, err := env.props.DeleteProperty(ctx, host, p.ID)
	assert.ErrorIs(t, err, propertyDomain.ErrPropertyHasBookings)

	_, err = env.bookings.CancelBooking(ctx, guest, b.ID)
	require.NoError(t, err)

	deleted, err := env.props.DeleteProperty(ctx, host, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
