package ports

import (
	"context"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Geolocator resolves the signer's position. Implementations must honour ctx cancellation.
type Geolocator interface {
	Locate(ctx context.Context) (*entities.GeoPoint, error)
}
