package mocks

import (
	"context"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
)

// Geolocator is a mock implementation of ports.Geolocator.
// With Delay set it waits that long or until ctx is done.
type Geolocator struct {
	Point *entities.GeoPoint
	Delay time.Duration
	Err   error
}

// Locate returns the configured point after Delay.
func (m *Geolocator) Locate(ctx context.Context) (*entities.GeoPoint, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Point, nil
}
