// internal/app/store/subsectors/subsectorstore.go
package subsectorstore

import (
	"context"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

type Store struct {
	c *apiclient.Client
}

func New(c *apiclient.Client) *Store {
	return &Store{c: c}
}

// List returns subsectors with their sector populated, limited to one sector
// when sectorID is non-zero.
func (s *Store) List(ctx context.Context, sectorID int) ([]models.Subsector, error) {
	q := apiclient.Query{
		Populate: apiclient.Populate{Nested: []apiclient.Nested{{Field: "sector", All: true}}},
		Sort:     []string{"name:asc"},
	}
	if sectorID != 0 {
		if err := apiclient.ValidateID(sectorID); err != nil {
			return nil, err
		}
		q.Filters = []apiclient.Filter{apiclient.Eq(sectorID, "sector", "id")}
	}
	l, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:  "/subsectors",
		Query: q,
	}, models.DecodeList(models.DecodeSubsector))
	if err != nil {
		return nil, err
	}
	return l.Data, nil
}
