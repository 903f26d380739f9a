// internal/app/store/sectors/sectorstore.go
package sectorstore

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

// List returns every sector.
func (s *Store) List(ctx context.Context) ([]models.Sector, error) {
	l, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path:  "/sectors",
		Query: apiclient.Query{Sort: []string{"name:asc"}},
	}, models.DecodeList(models.DecodeSector))
	if err != nil {
		return nil, err
	}
	return l.Data, nil
}

// Get returns sector id.
func (s *Store) Get(ctx context.Context, id int) (models.Sector, error) {
	path, err := apiclient.PathOf("sectors", id)
	if err != nil {
		return models.Sector{}, err
	}
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{Path: path}, models.DecodeSingle(models.DecodeSector))
	if err != nil {
		return models.Sector{}, err
	}
	return res.Data, nil
}
