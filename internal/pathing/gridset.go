package pathing

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-pathing/internal/world"
)

// GridSet держит по одной сетке на каждый способ передвижения и рассылает
// им уведомления об изменениях мира.
type GridSet struct {
	grids map[Modality]*Grid
	order []Modality
}

// NewGridSet создаёт сетки для перечисленных способов передвижения
// (по умолчанию для всех)
func NewGridSet(oracle world.ShapeOracle, modalities []Modality, opts ...GridOption) *GridSet {
	if len(modalities) == 0 {
		modalities = Modalities
	}
	s := &GridSet{grids: make(map[Modality]*Grid, len(modalities))}
	for _, m := range modalities {
		if _, exists := s.grids[m]; exists {
			continue
		}
		s.grids[m] = NewGrid(oracle, m, opts...)
		s.order = append(s.order, m)
	}
	return s
}

// Grid возвращает сетку способа передвижения
func (s *GridSet) Grid(m Modality) (*Grid, error) {
	g, ok := s.grids[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModality, m)
	}
	return g, nil
}

// Modalities возвращает способы передвижения набора
func (s *GridSet) Modalities() []Modality {
	return append([]Modality(nil), s.order...)
}

// Build строит все сетки
func (s *GridSet) Build(ctx context.Context) error {
	for _, m := range s.order {
		if err := s.grids[m].Build(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DirtyCoordinates передаёт изменившиеся ячейки всем сеткам
func (s *GridSet) DirtyCoordinates(coords ...world.MapCoordinate) {
	for _, m := range s.order {
		s.grids[m].DirtyCoordinates(coords...)
	}
}

// Stats возвращает сводки всех сеток
func (s *GridSet) Stats() []GridStats {
	result := make([]GridStats, 0, len(s.order))
	for _, m := range s.order {
		result = append(result, s.grids[m].Stats())
	}
	return result
}
