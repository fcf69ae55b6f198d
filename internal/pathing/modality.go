package pathing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/annel0/voxel-pathing/internal/world"
)

// ErrUnknownModality возвращается при запросе несуществующего способа передвижения
var ErrUnknownModality = errors.New("pathing: unknown movement modality")

// Modality задаёт способ передвижения агента. Для каждого способа строится своя сетка.
type Modality uint8

const (
	ModalityWalk Modality = iota
	ModalityFly
)

// Modalities перечисляет все поддерживаемые способы передвижения
var Modalities = []Modality{ModalityWalk, ModalityFly}

func (m Modality) String() string {
	switch m {
	case ModalityWalk:
		return "walk"
	case ModalityFly:
		return "fly"
	default:
		return fmt.Sprintf("modality(%d)", uint8(m))
	}
}

// ParseModality разбирает имя способа передвижения
func ParseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walk", "":
		return ModalityWalk, nil
	case "fly":
		return ModalityFly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownModality, s)
	}
}

// EdgeRule определяет проходимость ячеек для способа передвижения.
//
// Ребро между A и B = A+d существует, если обе ячейки Passable, а для
// направлений с вертикальной составляющей при NeedsHeadroom над обеими
// ячейками есть свободное место. Правило вычисляется одинаково с обеих
// сторон, поэтому маски рёбер всегда симметричны.
type EdgeRule interface {
	Passable(s world.BlockShape) bool
	NeedsHeadroom() bool
}

type walkRule struct{}

// Ходить можно по ячейке с полом и без потолка
func (walkRule) Passable(s world.BlockShape) bool { return !s.IsSky() && !s.HasCeiling() }
func (walkRule) NeedsHeadroom() bool              { return true }

type flyRule struct{}

// Летать можно через любую незаполненную ячейку без потолка
func (flyRule) Passable(s world.BlockShape) bool { return !s.IsSolid() && !s.HasCeiling() }
func (flyRule) NeedsHeadroom() bool              { return false }

// Rule возвращает правило проходимости способа передвижения
func (m Modality) Rule() EdgeRule {
	if m == ModalityFly {
		return flyRule{}
	}
	return walkRule{}
}

// NoEdge стоимость несуществующего ребра
const NoEdge = -1.0

// DirectionCost возвращает стоимость шага в направлении d без учёта
// проходимости: 0 для NONE, 2 для шага с вертикальной составляющей,
// √2 для горизонтальной диагонали, 1 для горизонтальной грани.
func DirectionCost(d world.Direction) float64 {
	if !d.IsAngular() {
		return 0
	}
	if d.IsVertical() {
		return 2
	}
	if d.ValueOnAxis(world.AxisX) != 0 && d.ValueOnAxis(world.AxisY) != 0 {
		return math.Sqrt2
	}
	return 1
}
