package world

import (
	"testing"

	"github.com/annel0/voxel-pathing/internal/world/block"
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	coords := ChunkCoord{X: 5, Y: 10, Z: -1}
	chunk := NewChunk(coords)

	// Проверяем координаты
	if chunk.Coords != coords {
		t.Errorf("Ожидались координаты %v, получено %v", coords, chunk.Coords)
	}

	// Проверяем, что блоки инициализированы как пустые
	idx := NewBlockIndex(3, 4, 5)
	if id := chunk.GetBlock(idx); id != block.AirBlockID {
		t.Errorf("Ожидался пустой блок (AirBlockID), получен %d", id)
	}

	// Устанавливаем и проверяем блок
	if !chunk.SetBlock(idx, block.StoneBlockID) {
		t.Error("SetBlock должен сообщить об изменении")
	}
	if id := chunk.GetBlock(idx); id != block.StoneBlockID {
		t.Errorf("Ожидался StoneBlockID, получен %d", id)
	}
	if chunk.SetBlock(idx, block.StoneBlockID) {
		t.Error("Повторная установка того же блока не является изменением")
	}
}

func TestChunkChangesAndPathingFlag(t *testing.T) {
	chunk := NewChunk(ChunkCoord{})

	if chunk.HasChanges() {
		t.Error("Новый чанк не должен иметь изменений")
	}
	chunk.SetBlock(NewBlockIndex(1, 1, 1), block.DirtBlockID)
	if !chunk.HasChanges() {
		t.Error("После SetBlock чанк должен иметь изменения")
	}
	chunk.ClearChanges()
	if chunk.HasChanges() {
		t.Error("ClearChanges должен сбросить изменения")
	}

	chunk.MarkPathingDirty()
	if !chunk.TakePathingDirty() {
		t.Error("Флаг DirtyPathing должен быть установлен")
	}
	if chunk.TakePathingDirty() {
		t.Error("TakePathingDirty должен сбрасывать флаг")
	}
}
