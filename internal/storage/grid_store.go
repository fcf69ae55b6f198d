package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/annel0/voxel-pathing/internal/pathing"
	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

var logger = logging.Component("storage")

// ErrNotReady возвращается после закрытия хранилища
var ErrNotReady = errors.New("storage: хранилище не готово")

// GridStore хранит снимки масок рёбер сеток в BadgerDB.
// Значения хранятся в JSON, сжатом zstd. Используется для быстрого старта без полной постройки.
type GridStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// chunkRecord формат хранения снимка чанка
type chunkRecord struct {
	Coords world.ChunkCoord `json:"coords"`
	Blocks []uint16         `json:"blocks"`
	Masks  []uint32         `json:"masks"`
}

// NewGridStore открывает хранилище в каталоге dataPath/grid
func NewGridStore(dataPath string) (*GridStore, error) {
	dbPath := filepath.Join(dataPath, "grid")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	return openGridStore(opts, dbPath)
}

// NewInMemoryGridStore открывает хранилище без записи на диск
func NewInMemoryGridStore() (*GridStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return openGridStore(opts, "")
}

func openGridStore(opts badger.Options, dbPath string) (*GridStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &GridStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close закрывает хранилище
func (s *GridStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

func modalityPrefix(m pathing.Modality) []byte {
	return []byte(fmt.Sprintf("grid:%s:", m))
}

func chunkKey(m pathing.Modality, cc world.ChunkCoord) []byte {
	return []byte(fmt.Sprintf("grid:%s:%d:%d:%d", m, cc.X, cc.Y, cc.Z))
}

func (s *GridStore) encode(snap pathing.ChunkSnapshot) ([]byte, error) {
	rec := chunkRecord{
		Coords: snap.Coords,
		Blocks: make([]uint16, len(snap.Blocks)),
		Masks:  snap.Masks,
	}
	for i, b := range snap.Blocks {
		rec.Blocks[i] = uint16(b)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка %s: %w", snap.Coords, err)
	}
	return s.encoder.EncodeAll(data, nil), nil
}

func (s *GridStore) decode(val []byte) (pathing.ChunkSnapshot, error) {
	data, err := s.decoder.DecodeAll(val, nil)
	if err != nil {
		return pathing.ChunkSnapshot{}, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	var rec chunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return pathing.ChunkSnapshot{}, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}

	snap := pathing.ChunkSnapshot{
		Coords: rec.Coords,
		Blocks: make([]world.BlockIndex, len(rec.Blocks)),
		Masks:  rec.Masks,
	}
	for i, b := range rec.Blocks {
		snap.Blocks[i] = world.BlockIndex(b)
	}
	return snap, nil
}

// SaveChunk сохраняет снимок одного чанка
func (s *GridStore) SaveChunk(m pathing.Modality, snap pathing.ChunkSnapshot) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrNotReady
	}

	data, err := s.encode(snap)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(m, snap.Coords), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadChunk загружает снимок чанка; false, если снимка нет
func (s *GridStore) LoadChunk(m pathing.Modality, cc world.ChunkCoord) (pathing.ChunkSnapshot, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return pathing.ChunkSnapshot{}, false, ErrNotReady
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(m, cc))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return pathing.ChunkSnapshot{}, false, nil
	}
	if err != nil {
		return pathing.ChunkSnapshot{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	snap, err := s.decode(data)
	if err != nil {
		return pathing.ChunkSnapshot{}, false, err
	}
	return snap, true, nil
}

// SaveGrid заменяет сохранённые снимки способа передвижения текущим
// состоянием сетки. Возвращает число записанных чанков.
func (s *GridStore) SaveGrid(g *pathing.Grid) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return 0, ErrNotReady
	}

	snapshots := g.Snapshots()
	if err := s.db.DropPrefix(modalityPrefix(g.Modality())); err != nil {
		return 0, fmt.Errorf("ошибка очистки снимков %s: %w", g.Modality(), err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, snap := range snapshots {
		data, err := s.encode(snap)
		if err != nil {
			return 0, err
		}
		if err := wb.Set(chunkKey(g.Modality(), snap.Coords), data); err != nil {
			return 0, fmt.Errorf("ошибка записи снимка %s: %w", snap.Coords, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	logger.Info("💾 Сохранено %d снимков сетки %s", len(snapshots), g.Modality())
	return len(snapshots), nil
}

// LoadGrid загружает все снимки способа передвижения
func (s *GridStore) LoadGrid(m pathing.Modality) ([]pathing.ChunkSnapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrNotReady
	}

	var snapshots []pathing.ChunkSnapshot
	prefix := modalityPrefix(m)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			snap, err := s.decode(val)
			if err != nil {
				logger.Warn("Пропущен повреждённый снимок %s: %v", it.Item().Key(), err)
				continue
			}
			snapshots = append(snapshots, snap)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимков %s: %w", m, err)
	}
	return snapshots, nil
}

// SetMeta сохраняет служебное значение, например отпечаток мира
func (s *GridStore) SetMeta(key, value string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrNotReady
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("meta:"+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения meta %s: %w", key, err)
	}
	return nil
}

// Meta возвращает служебное значение; false, если его нет
func (s *GridStore) Meta(key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return "", false, ErrNotReady
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("meta:" + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка чтения meta %s: %w", key, err)
	}
	return string(value), true, nil
}

// RestoreGrid восстанавливает сетку из сохранённых снимков.
// Возвращает false, если снимков нет и сетку нужно строить заново.
func (s *GridStore) RestoreGrid(g *pathing.Grid) (bool, error) {
	snapshots, err := s.LoadGrid(g.Modality())
	if err != nil {
		return false, err
	}
	if len(snapshots) == 0 {
		return false, nil
	}
	if err := g.Restore(snapshots); err != nil {
		return false, err
	}
	return true, nil
}
