package logging

import (
	"sort"
	"sync"
)

// Реестр логгеров компонентов сервиса (pathing, storage, eventbus, api)
var components = struct {
	sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Component возвращает логгер компонента, создавая его при первом обращении.
// Сообщения идут в консоль и файл логгера по умолчанию с префиксом компонента,
// поэтому логгер можно получить до InitDefaultLogger.
func Component(name string) *Logger {
	components.RLock()
	logger, exists := components.loggers[name]
	components.RUnlock()
	if exists {
		return logger
	}

	components.Lock()
	defer components.Unlock()

	if logger, exists = components.loggers[name]; exists {
		return logger
	}
	logger = &Logger{component: name, shared: true}
	components.loggers[name] = logger
	return logger
}

// ComponentNames возвращает имена зарегистрированных компонентов по алфавиту
func ComponentNames() []string {
	components.RLock()
	names := make([]string, 0, len(components.loggers))
	for name := range components.loggers {
		names = append(names, name)
	}
	components.RUnlock()

	sort.Strings(names)
	return names
}

// ConfigureComponents задаёт уровни компонентов из конфигурации (имя → уровень).
// Уровень действует и для консоли, и для файла.
func ConfigureComponents(levels map[string]string) {
	for name, value := range levels {
		level := ParseLevel(value)
		Component(name).SetLevels(level, level)
		Debug("Уровень логирования компонента %s: %s", name, level)
	}
}
