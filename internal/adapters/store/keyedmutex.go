package store

import "sync"

// KeyedMutex выдаёт мьютекс на строковый ключ. Операции по одному ключу
// сериализуются, по разным ключам идут параллельно. Мьютексы не
// освобождаются: число тем/комнат ограничено временем жизни процесса.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex создаёт пустой реестр замков.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock блокирует ключ.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock освобождает ключ.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
