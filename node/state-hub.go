package main

import (
	"sync"
)

// StateHub fans out charger states to websocket subscribers. Slow
// subscribers miss updates instead of blocking the poller.
type StateHub struct {
	mutex       sync.Mutex
	subscribers map[string]map[chan *ChargerState]struct{}
}

var _stateHubInstance *StateHub
var _stateHubOnce sync.Once

func GetStateHub() *StateHub {
	_stateHubOnce.Do(func() {
		_stateHubInstance = NewStateHub()
	})
	return _stateHubInstance
}

func NewStateHub() *StateHub {
	return &StateHub{
		subscribers: make(map[string]map[chan *ChargerState]struct{}),
	}
}

func (h *StateHub) Subscribe(chargerID string) chan *ChargerState {
	ch := make(chan *ChargerState, 8)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.subscribers[chargerID] == nil {
		h.subscribers[chargerID] = make(map[chan *ChargerState]struct{})
	}
	h.subscribers[chargerID][ch] = struct{}{}
	return ch
}

func (h *StateHub) Unsubscribe(chargerID string, ch chan *ChargerState) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.subscribers[chargerID], ch)
	if len(h.subscribers[chargerID]) == 0 {
		delete(h.subscribers, chargerID)
	}
}

func (h *StateHub) NumSubscribers(chargerID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.subscribers[chargerID])
}

func (h *StateHub) Publish(state *ChargerState) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for ch := range h.subscribers[state.ChargerID] {
		select {
		case ch <- state:
		default:
		}
	}
}
