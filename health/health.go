// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

// FailedCounter reports how many deliveries wait for a manual redelivery.
type FailedCounter interface {
	FailedCount() int
}

type Status struct {
	Healthy          bool       `json:"healthy"`
	Initialized      bool       `json:"initialized"`
	FailedDeliveries int        `json:"failedDeliveries"`
	LastCall         *time.Time `json:"lastCallTimestamp"`
}

type Health struct {
	lock        sync.RWMutex
	failed      FailedCounter
	initialized bool
	lastCall    time.Time
}

func New(failed FailedCounter) *Health {
	return &Health{failed: failed}
}

// Initialized records whether the oracle has a config.
func (h *Health) Initialized(initialized bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.initialized = initialized
}

// NewCall records a committed state changing call.
func (h *Health) NewCall() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastCall = time.Now()
}

// Status is healthy once the oracle is initialized and no delivery is stuck.
func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	status := &Status{Initialized: h.initialized}
	if h.failed != nil {
		status.FailedDeliveries = h.failed.FailedCount()
	}
	if !h.lastCall.IsZero() {
		last := h.lastCall
		status.LastCall = &last
	}
	status.Healthy = status.Initialized && status.FailedDeliveries == 0
	return status, nil
}
