// Copyright (c) 2018 NEC Laboratories Europe GmbH.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package timer implements api.TimerService on top of a fakeable clock
// (github.com/raulk/clock, as used by storacha-piri's pdp/aggregator
// tests) so replica and client timer policy can be exercised in tests
// without sleeping real wall-clock time.
package timer

import (
	"sync"
	"time"

	"github.com/raulk/clock"

	"github.com/neclab/pbft-core/api"
)

// Service is a clock-driven implementation of api.TimerService. Fires are
// delivered on the Events channel; the consumer must treat a fire for a
// timer it has already Unset or Reset as a no-op, since a service that
// cannot cancel synchronously can race a fire against a cancel (§5).
// Service tags every fire with the generation it was armed under and
// drops stale ones itself, so in practice the consumer never observes a
// spurious fire.
type Service struct {
	clock  clock.Clock
	Events chan interface{}

	mu     sync.Mutex
	timers map[api.TimerID]*entry
	nextID api.TimerID
}

type entry struct {
	event      interface{}
	generation uint64
	stop       func() bool
}

// New builds a Service backed by clk. Pass clock.New() for real time, or
// clock.NewMock() in tests to control time deterministically.
func New(clk clock.Clock) *Service {
	return &Service{
		clock:  clk,
		Events: make(chan interface{}, 64),
		timers: make(map[api.TimerID]*entry),
	}
}

var _ api.TimerService = (*Service)(nil)

// Set arms a new timer for event, firing after d elapses on the
// service's clock.
func (s *Service) Set(event interface{}, d time.Duration) api.TimerID {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	e := &entry{event: event, generation: 1}
	s.timers[id] = e
	s.mu.Unlock()

	s.arm(id, e, d)
	return id
}

func (s *Service) arm(id api.TimerID, e *entry, d time.Duration) {
	generation := e.generation
	t := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.timers[id]
		stale := !ok || cur.generation != generation
		s.mu.Unlock()
		if stale {
			return
		}
		s.Events <- e.event
	})
	e.stop = t.Stop
}

// Unset cancels a timer. Any in-flight fire racing the cancel is
// discarded by generation mismatch rather than delivered.
func (s *Service) Unset(id api.TimerID) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if ok {
		delete(s.timers, id)
	}
	s.mu.Unlock()
	if ok && e.stop != nil {
		e.stop()
	}
}

// Now returns the service's underlying clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Reset rearms id with a fresh deadline of d, bumping its generation so
// any fire racing the reset is discarded as stale.
func (s *Service) Reset(id api.TimerID, d time.Duration) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.generation++
	stop := e.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.arm(id, e, d)
}
