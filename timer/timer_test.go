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

package timer_test

import (
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/neclab/pbft-core/timer"
)

func TestSetFiresAfterDuration(t *testing.T) {
	mockClock := clock.NewMock()
	svc := timer.New(mockClock)

	svc.Set("hello", 5*time.Second)
	mockClock.Add(5 * time.Second)

	require.Equal(t, "hello", <-svc.Events)
}

func TestUnsetSuppressesFire(t *testing.T) {
	mockClock := clock.NewMock()
	svc := timer.New(mockClock)

	id := svc.Set("hello", 5*time.Second)
	svc.Unset(id)
	mockClock.Add(5 * time.Second)

	select {
	case ev := <-svc.Events:
		t.Fatalf("unexpected fire: %v", ev)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestResetRearmsAndSuppressesOriginalFire(t *testing.T) {
	mockClock := clock.NewMock()
	svc := timer.New(mockClock)

	id := svc.Set("hello", 5*time.Second)
	mockClock.Add(3 * time.Second)
	svc.Reset(id, 5*time.Second)
	mockClock.Add(2 * time.Second) // 5s since Set, but only 2s since Reset

	select {
	case ev := <-svc.Events:
		t.Fatalf("unexpected early fire: %v", ev)
	case <-time.After(10 * time.Millisecond):
	}

	mockClock.Add(3 * time.Second) // 5s since Reset
	require.Equal(t, "hello", <-svc.Events)
}
