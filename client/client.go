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

// Package client implements the PBFT client side of §4.5: request
// numbering, broadcast-and-wait, f+1 matching-reply quorum collection,
// and bounded retry. Like replica, it is a single-threaded reducer with
// no interior concurrency: Invoke/OnReply/HandleTimeout must all be
// called from the same goroutine.
package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/neclab/pbft-core/api"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/telemetry"
)

// ErrTimedOut is returned (via Outcome.Err) when a request exhausts its
// retry budget without a quorum of matching replies, resolving the "what
// does a second Tick do" open question as bounded retry rather than an
// unbounded wait or an immediate panic.
var ErrTimedOut = errors.New("client: request timed out")

// ErrInFlight is returned by Invoke when a prior request hasn't resolved
// yet; the client is strictly one-request-at-a-time, as in the original.
var ErrInFlight = errors.New("client: a request is already in flight")

// Outcome is delivered to the done callback exactly once per Invoke: the
// application-level result on success, or ErrTimedOut on exhaustion.
type Outcome struct {
	Result []byte
	Err    error
}

// tickEvent is what the client arms on its api.TimerService; it's tagged
// with the request_num it was armed for so a fire racing a new Invoke (or
// a just-resolved one) is recognized as stale and dropped (§5).
type tickEvent struct {
	requestNum uint32
}

// Client drives one outstanding request at a time against a replica set
// of size n (so f = (n-1)/3 is implied by the caller).
type Client struct {
	id         uint32
	f          uint32
	maxRetries uint32
	retryTick  time.Duration

	requestNum uint32
	op         []byte
	inFlight   bool
	ticked     bool
	retries    uint32
	replies    map[uint32]*messages.Reply

	backoff      *backoff.ExponentialBackOff
	timers       api.TimerService
	hasTickTimer bool
	tickTimer    api.TimerID

	verifier *crypto.Verifier
	egress   func(*messages.Request)
	done     func(Outcome)

	log telemetry.Logger
	mx  *telemetry.Metrics
}

// New builds a Client. egress is called once per outbound (re)transmission
// of the current request, broadcasting it to the full replica set — the
// client never needs to know which replica is primary. done is invoked
// exactly once per Invoke with the final outcome.
func New(id, f, maxRetries uint32, retryTick time.Duration, timers api.TimerService, verifier *crypto.Verifier, egress func(*messages.Request), done func(Outcome), logger telemetry.Logger, metrics *telemetry.Metrics) *Client {
	if logger == nil {
		logger = telemetry.DiscardLogger{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryTick
	b.MaxElapsedTime = 0 // unbounded in wall-clock time; bounded by MaxRetries instead
	return &Client{
		id:         id,
		f:          f,
		maxRetries: maxRetries,
		retryTick:  retryTick,
		replies:    make(map[uint32]*messages.Reply),
		backoff:    b,
		timers:     timers,
		verifier:   verifier,
		egress:     egress,
		done:       done,
		log:        logger,
		mx:         metrics,
	}
}

// Invoke starts a new request. It fails with ErrInFlight if a previous
// request hasn't resolved.
func (c *Client) Invoke(op []byte) error {
	if c.inFlight {
		return ErrInFlight
	}
	c.requestNum++
	c.op = op
	c.inFlight = true
	c.ticked = false
	c.retries = 0
	for k := range c.replies {
		delete(c.replies, k)
	}
	c.backoff.Reset()

	c.sendRequest()
	c.armTick(c.retryTick)
	return nil
}

func (c *Client) sendRequest() {
	req := &messages.Request{ClientId: c.id, RequestNum: c.requestNum, Op: c.op}
	c.egress(req)
}

// OnReply feeds a Reply into the pending request's quorum. It is a no-op
// if no request is in flight or the reply doesn't match the current
// request_num (§4.5 "stale replies are ignored").
func (c *Client) OnReply(reply *messages.Reply) {
	if !c.inFlight || reply.GetRequestNum() != c.requestNum {
		return
	}
	if c.verifier != nil {
		if err := c.verifier.VerifyPrivate(reply); err != nil {
			c.log.Debugw("client: reply failed verification", "replica_id", reply.GetReplicaId())
			c.mx.MessageDropped("reply", "bad_signature")
			return
		}
	}

	c.replies[reply.GetReplicaId()] = reply

	counts := make(map[string]int)
	values := make(map[string][]byte)
	for _, r := range c.replies {
		key := fmt.Sprintf("%d:%x", r.GetViewNum(), r.GetResult())
		counts[key]++
		values[key] = r.GetResult()
		if uint32(counts[key]) >= c.f+1 {
			c.resolve(Outcome{Result: values[key]})
			return
		}
	}
}

// HandleTimeout processes a tickEvent fired by the timer service. A fire
// for a request that has since resolved or been superseded is a no-op.
func (c *Client) HandleTimeout(ev tickEvent) {
	if !c.inFlight || ev.requestNum != c.requestNum {
		return
	}
	c.onTick()
}

// HandleTimeoutEvent accepts whatever timer.Service's Events channel hands back
// and ignores it unless it's one of this client's own tickEvents — a
// caller fanning one Events channel out to several collaborators (as
// cmd/pbft-client does) needs this rather than a type-asserting switch of
// its own at every call site.
func (c *Client) HandleTimeoutEvent(ev interface{}) {
	if tick, ok := ev.(tickEvent); ok {
		c.HandleTimeout(tick)
	}
}

// onTick implements the two-phase tick policy of §4.5 (grounded in
// original_source's Client::tick): the first tick after an Invoke is a
// grace period with no resend; every tick after that resends and
// re-arms at the next backoff interval, until MaxRetries is exceeded.
func (c *Client) onTick() {
	if !c.ticked {
		c.ticked = true
		c.armTick(c.retryTick)
		return
	}

	c.retries++
	if c.retries > c.maxRetries {
		c.resolve(Outcome{Err: ErrTimedOut})
		return
	}

	c.log.Debugw("client: retrying request", "request_num", c.requestNum, "attempt", c.retries)
	c.sendRequest()
	next := c.backoff.NextBackOff()
	if next == backoff.Stop {
		next = c.retryTick
	}
	c.armTick(next)
}

func (c *Client) armTick(d time.Duration) {
	c.tickTimer = c.timers.Set(tickEvent{requestNum: c.requestNum}, d)
	c.hasTickTimer = true
}

func (c *Client) resolve(outcome Outcome) {
	c.inFlight = false
	if c.hasTickTimer {
		c.timers.Unset(c.tickTimer)
		c.hasTickTimer = false
	}
	if c.done != nil {
		c.done(outcome)
	}
}
