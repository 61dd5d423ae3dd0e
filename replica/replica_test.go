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

package replica_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/neclab/pbft-core/app"
	"github.com/neclab/pbft-core/crypto"
	"github.com/neclab/pbft-core/messages"
	"github.com/neclab/pbft-core/replica"
	"github.com/neclab/pbft-core/telemetry"
	"github.com/neclab/pbft-core/timer"
)

// echoApp returns the op unchanged and records the order it was applied
// in, so tests can assert execute() drives it in strict op_num order.
type echoApp struct {
	ops [][]byte
}

func (a *echoApp) Execute(opNum uint64, op []byte) []byte {
	a.ops = append(a.ops, op)
	return op
}

// node is one simulated replica: the engine under test plus everything a
// test needs to poke at to observe its behavior.
type node struct {
	r       *replica.Replica
	app     *echoApp
	replies map[uint32][]*messages.Reply // client_id -> replies delivered, in order
	timers  *timer.Service
}

// cluster wires n nodes together with an in-memory, single-threaded
// event queue standing in for the transport edge: egress directives and
// timer fires are appended to the queue and drained strictly in FIFO
// order, mirroring the cooperative reduction model of §5.
type cluster struct {
	nodes []*node
	clk   *clock.Mock
	queue []func()

	// drop, when non-nil, is consulted for every (from, to) delivery; a
	// true return silently discards that one message, standing in for a
	// lost packet on the wire (§8 S3).
	drop func(from, to uint32, msg replica.OutMessage) bool
}

// newCluster builds n replicas sharing a mock clock. perNodeMetrics is
// optional and, when given, must have one entry per node (nil entries are
// fine) — it lets a test observe what a specific node's Metrics collects
// without every other test having to thread metrics through.
func newCluster(t *testing.T, n, f uint32, prepareTO, commitTO time.Duration, perNodeMetrics ...*telemetry.Metrics) *cluster {
	c := &cluster{clk: clock.NewMock()}
	c.nodes = make([]*node, n)
	for i := uint32(0); i < n; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		signer := crypto.NewSigner(i, key, []byte("shared-hmac-key"))
		a := &echoApp{}
		adapter := app.NewAdapter(i, a)
		tm := timer.New(c.clk)

		var metrics *telemetry.Metrics
		if i < uint32(len(perNodeMetrics)) {
			metrics = perNodeMetrics[i]
		}

		id := i
		nd := &node{app: a, replies: make(map[uint32][]*messages.Reply), timers: tm}
		egress := func(eg replica.Egress) { c.dispatch(id, eg) }
		replyFn := func(clientID uint32, reply *messages.Reply) {
			nd.replies[clientID] = append(nd.replies[clientID], reply)
		}
		nd.r = replica.New(replica.Config{ID: i, N: n, F: f, PrepareTimeout: prepareTO, CommitTimeout: commitTO}, adapter, signer, tm, egress, replyFn, nil, metrics)
		c.nodes[i] = nd
	}
	return c
}

// dispatch turns one outbound directive into queued deliveries: ToOne
// targets a single node, ToAll fans out to every node but the sender.
func (c *cluster) dispatch(from uint32, eg replica.Egress) {
	msg := eg.Message()
	deliver := func(to uint32) {
		if c.drop != nil && c.drop(from, to, msg) {
			return
		}
		c.queue = append(c.queue, func() {
			switch {
			case msg.PrePrepare != nil:
				c.nodes[to].r.Handle(messages.WrapPrePrepare(msg.PrePrepare))
			case msg.Prepare != nil:
				c.nodes[to].r.Handle(messages.WrapPrepare(msg.Prepare))
			case msg.Commit != nil:
				c.nodes[to].r.Handle(messages.WrapCommit(msg.Commit))
			}
		})
	}
	if dest, ok := eg.Dest(); ok {
		deliver(dest)
		return
	}
	for id := range c.nodes {
		if uint32(id) == from {
			continue
		}
		deliver(uint32(id))
	}
}

// submit simulates a client broadcasting req to every replica; all but
// the primary will drop it per §4.4.
func (c *cluster) submit(req *messages.Request) {
	for _, nd := range c.nodes {
		nd := nd
		r := req
		c.queue = append(c.queue, func() { nd.r.Handle(messages.WrapRequest(r)) })
	}
}

// drain processes the event queue to exhaustion. Handlers invoked while
// draining may enqueue further events (a chain of egress sends); drain
// keeps going until nothing is left, which terminates because each
// round of the protocol produces a bounded number of further messages.
func (c *cluster) drain() {
	for len(c.queue) > 0 {
		f := c.queue[0]
		c.queue = c.queue[1:]
		f()
	}
}

// advance moves the shared mock clock forward by d, then drains any
// timer fires it produced (queued, not delivered inline, so they
// interleave with protocol messages in the same FIFO order).
func (c *cluster) advance(d time.Duration) {
	c.clk.Add(d)
	for _, nd := range c.nodes {
		c.drainTimerEvents(nd)
	}
	c.drain()
}

func (c *cluster) drainTimerEvents(nd *node) {
	for {
		select {
		case ev := <-nd.timers.Events:
			to, ok := ev.(replica.TimeoutEvent)
			if !ok {
				continue
			}
			n := nd
			c.queue = append(c.queue, func() { n.r.HandleTimeout(to) })
		default:
			return
		}
	}
}

func req(clientID, requestNum uint32, op string) *messages.Request {
	return &messages.Request{ClientId: clientID, RequestNum: requestNum, Op: []byte(op)}
}

// TestHappyPathFourReplicasOneFaulty exercises §8 S1: all four replicas
// execute op_num=1 exactly once and every one of them produces a Reply.
func TestHappyPathFourReplicasOneFaulty(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)
	c.submit(req(42, 1, "x"))
	c.drain()

	for i, nd := range c.nodes {
		require.Equal(t, uint64(1), nd.r.ExecNum(), "replica %d did not execute", i)
		require.Len(t, nd.app.ops, 1, "replica %d executed more than once", i)
		require.Equal(t, []byte("x"), nd.app.ops[0])
		replies := nd.replies[42]
		require.Len(t, replies, 1)
		require.Equal(t, uint32(1), replies[0].GetRequestNum())
		require.Equal(t, uint32(0), replies[0].GetViewNum())
		require.Equal(t, uint32(i), replies[0].GetReplicaId())
		require.Equal(t, []byte("x"), replies[0].GetResult())
	}
}

// TestDuplicateRequestReplaysCachedReply exercises §8 S2: a second
// Request with the same request_num produces no new execution and no
// new PrePrepare, but the replica still answers with the cached Reply.
func TestDuplicateRequestReplaysCachedReply(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)
	c.submit(req(42, 1, "x"))
	c.drain()

	c.submit(req(42, 1, "x"))
	c.drain()

	for i, nd := range c.nodes {
		require.Equal(t, uint64(1), nd.r.ExecNum())
		require.Len(t, nd.app.ops, 1, "replica %d re-executed a duplicate", i)
	}
	require.Len(t, c.nodes[0].replies[42], 2, "primary should have replayed the cached reply")
	first, second := c.nodes[0].replies[42][0], c.nodes[0].replies[42][1]
	require.Equal(t, first.GetResult(), second.GetResult())
	require.Equal(t, first.GetRequestNum(), second.GetRequestNum())
}

// TestLossyPrepareRecoveredByTimer exercises §8 S3: replica 2's Prepare
// to replica 3 is lost; replica 3's Prepare timer fires and rebroadcasts
// its own Prepare, which is enough for everyone (including replica 3) to
// reach commit without any view change.
func TestLossyPrepareRecoveredByTimer(t *testing.T) {
	c := newCluster(t, 4, 1, 100*time.Millisecond, time.Second)

	droppedOnce := false
	c.drop = func(from, to uint32, msg replica.OutMessage) bool {
		if !droppedOnce && from == 2 && to == 3 && msg.Prepare != nil {
			droppedOnce = true
			return true
		}
		return false
	}

	c.submit(req(7, 1, "y"))
	c.drain()
	require.True(t, droppedOnce, "test setup should have dropped replica 2's Prepare to replica 3")

	// Replica 3 is short one vote; its Prepare timer fires and it
	// rebroadcasts, which is what finally lets it (and everyone else)
	// cross the prepared threshold.
	c.advance(200 * time.Millisecond)

	require.Equal(t, uint64(1), c.nodes[3].r.ExecNum(), "replica 3 should eventually commit despite the lost Prepare")
	require.Equal(t, uint32(0), c.nodes[3].r.ViewNum(), "no view change should have occurred")
	for i, nd := range c.nodes {
		require.Equal(t, uint64(1), nd.r.ExecNum(), "replica %d should also have committed", i)
	}
}

// TestDigestMismatchPrepareIsDroppedNotCounted exercises §8 S4: a
// Prepare whose digest disagrees with the slot's installed PrePrepare is
// dropped and never contributes to the quorum count.
func TestDigestMismatchPrepareIsDroppedNotCounted(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)
	c.submit(req(1, 1, "z"))
	c.drain()

	// All four replicas already committed op_num=1 by the happy path.
	// Build a forged Prepare with a wrong digest for a *new* slot and
	// confirm it never counts toward that slot's threshold.
	forged := &messages.Prepare{ViewNum: 0, OpNum: 2, Digest: []byte("forged-digest"), ReplicaId: 1}
	c.nodes[0].r.Handle(messages.WrapPrepare(forged))

	// Now deliver the real PrePrepare for op_num=2 with a different
	// digest; the forged Prepare must not have been counted toward it.
	legit := &messages.PrePrepare{ViewNum: 0, OpNum: 2, Digest: []byte("legit-digest"), Requests: []*messages.Request{req(1, 2, "w")}}
	c.nodes[0].r.Handle(messages.WrapPrePrepare(legit))
	c.drain()

	// One legit PrePrepare plus (at most) the implicit self-vote isn't
	// enough to reach n-f=3 on its own; op_num=2 should not have executed
	// yet from node 0's perspective only from the forged vote.
	require.Equal(t, uint64(1), c.nodes[0].r.ExecNum(), "forged prepare must not have advanced execution by itself")
}

// TestStaleClientRequestIsSuppressed exercises §8 S5: a request older
// than what the client table already recorded produces no new Reply.
func TestStaleClientRequestIsSuppressed(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)
	c.submit(req(9, 7, "later"))
	c.drain()
	require.Len(t, c.nodes[0].replies[9], 1)

	c.submit(req(9, 5, "earlier"))
	c.drain()

	require.Len(t, c.nodes[0].replies[9], 1, "a stale request must not produce a new reply")
	require.Equal(t, uint64(1), c.nodes[0].r.ExecNum(), "stale request must not have minted a new op_num")
}

// TestOutOfOrderPrepareAndCommitAreBufferedThenPruned exercises §8 S6:
// Prepare and Commit for an op_num can arrive before its PrePrepare; they
// are buffered, and once the PrePrepare installs, mismatched buffered
// votes are pruned while matching ones are counted immediately.
func TestOutOfOrderPrepareAndCommitAreBufferedThenPruned(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)

	digest := crypto.DigestRequests([]*messages.Request{req(3, 1, "a")})

	// Two valid Prepares (from replicas 1 and 2) and two valid Commits
	// (from replicas 1 and 2) arrive at replica 3 before its PrePrepare.
	p1 := &messages.Prepare{ViewNum: 0, OpNum: 1, Digest: digest[:], ReplicaId: 1}
	p2 := &messages.Prepare{ViewNum: 0, OpNum: 1, Digest: digest[:], ReplicaId: 2}
	badP := &messages.Prepare{ViewNum: 0, OpNum: 1, Digest: []byte("mismatch"), ReplicaId: 0}
	commit1 := &messages.Commit{ViewNum: 0, OpNum: 1, Digest: digest[:], ReplicaId: 1}
	commit2 := &messages.Commit{ViewNum: 0, OpNum: 1, Digest: digest[:], ReplicaId: 2}

	target := c.nodes[3].r
	target.Handle(messages.WrapPrepare(p1))
	target.Handle(messages.WrapPrepare(badP))
	target.Handle(messages.WrapPrepare(p2))
	target.Handle(messages.WrapCommit(commit1))
	target.Handle(messages.WrapCommit(commit2))

	require.Equal(t, uint64(0), target.ExecNum(), "nothing should execute before the PrePrepare installs")

	pp := &messages.PrePrepare{ViewNum: 0, OpNum: 1, Digest: digest[:], Requests: []*messages.Request{req(3, 1, "a")}}
	target.Handle(messages.WrapPrePrepare(pp))

	require.Equal(t, uint64(1), target.ExecNum(), "buffered Prepare+Commit should cross both thresholds in one handler call")
	require.Len(t, c.nodes[3].replies[3], 1)
	require.Equal(t, []byte("a"), c.nodes[3].replies[3][0].GetResult())
}

// TestHandlePrePrepareFromStaleViewIsDropped covers the view-ordering
// guard of §4.4: a PrePrepare naming a view older than the replica's
// current one is dropped and does not roll the replica's view back.
func TestHandlePrePrepareFromStaleViewIsDropped(t *testing.T) {
	c := newCluster(t, 4, 1, time.Second, time.Second)
	target := c.nodes[1].r

	higher := &messages.PrePrepare{ViewNum: 5, OpNum: 1, Digest: []byte("d1")}
	target.Handle(messages.WrapPrePrepare(higher))
	require.Equal(t, uint32(5), target.ViewNum(), "a higher view in an incoming PrePrepare must be adopted")

	stale := &messages.PrePrepare{ViewNum: 2, OpNum: 2, Digest: []byte("d2")}
	target.Handle(messages.WrapPrePrepare(stale))
	require.Equal(t, uint32(5), target.ViewNum(), "a stale view must not roll the replica backwards")
}

// TestQuorumLatencyMetricRecordsBothTransitions covers the
// pre_prepare->prepared and prepared->committed observations
// advanceFromPrepared/advanceFromCommitted feed into the primary's
// Metrics as it drives a request to execution against one backup. The
// primary sends no Prepare, so with n=2 the backup becomes prepared only
// after its Prepare timer resends and the already-prepared primary
// answers with a targeted Prepare; the test advances the clock for that.
func TestQuorumLatencyMetricRecordsBothTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	c := newCluster(t, 2, 0, time.Second, time.Second, metrics, nil)
	c.submit(req(7, 1, "op"))
	c.drain()
	c.advance(time.Second)

	require.Len(t, c.nodes[0].replies[7], 1)
	count, err := testutil.GatherAndCount(reg, "pbft_quorum_latency_seconds")
	require.NoError(t, err)
	require.Equal(t, 2, count, "both the prepared and committed transitions should record a latency sample")
}
