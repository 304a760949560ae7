// Package mcadapter translates classic Memcached text protocol commands
// into the equivalent redis-shaped argv and dispatches them through the
// same command core RESP connections use, per SPEC_FULL.md §6. A
// Memcached connection never gets its own copy of the command table —
// DispatchMC is purely a wire-format and semantics adapter sitting in
// front of dispatch.DispatchCommand.
package mcadapter

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spaolacci/murmur3"

	"kvcore"
	"kvcore/dispatch"
	"kvcore/mcproto"
)

// ErrQuit is returned by DispatchMC when the client sent "quit": the
// caller should close the connection without writing a reply.
var ErrQuit = errors.New("mcadapter: quit")

// ErrPrependUnsupported is returned for "prepend", which has no equivalent
// single-command redis translation in this core (no PREPEND counterpart to
// APPEND); DispatchMC answers it with a SERVER_ERROR line rather than
// silently ignoring it.
var ErrPrependUnsupported = errors.New("prepend is not supported by this adapter")

// LatencyHistogram buckets per-command latency samples by a murmur3 hash
// of the command+key, giving a cheap approximation of per-key-range
// latency distribution without a full sorted index (SPEC_FULL.md §4 domain
// stack: murmur3 wired into the Memcached adapter's latency tracking).
type LatencyHistogram struct {
	buckets []int64
	counts  []int64
}

// NewLatencyHistogram creates a histogram with n buckets.
func NewLatencyHistogram(n int) *LatencyHistogram {
	if n <= 0 {
		n = 16
	}
	return &LatencyHistogram{buckets: make([]int64, n), counts: make([]int64, n)}
}

func (h *LatencyHistogram) record(cmd, key string, micros int64) {
	sum := murmur3.Sum32([]byte(cmd + ":" + key))
	idx := int(sum) % len(h.buckets)
	if idx < 0 {
		idx += len(h.buckets)
	}
	h.buckets[idx] += micros
	h.counts[idx]++
}

// BucketAverage returns the mean recorded latency for the bucket key
// (cmd, key) falls into.
func (h *LatencyHistogram) BucketAverage(cmd, key string) float64 {
	sum := murmur3.Sum32([]byte(cmd + ":" + key))
	idx := int(sum) % len(h.buckets)
	if idx < 0 {
		idx += len(h.buckets)
	}
	if h.counts[idx] == 0 {
		return 0
	}
	return float64(h.buckets[idx]) / float64(h.counts[idx])
}

// mcSink is the minimal writer DispatchMC needs; mcproto.Writer satisfies
// it directly.
type mcSink interface {
	WriteLine(s string) error
	WriteData(b []byte) error
}

type discardSink struct{}

func (discardSink) WriteLine(string) error  { return nil }
func (discardSink) WriteData([]byte) error  { return nil }

// DispatchMC translates cmd into a redis argv, dispatches it through cc,
// and renders the reply back into w in classic Memcached text protocol
// form. hist, if non-nil, records the handler's wall time.
func DispatchMC(cmd *mcproto.Command, cc *dispatch.ConnContext, w mcSink, hist *LatencyHistogram) error {
	sink := w
	if cmd.NoReply {
		sink = discardSink{}
	}
	if hist != nil {
		start := time.Now()
		defer func() { hist.record(string(cmd.Name), cmd.Key, time.Since(start).Microseconds()) }()
	}

	switch cmd.Name {
	case mcproto.CmdVersion:
		sink.WriteLine("VERSION " + kvcore.Version)
		return nil

	case mcproto.CmdQuit:
		return ErrQuit

	case mcproto.CmdSet:
		return dispatchStorage(cc, sink, buildSetArgv(cmd, false, false))
	case mcproto.CmdAdd:
		return dispatchStorage(cc, sink, buildSetArgv(cmd, true, false))
	case mcproto.CmdReplace:
		return dispatchStorage(cc, sink, buildSetArgv(cmd, false, true))
	case mcproto.CmdCas:
		// CAS-token enforcement is not tracked by the underlying keyspace;
		// a cas request degrades to an unconditional
		// set and always reports STORED.
		return dispatchStorage(cc, sink, buildSetArgv(cmd, false, false))
	case mcproto.CmdAppend:
		return dispatchStorage(cc, sink, []string{"APPEND", cmd.Key, string(cmd.Data)})
	case mcproto.CmdPrepend:
		sink.WriteLine(fmt.Sprintf("SERVER_ERROR %s", ErrPrependUnsupported.Error()))
		return nil

	case mcproto.CmdGet:
		return dispatchGet(cc, sink, cmd.Keys, false)
	case mcproto.CmdGets:
		return dispatchGet(cc, sink, cmd.Keys, true)

	case mcproto.CmdDelete:
		cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeDelete, cmd.Key, 0)
		dispatch.DispatchCommand([]string{"DEL", cmd.Key}, cc)
		return nil

	case mcproto.CmdIncr, mcproto.CmdDecr:
		name := "INCRBY"
		if cmd.Name == mcproto.CmdDecr {
			name = "DECRBY"
		}
		if cc.Server.Storage.Exists(cmd.Key) == 0 {
			sink.WriteLine("NOT_FOUND")
			return nil
		}
		cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeCounter, cmd.Key, 0)
		dispatch.DispatchCommand([]string{name, cmd.Key, strconv.FormatUint(cmd.Delta, 10)}, cc)
		return nil

	case mcproto.CmdTouch:
		cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeTouch, cmd.Key, 0)
		dispatch.DispatchCommand([]string{"EXPIRE", cmd.Key, strconv.FormatInt(cmd.ExptimeSeconds, 10)}, cc)
		return nil

	case mcproto.CmdFlushAll:
		cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeAck, "", 0)
		dispatch.DispatchCommand([]string{"FLUSHALL"}, cc)
		return nil

	default:
		sink.WriteLine(fmt.Sprintf("ERROR unknown command %q", cmd.Name))
		return nil
	}
}

func dispatchStorage(cc *dispatch.ConnContext, sink mcSink, argv []string) error {
	cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeStorage, argv[1], 0)
	dispatch.DispatchCommand(argv, cc)
	return nil
}

func buildSetArgv(cmd *mcproto.Command, nx, xx bool) []string {
	argv := []string{"SET", cmd.Key, string(cmd.Data)}
	if cmd.ExptimeSeconds > 0 {
		argv = append(argv, "EX", strconv.FormatInt(cmd.ExptimeSeconds, 10))
	}
	if nx {
		argv = append(argv, "NX")
	}
	if xx {
		argv = append(argv, "XX")
	}
	return argv
}

// dispatchGet answers a memcached get/gets. gets needs a CAS token on each
// VALUE line, which only the per-key GET path can supply, so it keeps the
// one-dispatch-per-key loop. A plain get carries no per-key state the
// single-key path doesn't already give it, so it is translated into one
// MGET dispatch (spec.md §4.5's GET -> MGET mapping) instead of a loop.
func dispatchGet(cc *dispatch.ConnContext, sink mcSink, keys []string, withCas bool) error {
	if withCas {
		for _, key := range keys {
			rb := dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeRetrieval, key, 0).WithSuppressEnd().WithCas(0)
			cc.Reply = rb
			dispatch.DispatchCommand([]string{"GET", key}, cc)
		}
		sink.WriteLine("END")
		return nil
	}

	cc.Reply = dispatch.NewMemcachedReplyBuilder(sink, dispatch.MCModeRetrieval, "", 0).WithKeys(keys)
	dispatch.DispatchCommand(append([]string{"MGET"}, keys...), cc)
	return nil
}
