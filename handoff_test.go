package flume

import (
	"context"
	"testing"
	"time"
)

func TestHandoffRendezvous(t *testing.T) {
	h := newHandoff[int]()

	go func() {
		if !h.send(7) {
			t.Error("send should deliver to the waiting receiver")
		}
	}()

	v, ok, err := h.recv(context.Background())
	if err != nil || !ok || v != 7 {
		t.Fatalf("got %v, %v, %v; want 7, true, nil", v, ok, err)
	}
}

func TestHandoffSendBlocksUntilReceive(t *testing.T) {
	h := newHandoff[int]()

	delivered := make(chan bool, 1)
	go func() {
		delivered <- h.send(1)
	}()

	select {
	case <-delivered:
		t.Fatal("send completed without a receiver")
	case <-time.After(20 * time.Millisecond):
	}

	if _, ok, err := h.recv(context.Background()); !ok || err != nil {
		t.Fatalf("recv failed: ok=%v err=%v", ok, err)
	}
	if !<-delivered {
		t.Fatal("send should report delivery")
	}
}

func TestHandoffCloseUnblocksSender(t *testing.T) {
	h := newHandoff[int]()

	delivered := make(chan bool, 1)
	go func() {
		delivered <- h.send(1)
	}()

	time.Sleep(10 * time.Millisecond)
	h.close()

	select {
	case ok := <-delivered:
		if ok {
			t.Fatal("send after close must not report delivery")
		}
	case <-time.After(time.Second):
		t.Fatal("close should unblock the pending sender")
	}
}

func TestHandoffRecvAfterClose(t *testing.T) {
	h := newHandoff[int]()
	h.close()
	h.close() // idempotent

	for range 3 {
		_, ok, err := h.recv(context.Background())
		if ok || err != nil {
			t.Fatalf("recv on closed handoff: ok=%v err=%v; want end-of-stream", ok, err)
		}
	}
}

func TestHandoffSendAfterClose(t *testing.T) {
	h := newHandoff[int]()
	h.close()
	if h.send(1) {
		t.Fatal("send on closed handoff must be discarded")
	}
}

func TestHandoffRecvContextCancel(t *testing.T) {
	h := newHandoff[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, ok, err := h.recv(ctx)
	if ok || err != context.Canceled {
		t.Fatalf("got ok=%v err=%v; want false, context.Canceled", ok, err)
	}
}
