package player

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestBinder(t *testing.T, host *fakeHost, loader *ScriptLoader) (*Binder, *SlotMount) {
	t.Helper()
	if loader == nil {
		loader = NewScriptLoader(context.Background(), host, LoaderConfig{PollInterval: 5 * time.Millisecond})
	}
	b := NewBinder(host, loader, DefaultOptions("http://localhost:8080"))
	t.Cleanup(b.Close)
	mount := NewSlotMount("test")
	b.MountHandle().Attach(mount)
	return b, mount
}

func TestNullVideoID(t *testing.T) {
	host := &fakeHost{apiReady: true}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("")
	b.SeekTo(10)

	snap := b.Snapshot()
	if snap.State != StateUninitialized || snap.Ready || snap.Error != "" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if host.playerCount() != 0 || host.injectionCount() != 0 {
		t.Error("no player or script load expected for an empty id")
	}
}

func TestNoMountAttached(t *testing.T) {
	host := &fakeHost{apiReady: true}
	loader := NewScriptLoader(context.Background(), host, LoaderConfig{})
	b := NewBinder(host, loader, DefaultOptions(""))
	defer b.Close()

	b.Bind("abc12345678")
	time.Sleep(20 * time.Millisecond)

	if b.State() != StateUninitialized || host.playerCount() != 0 {
		t.Error("binder without a mount must not create a player")
	}
}

func TestLoadReadyAndSeek(t *testing.T) {
	host := &fakeHost{}
	b, mount := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	if b.State() != StateLoading {
		t.Fatalf("expected loading, got %s", b.State())
	}

	waitFor(t, "script injection", func() bool { return host.injectionCount() == 1 })
	host.loadScript()
	waitFor(t, "player construction", func() bool { return host.playerCount() == 1 })

	p := host.player(0)
	if p.videoID != "abc12345678" {
		t.Errorf("unexpected video id %q", p.videoID)
	}
	if len(mount.Children()) != 1 {
		t.Errorf("expected one child in the mount, got %d", len(mount.Children()))
	}
	b.SeekTo(5)
	if len(p.seeks) != 0 {
		t.Error("seek before ready must be dropped")
	}

	p.events.OnReady()
	snap := b.Snapshot()
	if !snap.Ready || snap.State != StateReady || snap.Error != "" {
		t.Fatalf("expected ready, got %+v", snap)
	}

	b.SeekTo(42.5)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !reflect.DeepEqual(p.seeks, []float64{42.5}) || p.plays != 1 {
		t.Errorf("expected seek to 42.5 and play, got %v plays=%d", p.seeks, p.plays)
	}
}

func TestPlayerRuntimeError(t *testing.T) {
	host := &fakeHost{apiReady: true}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("badVideoId1")
	waitFor(t, "player construction", func() bool { return host.playerCount() == 1 })
	host.player(0).events.OnError(150)

	snap := b.Snapshot()
	if snap.Ready || snap.State != StateError {
		t.Fatalf("expected error state, got %+v", snap)
	}
	if snap.Error != "YouTube player error (code 150)" {
		t.Errorf("unexpected error message %q", snap.Error)
	}
}

func TestNewPlayerFailure(t *testing.T) {
	host := &fakeHost{apiReady: true, newErr: errors.New("no embed")}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	waitFor(t, "error state", func() bool { return b.State() == StateError })
	if b.Err() != "no embed" {
		t.Errorf("unexpected error %q", b.Err())
	}
}

func TestScriptLoadFailure(t *testing.T) {
	host := &fakeHost{}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	waitFor(t, "script injection", func() bool { return host.injectionCount() == 1 })
	host.failScript()

	waitFor(t, "error state", func() bool { return b.State() == StateError })
	if b.Err() != ErrScriptLoad.Error() {
		t.Errorf("unexpected error %q", b.Err())
	}
	if b.IsReady() {
		t.Error("failed load must not be ready")
	}
}

func TestCloseWhileLoadingIgnoresLateCallbacks(t *testing.T) {
	host := &fakeHost{}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	waitFor(t, "script injection", func() bool { return host.injectionCount() == 1 })
	b.Close()
	before := b.Snapshot()

	host.loadScript()
	time.Sleep(20 * time.Millisecond)

	if after := b.Snapshot(); after != before {
		t.Errorf("late callback changed state: %+v -> %+v", before, after)
	}
	if host.playerCount() != 0 {
		t.Error("no player may be created after unmount")
	}
	if before.State != StateUninitialized {
		t.Errorf("expected uninitialized after close, got %s", before.State)
	}
}

func TestRebindDestroysPreviousPlayer(t *testing.T) {
	host := &fakeHost{apiReady: true}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("first123456")
	waitFor(t, "first player", func() bool { return host.playerCount() == 1 })
	first := host.player(0)

	b.Bind("first123456")
	if first.isDestroyed() {
		t.Fatal("binding the same id must keep the session")
	}

	b.Bind("second12345")
	if !first.isDestroyed() {
		t.Fatal("previous player must be destroyed before rebinding")
	}
	waitFor(t, "second player", func() bool { return host.playerCount() == 2 })

	first.events.OnReady()
	if b.State() != StateLoading {
		t.Errorf("stale ready changed state to %s", b.State())
	}
	host.player(1).events.OnReady()
	if !b.IsReady() {
		t.Error("expected second session ready")
	}
	if got := b.Snapshot().VideoID; got != "second12345" {
		t.Errorf("unexpected bound id %q", got)
	}
}

func TestCloseDestroysPlayer(t *testing.T) {
	host := &fakeHost{apiReady: true}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	waitFor(t, "player", func() bool { return host.playerCount() == 1 })
	b.Close()
	b.Close()

	if !host.player(0).isDestroyed() {
		t.Error("close must destroy the player")
	}
	b.SeekTo(3)
	if len(host.player(0).seeks) != 0 {
		t.Error("seek after close must be a no-op")
	}
}

func TestCloseIgnoresLatePlayerEvents(t *testing.T) {
	host := &fakeHost{}
	b, _ := newTestBinder(t, host, nil)

	b.Bind("abc12345678")
	waitFor(t, "script injection", func() bool { return host.injectionCount() == 1 })
	host.loadScript()
	waitFor(t, "player construction", func() bool { return host.playerCount() == 1 })
	p := host.player(0)

	b.Close()
	before := b.Snapshot()

	p.events.OnReady()
	p.events.OnError(150)
	time.Sleep(20 * time.Millisecond)

	if after := b.Snapshot(); after != before {
		t.Errorf("late player event changed state: %+v -> %+v", before, after)
	}
	if before.State != StateUninitialized || before.Ready || before.Error != "" {
		t.Errorf("unexpected snapshot after close: %+v", before)
	}
	if !p.isDestroyed() {
		t.Error("close must destroy the player")
	}
}

func TestSharedScriptLoad(t *testing.T) {
	host := &fakeHost{}
	loader := NewScriptLoader(context.Background(), host, LoaderConfig{})
	first, _ := newTestBinder(t, host, loader)
	second, _ := newTestBinder(t, host, loader)

	first.Bind("first123456")
	second.Bind("second12345")
	waitFor(t, "script injection", func() bool { return host.injectionCount() == 1 })
	time.Sleep(20 * time.Millisecond)
	host.loadScript()

	waitFor(t, "both players", func() bool { return host.playerCount() == 2 })
	host.player(0).events.OnReady()
	host.player(1).events.OnReady()

	if !first.IsReady() || !second.IsReady() {
		t.Error("both sessions should be ready")
	}
	if n := host.injectionCount(); n != 1 {
		t.Errorf("expected one script load, got %d", n)
	}
}
