package sessions

import "testing"

func TestTurnLockerTryAcquireIsExclusive(t *testing.T) {
	tl := newTurnLocker()

	release, ok := tl.TryAcquire("s1")
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	if _, ok := tl.TryAcquire("s1"); ok {
		t.Fatalf("expected second overlapping acquire to fail")
	}

	release()
	if _, ok := tl.TryAcquire("s1"); !ok {
		t.Fatalf("expected acquire to succeed after release")
	}
}

func TestTurnLockerIndependentSessions(t *testing.T) {
	tl := newTurnLocker()

	releaseA, ok := tl.TryAcquire("a")
	if !ok {
		t.Fatalf("expected acquire for session a")
	}
	releaseB, ok := tl.TryAcquire("b")
	if !ok {
		t.Fatalf("expected independent acquire for session b")
	}
	releaseA()
	releaseB()
}

func TestTurnLockerReleaseIsIdempotent(t *testing.T) {
	tl := newTurnLocker()
	release, ok := tl.TryAcquire("s1")
	if !ok {
		t.Fatalf("expected acquire")
	}
	release()
	release() // must not panic or double-decrement refs
	if _, ok := tl.TryAcquire("s1"); !ok {
		t.Fatalf("expected acquire after idempotent release")
	}
}
