package state

import (
	"errors"
	"testing"
	"time"

	memcache "github.com/automl-platform/authgw/internal/cache/memory"
	"github.com/automl-platform/authgw/internal/oauth"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(memcache.New(time.Minute), time.Minute)
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	m := newManager(t)

	token, err := m.Issue("sess-1", oauth.Google)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if err := m.Verify("sess-1", oauth.Google, token); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	m := newManager(t)
	token, _ := m.Issue("sess-1", oauth.Google)

	if err := m.Verify("sess-1", oauth.Google, token); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := m.Verify("sess-1", oauth.Google, token); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("second Verify: want ErrStateMismatch, got %v", err)
	}
}

func TestVerifyRejectsCrossSession(t *testing.T) {
	m := newManager(t)
	token, _ := m.Issue("sess-victim", oauth.Google)

	if err := m.Verify("sess-attacker", oauth.Google, token); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("want ErrStateMismatch, got %v", err)
	}
	// The attacker's attempt must not have consumed the victim's state.
	// It was stored under the victim's session key and untouched keys stay.
	if err := m.Verify("sess-victim", oauth.Google, token); err != nil {
		t.Errorf("victim Verify after attacker attempt: %v", err)
	}
}

func TestVerifyRejectsCrossProvider(t *testing.T) {
	m := newManager(t)
	token, _ := m.Issue("sess-1", oauth.Google)

	if err := m.Verify("sess-1", oauth.Kakao, token); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("want ErrStateMismatch, got %v", err)
	}
}

func TestVerifyRejectsLiteralNull(t *testing.T) {
	for _, supplied := range []string{"", "null"} {
		m := newManager(t)
		_, _ = m.Issue("sess-1", oauth.Google)
		if err := m.Verify("sess-1", oauth.Google, supplied); !errors.Is(err, ErrStateMismatch) {
			t.Errorf("Verify(%q): want ErrStateMismatch, got %v", supplied, err)
		}
	}
}

func TestReissueReplacesPreviousToken(t *testing.T) {
	m := newManager(t)
	first, _ := m.Issue("sess-1", oauth.Google)
	second, _ := m.Issue("sess-1", oauth.Google)

	if first == second {
		t.Fatal("reissue returned the same token")
	}
	if err := m.Verify("sess-1", oauth.Google, first); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("stale token accepted")
	}
}

func TestExpiredStateRejected(t *testing.T) {
	m := NewManager(memcache.New(time.Minute), 10*time.Millisecond)
	token, _ := m.Issue("sess-1", oauth.Google)

	time.Sleep(30 * time.Millisecond)
	if err := m.Verify("sess-1", oauth.Google, token); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("expired state accepted: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	m := newManager(t)
	token, _ := m.Issue("sess-1", oauth.Google)

	m.Discard("sess-1")
	if err := m.Verify("sess-1", oauth.Google, token); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("discarded state accepted: %v", err)
	}
}
