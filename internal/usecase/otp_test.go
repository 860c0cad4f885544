package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOTPServiceRequestStoresSingleUnusedCode(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "alice", "", "9198765432", "pw")
	f.generator.otps = []string{"111111", "222222"}

	first, err := f.otp.RequestOTP(context.Background(), "9198765432")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if first.ExpiresInMinutes != 5 || first.Invalidated != 0 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := f.otp.RequestOTP(context.Background(), "9198765432")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if second.Invalidated != 1 {
		t.Fatalf("expected one invalidated code, got %d", second.Invalidated)
	}

	unused := f.store.unusedCodes(user.ID)
	if len(unused) != 1 {
		t.Fatalf("expected exactly one unused code, got %d", len(unused))
	}
	if unused[0].Code != "222222" {
		t.Fatalf("expected newest code to remain, got %s", unused[0].Code)
	}
	wantExpiry := f.time.Now().Add(5 * time.Minute).Unix()
	if unused[0].ExpiresAt != wantExpiry {
		t.Fatalf("expected expiry %d, got %d", wantExpiry, unused[0].ExpiresAt)
	}

	sent := f.sender.last(t)
	if sent.Phone != "9198765432" || !containsAll(sent.Message, "222222", "5 minutes") {
		t.Fatalf("unexpected notification %+v", sent)
	}
}

func TestOTPServiceRequestUnknownPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.otp.RequestOTP(context.Background(), "9000000009")
	expectErr(t, err, ErrUserNotFound)

	_, err = f.otp.RequestOTP(context.Background(), " ")
	expectErr(t, err, ErrValidation)
}

func TestOTPServiceDeliveryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "alice", "", "9198765432", "pw")
	f.generator.otps = []string{"111111", "222222"}

	if _, err := f.otp.RequestOTP(context.Background(), "9198765432"); err != nil {
		t.Fatalf("request: %v", err)
	}

	f.sender.failWith = errors.New("gateway down")
	_, err := f.otp.RequestOTP(context.Background(), "9198765432")
	expectErr(t, err, ErrDeliveryFailed)

	unused := f.store.unusedCodes(user.ID)
	if len(unused) != 1 || unused[0].Code != "111111" {
		t.Fatalf("expected previous code untouched after rollback, got %+v", unused)
	}
	if f.store.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", f.store.rollbacks)
	}
	if errs := f.metrics.notifications["otp"]; len(errs) != 2 || errs[1] == nil {
		t.Fatalf("expected failed delivery to be recorded, got %v", errs)
	}
}

func TestOTPServiceVerifyIsSingleUse(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "alice@example.com", "9198765432", "pw")
	f.generator.otps = []string{"123456"}

	if _, err := f.otp.RequestOTP(context.Background(), "9198765432"); err != nil {
		t.Fatalf("request: %v", err)
	}

	result, err := f.otp.VerifyOTP(context.Background(), "9198765432", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Token == "" || result.MaskedPhone != "91****5432" {
		t.Fatalf("unexpected result %+v", result)
	}

	_, err = f.otp.VerifyOTP(context.Background(), "9198765432", "123456")
	expectErr(t, err, ErrInvalidOrExpiredOTP)
}

func TestOTPServiceVerifyExpired(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "", "9198765432", "pw")
	f.generator.otps = []string{"123456"}

	if _, err := f.otp.RequestOTP(context.Background(), "9198765432"); err != nil {
		t.Fatalf("request: %v", err)
	}

	f.time.Advance(5 * time.Minute)
	if _, err := f.otp.VerifyOTP(context.Background(), "9198765432", "123456"); err != nil {
		t.Fatalf("code at its expiry second must still verify: %v", err)
	}

	f.generator.otps = []string{"654321"}
	if _, err := f.otp.RequestOTP(context.Background(), "9198765432"); err != nil {
		t.Fatalf("request: %v", err)
	}
	f.time.Advance(5*time.Minute + time.Second)

	_, err := f.otp.VerifyOTP(context.Background(), "9198765432", "654321")
	expectErr(t, err, ErrOTPExpired)
}

func TestOTPServiceVerifyValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.otp.VerifyOTP(context.Background(), "9198765432", "")
	expectErr(t, err, ErrValidation)

	_, err = f.otp.VerifyOTP(context.Background(), "9000000009", "123456")
	expectErr(t, err, ErrUserNotFound)
}

func TestOTPServiceRegenerationScenario(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "otpuser", "", "9000000001", "pw")
	f.generator.otps = []string{"100001", "200002"}

	if _, err := f.otp.RequestOTP(context.Background(), "9000000001"); err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err := f.otp.VerifyOTP(context.Background(), "9000000001", "999999")
	expectErr(t, err, ErrInvalidOrExpiredOTP)

	if _, err := f.otp.RequestOTP(context.Background(), "9000000001"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	_, err = f.otp.VerifyOTP(context.Background(), "9000000001", "100001")
	expectErr(t, err, ErrInvalidOrExpiredOTP)

	if _, err := f.otp.VerifyOTP(context.Background(), "9000000001", "200002"); err != nil {
		t.Fatalf("verify regenerated code: %v", err)
	}
}

func TestOTPServiceConcurrentVerifySucceedsOnce(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "", "9198765432", "pw")
	f.generator.otps = []string{"123456"}

	if _, err := f.otp.RequestOTP(context.Background(), "9198765432"); err != nil {
		t.Fatalf("request: %v", err)
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.otp.VerifyOTP(context.Background(), "9198765432", "123456"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful verification, got %d", successes)
	}
}

func TestOTPServiceRoundsPartialMinutesUp(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "", "9198765432", "pw")
	f.generator.otps = []string{"111111"}
	WithOTPTTL(90 * time.Second)(f.otp)

	result, err := f.otp.RequestOTP(context.Background(), "9198765432")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if result.ExpiresInMinutes != 2 {
		t.Fatalf("expected 90s ttl to be advertised as 2 minutes, got %d", result.ExpiresInMinutes)
	}
	if sent := f.sender.last(t); !containsAll(sent.Message, "2 minutes") {
		t.Fatalf("unexpected notification %q", sent.Message)
	}
}
