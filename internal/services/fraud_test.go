package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func newTestFraudService(invoker ai.ModelInvoker, velocity VelocityCounter, orders *stubOrderRepo, blacklist *stubBlacklistRepo, logs *stubSystemLogRepo) FraudService {
	return NewFraudService(testLogger(), invoker, testPrompts(), velocity, orders, blacklist, logs)
}

func TestApplyVerdict_VerifiesCleanMatchingSlip(t *testing.T) {
	ctx := context.Background()
	var verifiedSet *bool
	orders := &stubOrderRepo{setVerifiedFn: func(_ uuid.UUID, v bool) error {
		verifiedSet = &v
		return nil
	}}
	logs := &stubSystemLogRepo{createFn: func(entries []*types.SystemLog) ([]*types.SystemLog, error) {
		t.Fatalf("no warning expected for a clean slip")
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{}, orders, &stubBlacklistRepo{}, logs)

	verified, err := fs.ApplyVerdict(ctx, nil, uuid.New(), 100, &SlipAnalysis{
		ExtractedAmount: 100,
		AmountMatches:   true,
		FraudScore:      5,
	})
	if err != nil {
		t.Fatalf("ApplyVerdict: %v", err)
	}
	if !verified {
		t.Fatalf("expected verified=true")
	}
	if verifiedSet == nil || !*verifiedSet {
		t.Fatalf("expected verified flag persisted as true, got %v", verifiedSet)
	}
}

func TestApplyVerdict_AmountMismatchWarnsAndStaysUnverified(t *testing.T) {
	ctx := context.Background()
	warned := 0
	orders := &stubOrderRepo{setVerifiedFn: func(_ uuid.UUID, v bool) error {
		if v {
			t.Fatalf("mismatching slip must not verify")
		}
		return nil
	}}
	logs := &stubSystemLogRepo{createFn: func(entries []*types.SystemLog) ([]*types.SystemLog, error) {
		warned++
		if len(entries) != 1 || entries[0].Level != types.LogLevelWarn {
			t.Fatalf("expected one WARN entry, got %+v", entries)
		}
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{}, orders, &stubBlacklistRepo{}, logs)

	verified, err := fs.ApplyVerdict(ctx, nil, uuid.New(), 80, &SlipAnalysis{
		ExtractedAmount: 40,
		AmountMatches:   false,
		FraudScore:      10,
		Reasoning:       "amount edited",
	})
	if err != nil {
		t.Fatalf("ApplyVerdict: %v", err)
	}
	if verified {
		t.Fatalf("expected verified=false")
	}
	if warned != 1 {
		t.Fatalf("expected exactly one warning log, got %d", warned)
	}
}

func TestApplyVerdict_HighScoreBlocksVerification(t *testing.T) {
	ctx := context.Background()
	warned := 0
	logs := &stubSystemLogRepo{createFn: func(entries []*types.SystemLog) ([]*types.SystemLog, error) {
		warned++
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{}, &stubOrderRepo{setVerifiedFn: func(uuid.UUID, bool) error { return nil }}, &stubBlacklistRepo{}, logs)

	verified, err := fs.ApplyVerdict(ctx, nil, uuid.New(), 100, &SlipAnalysis{
		ExtractedAmount: 100,
		AmountMatches:   true,
		FraudScore:      60,
	})
	if err != nil {
		t.Fatalf("ApplyVerdict: %v", err)
	}
	if verified {
		t.Fatalf("score 60 must not verify")
	}
	if warned != 1 {
		t.Fatalf("score above warn threshold must log, warned=%d", warned)
	}
}

func TestApplyVerdict_MidScoreUnverifiedWithoutWarning(t *testing.T) {
	// Score 30 sits between the verify bound and the warn bound: the order
	// stays unverified but no warning row is written.
	ctx := context.Background()
	logs := &stubSystemLogRepo{createFn: func(entries []*types.SystemLog) ([]*types.SystemLog, error) {
		t.Fatalf("no warning expected for score 30 with matching amount")
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{}, &stubOrderRepo{setVerifiedFn: func(uuid.UUID, bool) error { return nil }}, &stubBlacklistRepo{}, logs)

	verified, err := fs.ApplyVerdict(ctx, nil, uuid.New(), 50, &SlipAnalysis{
		ExtractedAmount: 50,
		AmountMatches:   true,
		FraudScore:      30,
	})
	if err != nil {
		t.Fatalf("ApplyVerdict: %v", err)
	}
	if verified {
		t.Fatalf("expected verified=false for score 30")
	}
}

func TestCheckUser_VelocityViolationShadowBans(t *testing.T) {
	ctx := context.Background()
	var created *types.BlacklistEntry
	blacklist := &stubBlacklistRepo{createFn: func(entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error) {
		created = entries[0]
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{count: 4}, &stubOrderRepo{}, blacklist, &stubSystemLogRepo{})

	banned, err := fs.CheckUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CheckUser: %v", err)
	}
	if !banned {
		t.Fatalf("fourth order inside the window must shadow-ban")
	}
	if created == nil || !created.ShadowBanned {
		t.Fatalf("expected a shadow-ban blacklist entry, got %+v", created)
	}
}

func TestCheckUser_AtLimitIsAllowed(t *testing.T) {
	ctx := context.Background()
	blacklist := &stubBlacklistRepo{createFn: func(entries []*types.BlacklistEntry) ([]*types.BlacklistEntry, error) {
		t.Fatalf("three orders per minute is within the limit")
		return entries, nil
	}}
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{count: 3}, &stubOrderRepo{}, blacklist, &stubSystemLogRepo{})

	banned, err := fs.CheckUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CheckUser: %v", err)
	}
	if banned {
		t.Fatalf("expected banned=false at the limit")
	}
}

func TestCheckUser_CounterOutageDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{err: context.DeadlineExceeded}, &stubOrderRepo{}, &stubBlacklistRepo{}, &stubSystemLogRepo{})

	banned, err := fs.CheckUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CheckUser with counter outage: %v", err)
	}
	if banned {
		t.Fatalf("counter outage must fall through to the blacklist check")
	}
}

func TestAnalyzeSlip_WrapsModelFailure(t *testing.T) {
	ctx := context.Background()
	fs := newTestFraudService(&fakeInvoker{}, &stubVelocity{}, &stubOrderRepo{}, &stubBlacklistRepo{}, &stubSystemLogRepo{})

	_, err := fs.AnalyzeSlip(ctx, 100, ai.ImagePart{MIMEType: "image/png", Data: []byte{1}})
	if err == nil || !IsModelFailure(err) {
		t.Fatalf("expected a model-family error, got %v", err)
	}
}
