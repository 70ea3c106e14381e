package classifieds

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/logging"
	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/transfer"
	"github.com/loopmarket/loopmarket/internal/wallet"
)

func newTestService(t *testing.T) (*Service, *wallet.Service, ledger.Store) {
	t.Helper()
	store := ledger.NewMemoryStore()
	engine := transfer.NewEngine(store, nil, logging.Discard())
	wallets := wallet.NewService(store, engine, wallet.Options{
		Policy:       wallet.FeePolicy{Fee: money.FromMajor(10), PlatformOwnerID: uuid.NewString()},
		SeedBalance:  money.FromMajor(1000),
		Currency:     "LooP",
		BaseCurrency: "INR",
		ExchangeRate: decimal.NewFromInt(1),
	}, nil, logging.Discard())
	if err := wallets.EnsurePlatformWallet(context.Background()); err != nil {
		t.Fatalf("ensure platform wallet: %v", err)
	}
	svc := NewService(NewMemoryStore(), wallets, NewStaticIssuer("https://media.test"), logging.Discard())
	return svc, wallets, store
}

func validInput(owner string) PostInput {
	return PostInput{
		OwnerID:     owner,
		Title:       "Mountain bike",
		Description: "Hardly used, good brakes",
		Category:    "sports",
		Location:    "Pune",
		Phone:       "+91 98765 43210",
		MediaCount:  3,
	}
}

func TestPostChargesFeeAndStoresAd(t *testing.T) {
	svc, wallets, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.NewString()

	res, err := svc.Post(ctx, validInput(owner))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !res.NewBalance.Equal(money.FromMajor(990)) {
		t.Fatalf("expected balance 990.00 after fee, got %s", res.NewBalance)
	}
	if res.Ad.ID == "" || res.Ad.Status != StatusActive {
		t.Fatalf("unexpected ad %+v", res.Ad)
	}
	if !res.Ad.PostingFee.Equal(money.FromMajor(10)) {
		t.Fatalf("expected posting fee 10.00, got %s", res.Ad.PostingFee)
	}
	if len(res.Uploads) != 3 {
		t.Fatalf("expected 3 upload handles, got %d", len(res.Uploads))
	}

	w, err := wallets.GetOrCreate(ctx, owner)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	records, err := wallets.Transactions(ctx, owner)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 debit record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != ledger.TypeDebit || rec.ReferenceType != ledger.ReferenceClassified || rec.ReferenceID != res.Ad.ID {
		t.Fatalf("unexpected debit record %+v", rec)
	}
	if rec.WalletID != w.ID {
		t.Fatalf("record for wrong wallet: %s", rec.WalletID)
	}
}

func TestPostRejectsInvalidSubmissions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*PostInput)
	}{
		{"missing title", func(in *PostInput) { in.Title = "  " }},
		{"missing description", func(in *PostInput) { in.Description = "" }},
		{"short phone", func(in *PostInput) { in.Phone = "12345" }},
		{"negative price", func(in *PostInput) {
			p := decimal.NewFromInt(-5)
			in.Price = &p
		}},
		{"too many media", func(in *PostInput) { in.MediaCount = MaxMediaPerAd + 1 }},
	}
	for _, tc := range cases {
		in := validInput(uuid.NewString())
		tc.mutate(&in)
		if _, err := svc.Post(ctx, in); !errors.Is(err, ErrInvalidAd) {
			t.Fatalf("%s: expected ErrInvalidAd, got %v", tc.name, err)
		}
	}
}

func TestPostInsufficientFundsStoresNothing(t *testing.T) {
	svc, wallets, store := newTestService(t)
	ctx := context.Background()
	owner := uuid.NewString()

	w, err := wallets.GetOrCreate(ctx, owner)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	ledger.SeedBalance(store, w.ID, money.FromMajor(5))

	if _, err := svc.Post(ctx, validInput(owner)); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	ads, err := svc.Mine(ctx, owner)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(ads) != 0 {
		t.Fatalf("expected no ads, got %d", len(ads))
	}
	after, err := wallets.GetOrCreate(ctx, owner)
	if err != nil {
		t.Fatalf("wallet after: %v", err)
	}
	if !after.Balance.Equal(money.FromMajor(5)) {
		t.Fatalf("balance changed to %s", after.Balance)
	}
}

func TestListFiltersByCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := validInput(uuid.NewString())
	first.Category = "sports"
	if _, err := svc.Post(ctx, first); err != nil {
		t.Fatalf("post: %v", err)
	}
	second := validInput(uuid.NewString())
	second.Title = "Office chair"
	second.Category = "furniture"
	if _, err := svc.Post(ctx, second); err != nil {
		t.Fatalf("post: %v", err)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(all))
	}

	furniture, err := svc.List(ctx, "furniture")
	if err != nil {
		t.Fatalf("list furniture: %v", err)
	}
	if len(furniture) != 1 || furniture[0].Title != "Office chair" {
		t.Fatalf("unexpected category filter result %+v", furniture)
	}
}

func TestAttachMediaIsOwnerScoped(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.NewString()

	res, err := svc.Post(ctx, validInput(owner))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	urls := []string{"https://media.test/classifieds/a/b/media_0"}
	types := []string{"image/jpeg"}

	if err := svc.AttachMedia(ctx, res.Ad.ID, uuid.NewString(), urls, types); !errors.Is(err, ErrAdNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
	if err := svc.AttachMedia(ctx, res.Ad.ID, owner, urls, types); err != nil {
		t.Fatalf("attach media: %v", err)
	}

	ads, err := svc.Mine(ctx, owner)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(ads) != 1 || len(ads[0].MediaURLs) != 1 || ads[0].MediaTypes[0] != "image/jpeg" {
		t.Fatalf("media not recorded: %+v", ads)
	}
}

func TestAttachMediaRejectsMismatchedTypes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.NewString()

	res, err := svc.Post(ctx, validInput(owner))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	err = svc.AttachMedia(ctx, res.Ad.ID, owner, []string{"a", "b"}, []string{"image/png"})
	if !errors.Is(err, ErrInvalidAd) {
		t.Fatalf("expected ErrInvalidAd, got %v", err)
	}
}

func TestStaticIssuerCapsHandles(t *testing.T) {
	issuer := NewStaticIssuer("https://media.test")
	handles, err := issuer.IssueUploads(context.Background(), "owner", "ad", MaxMediaPerAd+5)
	if err != nil {
		t.Fatalf("issue uploads: %v", err)
	}
	if len(handles) != MaxMediaPerAd {
		t.Fatalf("expected %d handles, got %d", MaxMediaPerAd, len(handles))
	}
	if handles[0].Key != "classifieds/owner/ad/media_0" {
		t.Fatalf("unexpected key %s", handles[0].Key)
	}
}
