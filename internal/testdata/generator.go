// Package testdata seeds the local sqlite store with plausible sample
// accounts and transactions for demos and manual testing.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store/sqlite"
)

type merchantProfile struct {
	name     string
	raw      string
	category string
	minCents int64
	maxCents int64
}

// Expense amounts are positive, income negative (inflow-negative
// convention throughout).
var merchants = []merchantProfile{
	{"Uber Eats", "UBER EATS* SUSHI HOUSE", "Food and Drink", 1800, 6500},
	{"Amazon", "AMAZON.COM*K28XJ41", "Shopping", 900, 22000},
	{"Whole Foods", "WHOLEFDS MKT 10293", "Groceries", 3200, 18500},
	{"Spotify", "SPOTIFY P21E88", "Entertainment", 1099, 1099},
	{"Shell", "SHELL OIL 57442889", "Transportation", 2500, 9000},
	{"Blue Cross", "BCBS PREMIUM ACH", "Insurance", 42000, 42000},
	{"Staples", "STAPLES #1182", "Office Supplies", 1200, 15000},
	{"AWS", "AMAZON WEB SERVICES", "Software", 4300, 31000},
}

var incomes = []merchantProfile{
	{"Acme Corp", "ACME CORP PAYROLL", "Revenue", 180000, 420000},
	{"Stripe", "STRIPE TRANSFER", "Revenue", 25000, 160000},
}

// Seed writes two accounts, a pair of tags and six months of
// transactions for the given entity into the store.
func Seed(ctx context.Context, s *sqlite.Store, entityID, tenantID string) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	checkingBalance := int64(824519)
	checking := ledger.Account{
		ID:                  uuid.NewString(),
		PlaidAccountID:      "plaid-" + uuid.NewString()[:8],
		Name:                "Business Checking",
		Institution:         "First National",
		Type:                ledger.AccountDepository,
		CurrentBalanceCents: &checkingBalance,
	}
	cardBalance := int64(131207)
	card := ledger.Account{
		ID:                  uuid.NewString(),
		PlaidAccountID:      "plaid-" + uuid.NewString()[:8],
		Name:                "Business Card",
		Institution:         "First National",
		Type:                ledger.AccountCredit,
		CurrentBalanceCents: &cardBalance,
	}
	for _, a := range []ledger.Account{checking, card} {
		if err := s.UpsertAccount(ctx, entityID, a); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Name, err)
		}
	}

	deductible := ledger.Tag{ID: uuid.NewString(), Name: "deductible"}
	recurring := ledger.Tag{ID: uuid.NewString(), Name: "recurring"}
	for _, tg := range []ledger.Tag{deductible, recurring} {
		if err := s.UpsertTag(ctx, tg); err != nil {
			return fmt.Errorf("seed tag %s: %w", tg.Name, err)
		}
	}

	now := time.Now().UTC()
	for month := 0; month < 6; month++ {
		for _, inc := range incomes {
			t := sampleTransaction(rng, inc, entityID, tenantID, checking.ID, now, month)
			t.AmountCents = -t.AmountCents
			if err := s.InsertTransaction(ctx, t); err != nil {
				return fmt.Errorf("seed income: %w", err)
			}
		}
		for i := 0; i < 12+rng.Intn(10); i++ {
			prof := merchants[rng.Intn(len(merchants))]
			acct := checking.ID
			if rng.Intn(2) == 0 {
				acct = card.ID
			}
			t := sampleTransaction(rng, prof, entityID, tenantID, acct, now, month)
			if err := s.InsertTransaction(ctx, t); err != nil {
				return fmt.Errorf("seed expense: %w", err)
			}
			switch {
			case prof.category == "Software" || prof.category == "Office Supplies":
				_ = s.AttachTag(ctx, t.ID, deductible.ID)
			case prof.minCents == prof.maxCents:
				_ = s.AttachTag(ctx, t.ID, recurring.ID)
			}
		}
	}
	return nil
}

func sampleTransaction(rng *rand.Rand, prof merchantProfile, entityID, tenantID, accountID string, now time.Time, monthsBack int) ledger.Transaction {
	span := prof.maxCents - prof.minCents
	amount := prof.minCents
	if span > 0 {
		amount += rng.Int63n(span)
	}
	day := now.AddDate(0, -monthsBack, -rng.Intn(28)).Format("2006-01-02")
	name := prof.name
	return ledger.Transaction{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		EntityID:       entityID,
		TenantID:       tenantID,
		AmountCents:    amount,
		Date:           day,
		MerchantName:   &name,
		RawDescription: prof.raw,
		CategoryPath:   &ledger.CategoryPath{Primary: prof.category},
		ReviewStatus:   ledger.ReviewNone,
	}
}
