package services

import (
	"context"
	"sync"
	"testing"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	*fixture
	publisher *models.Account
	owner     *models.Account
	category  *models.Category
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := newFixture(t)

	category, err := f.catalog.Create(context.Background(), "Excellence Award")
	require.NoError(t, err)

	return &ledgerFixture{
		fixture:   f,
		publisher: f.activeAccount(t, publisherRequest("pub@x.com")),
		owner:     f.activeAccount(t, ownerRequest("b@x.com")),
		category:  category,
	}
}

func (f *ledgerFixture) request() PublishRequest {
	return PublishRequest{
		FileName:       "award.png",
		Category:       "excellence-award",
		RecipientEmail: "b@x.com",
		FileRef:        "certificates/2024/5/1/award.png",
		PublisherID:    f.publisher.ID,
	}
}

func (f *ledgerFixture) publish(t *testing.T) *models.Certificate {
	t.Helper()
	cert, err := f.ledger.Publish(context.Background(), f.request())
	require.NoError(t, err)
	return cert
}

// Publish and verify publicly without an identity.
func TestScenarioC_PublishAndVerify(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	cert := f.publish(t)

	assert.Len(t, cert.CertificateID, CertificateIDLength)
	assert.False(t, cert.IsClaimed)
	assert.Nil(t, cert.ClaimedAt)
	require.NotNil(t, cert.CategoryID)
	assert.Equal(t, f.category.ID, *cert.CategoryID)
	assert.Equal(t, "Excellence Award", cert.CategoryName)
	assert.Equal(t, "excellence-award", cert.CategorySlug)
	assert.Equal(t, f.owner.ID, cert.RecipientID)
	assert.Equal(t, "Ada Lovelace", cert.RecipientName)
	assert.Equal(t, "b@x.com", cert.RecipientEmail)
	assert.Equal(t, f.publisher.ID, cert.PublisherID)
	assert.Equal(t, 1, f.recorder.get("published"))

	public, err := f.ledger.VerifyPublic(ctx, cert.CertificateID)
	require.NoError(t, err)

	want := cert.Public()
	want.FileURL = "https://files.example.com/" + cert.FileRef
	assert.Equal(t, &want, public)
}

func TestPublish_CategoryByID(t *testing.T) {
	f := newLedgerFixture(t)

	req := f.request()
	req.Category = f.category.ID

	cert, err := f.ledger.Publish(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "excellence-award", cert.CategorySlug)
}

func TestPublish_Errors(t *testing.T) {
	f := newLedgerFixture(t)

	tests := []struct {
		name    string
		mutate  func(*PublishRequest)
		wantErr error
	}{
		{"missing file name", func(r *PublishRequest) { r.FileName = "" }, common.ErrValidation},
		{"missing category", func(r *PublishRequest) { r.Category = "" }, common.ErrValidation},
		{"missing recipient", func(r *PublishRequest) { r.RecipientEmail = "" }, common.ErrValidation},
		{"missing file", func(r *PublishRequest) { r.FileRef = "" }, common.ErrValidation},
		{"unknown slug", func(r *PublishRequest) { r.Category = "no-such" }, common.ErrCategoryNotFound},
		{"unknown id", func(r *PublishRequest) { r.Category = uuid.NewString() }, common.ErrCategoryNotFound},
		{"unknown recipient", func(r *PublishRequest) { r.RecipientEmail = "ghost@x.com" }, common.ErrRecipientNotFound},
		{"recipient is not an owner", func(r *PublishRequest) { r.RecipientEmail = "pub@x.com" }, common.ErrRecipientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request()
			tt.mutate(&req)

			_, err := f.ledger.Publish(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, f.recorder.get("published"))
}

func TestPublish_RetriesOnIDCollision(t *testing.T) {
	f := newLedgerFixture(t)
	first := f.publish(t)

	ids := []string{first.CertificateID, first.CertificateID, "fresh-id"}
	f.ledger.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	cert := f.publish(t)
	assert.Equal(t, "fresh-id", cert.CertificateID)
	assert.Equal(t, 2, f.recorder.get("id_retry"))
}

func TestPublish_IDGenerationExhausted(t *testing.T) {
	f := newLedgerFixture(t)
	first := f.publish(t)

	calls := 0
	f.ledger.newID = func() (string, error) {
		calls++
		return first.CertificateID, nil
	}

	_, err := f.ledger.Publish(context.Background(), f.request())
	assert.ErrorIs(t, err, common.ErrIDGenerationExhausted)
	assert.Equal(t, 5, calls)
}

func TestPublish_IDGeneratorError(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.newID = func() (string, error) { return "", errBoom{} }

	_, err := f.ledger.Publish(context.Background(), f.request())
	assert.ErrorIs(t, err, errBoom{})
}

func TestClaim(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	cert := f.publish(t)

	claimed, err := f.ledger.Claim(ctx, cert.CertificateID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, claimed.IsClaimed)
	assert.NotNil(t, claimed.ClaimedAt)
	assert.Equal(t, 1, f.recorder.get("claim:"+metrics.ResultSuccess))
}

// A second claim fails and leaves the certificate claimed.
func TestScenarioD_ClaimTwice(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	cert := f.publish(t)

	first, err := f.ledger.Claim(ctx, cert.CertificateID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.ledger.Claim(ctx, cert.CertificateID, f.owner.ID)
	assert.ErrorIs(t, err, common.ErrAlreadyClaimed)

	stored, err := f.ledger.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsClaimed)
	assert.Equal(t, first.ClaimedAt, stored.ClaimedAt)
	assert.Equal(t, 1, f.recorder.get("claim:"+metrics.ResultClaimed))
}

func TestClaim_Errors(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	cert := f.publish(t)

	_, err := f.ledger.Claim(ctx, cert.CertificateID, f.publisher.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, 1, f.recorder.get("claim:"+metrics.ResultDenied))

	_, err = f.ledger.Claim(ctx, "unknown", f.owner.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	stored, err := f.ledger.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsClaimed)
}

func TestClaim_ConcurrentExactlyOneWins(t *testing.T) {
	f := newLedgerFixture(t)
	cert := f.publish(t)

	const n = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.ledger.Claim(context.Background(), cert.CertificateID, f.owner.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, common.ErrAlreadyClaimed):
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, rejected)
}

func TestGet(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	cert := f.publish(t)

	got, err := f.ledger.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateID, got.CertificateID)

	_, err = f.ledger.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.ledger.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByCategorySlug(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Create(ctx, "Workshop")
	require.NoError(t, err)

	a := f.publish(t)
	b := f.publish(t)

	list, err := f.ledger.ListByCategorySlug(ctx, "excellence-award")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{list[0].ID, list[1].ID})

	empty, err := f.ledger.ListByCategorySlug(ctx, "workshop")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.ledger.ListByCategorySlug(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrCategoryNotFound)
}

func TestListByRecipient(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	cert := f.publish(t)

	mine, err := f.ledger.ListByRecipient(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, cert.ID, mine[0].ID)

	none, err := f.ledger.ListByRecipient(ctx, f.publisher.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVerifyPublic(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	cert := f.publish(t)

	t.Run("locator failure leaves url empty", func(t *testing.T) {
		f.locator.err = errBoom{}
		defer func() { f.locator.err = nil }()

		public, err := f.ledger.VerifyPublic(ctx, cert.CertificateID)
		require.NoError(t, err)
		assert.Empty(t, public.FileURL)
		assert.Equal(t, "Ada Lovelace", public.RecipientName)
	})

	t.Run("no locator", func(t *testing.T) {
		f.ledger.files = nil
		public, err := f.ledger.VerifyPublic(ctx, cert.CertificateID)
		require.NoError(t, err)
		assert.Empty(t, public.FileURL)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := f.ledger.VerifyPublic(ctx, "unknown")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
