package services

import (
	"context"
	"testing"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.catalog.Create(ctx, "  Excellence Award ")
	require.NoError(t, err)
	assert.Equal(t, "Excellence Award", category.Name)
	assert.Equal(t, "excellence-award", category.Slug)

	bySlug, err := f.catalog.GetBySlug(ctx, "excellence-award")
	require.NoError(t, err)
	assert.Equal(t, category.ID, bySlug.ID)

	byID, err := f.catalog.Get(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Excellence Award", byID.Name)
}

func TestCatalog_CreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Create(ctx, "Web Development")
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"same name", "Web Development", common.ErrDuplicateCategory},
		{"same slug", "web development!", common.ErrDuplicateCategory},
		{"blank", "   ", common.ErrValidation},
		{"no slug", "!!!", common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalog_ListOrderedByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Workshop", "Appreciation", "Excellence Award"} {
		_, err := f.catalog.Create(ctx, name)
		require.NoError(t, err)
	}

	list, err := f.catalog.List(ctx)
	require.NoError(t, err)

	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Appreciation", "Excellence Award", "Workshop"}, names)
}

func TestCatalog_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.catalog.Create(ctx, "Workshp")
	require.NoError(t, err)
	other, err := f.catalog.Create(ctx, "Seminar")
	require.NoError(t, err)

	updated, err := f.catalog.Update(ctx, category.ID, "Workshop")
	require.NoError(t, err)
	assert.Equal(t, "workshop", updated.Slug)

	same, err := f.catalog.Update(ctx, category.ID, "Workshop")
	require.NoError(t, err)
	assert.Equal(t, updated.Slug, same.Slug)

	_, err = f.catalog.Update(ctx, other.ID, "workshop")
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)

	_, err = f.catalog.Update(ctx, uuid.NewString(), "Anything")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.catalog.Update(ctx, "not-a-uuid", "Anything")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.catalog.Update(ctx, category.ID, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCatalog_DeleteKeepsCertificateSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	publisher := f.activeAccount(t, publisherRequest("pub@x.com"))
	f.activeAccount(t, ownerRequest("b@x.com"))

	category, err := f.catalog.Create(ctx, "Excellence Award")
	require.NoError(t, err)

	cert, err := f.ledger.Publish(ctx, PublishRequest{
		FileName:       "award.png",
		Category:       category.ID,
		RecipientEmail: "b@x.com",
		FileRef:        "certificates/award.png",
		PublisherID:    publisher.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.catalog.Delete(ctx, category.ID))

	_, err = f.catalog.Get(ctx, category.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	stored, err := f.ledger.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)
	assert.Equal(t, "Excellence Award", stored.CategoryName)
	assert.Equal(t, "excellence-award", stored.CategorySlug)

	assert.ErrorIs(t, f.catalog.Delete(ctx, category.ID), common.ErrorNotFound)
	assert.ErrorIs(t, f.catalog.Delete(ctx, "bogus"), common.ErrorNotFound)
}
