package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-media-service/entity"
)

func TestAssociateFirstLinkIsPrimary(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1"})
	f.upload(t, UploadInput{FileKey: "m2"})

	first, err := f.svc.Associate(ctx, AssociateInput{MediaID: "m1", EntityID: "g1", EntityType: entity.EntityTypeGrazingArea})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, 0, first.DisplayOrder)

	second, err := f.svc.Associate(ctx, AssociateInput{MediaID: "m2", EntityID: "g1", EntityType: entity.EntityTypeGrazingArea})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
	assert.Equal(t, 1, second.DisplayOrder)

	again, err := f.svc.Associate(ctx, AssociateInput{MediaID: "m1", EntityID: "g1", EntityType: entity.EntityTypeGrazingArea, IsPrimary: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsPrimary)
}

func TestAssociateExplicitFlags(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1"})
	f.upload(t, UploadInput{FileKey: "m2"})

	link, err := f.svc.Associate(ctx, AssociateInput{MediaID: "m1", EntityID: "h1", EntityType: entity.EntityTypeHousehold, IsPrimary: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, link.IsPrimary)

	promoted, err := f.svc.Associate(ctx, AssociateInput{MediaID: "m2", EntityID: "h1", EntityType: entity.EntityTypeHousehold, IsPrimary: boolPtr(true), DisplayOrder: intPtr(7)})
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary)
	assert.Equal(t, 7, promoted.DisplayOrder)
}

func TestAssociateErrors(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.Associate(ctx, AssociateInput{MediaID: "ghost", EntityID: "e1", EntityType: entity.EntityTypeSchool})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.svc.Associate(ctx, AssociateInput{MediaID: "m1", EntityID: "e1", EntityType: "school"})
	assert.True(t, IsKind(err, KindInvalidFormat))
}

func TestSetPrimaryMovesFlag(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1", EntityID: "e1", EntityType: entity.EntityTypeSchool})
	f.upload(t, UploadInput{FileKey: "m2", EntityID: "e1", EntityType: entity.EntityTypeSchool})

	record, err := f.svc.SetPrimary(ctx, "m1", "e1", entity.EntityTypeSchool, "user-2")
	require.NoError(t, err)
	assert.True(t, record.IsPrimary)
	assert.Equal(t, "m1", record.ID)
	require.NotNil(t, record.FileURL)

	records, err := f.svc.ListByEntity(ctx, "e1", entity.EntityTypeSchool)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].ID)
	assert.True(t, records[0].IsPrimary)
	assert.Equal(t, "m2", records[1].ID)
	assert.False(t, records[1].IsPrimary)
}

func TestSetPrimaryUnknownLinkClearsPrimary(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1", EntityID: "e1", EntityType: entity.EntityTypeSchool})
	f.upload(t, UploadInput{FileKey: "m3"})

	_, err := f.svc.SetPrimary(ctx, "m3", "e1", entity.EntityTypeSchool, "user-2")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))

	primaries, err := f.repo.EntityMediaRepo.CountPrimaryByEntity(ctx, "e1", entity.EntityTypeSchool)
	require.NoError(t, err)
	assert.Zero(t, primaries)
}

func TestListByEntityOrdersByDisplayOrder(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for i, order := range []int{5, 1, 3} {
		f.upload(t, UploadInput{
			FileKey:      fmt.Sprintf("m%d", i),
			EntityID:     "b1",
			EntityType:   entity.EntityTypeBusiness,
			IsPrimary:    boolPtr(i == 0),
			DisplayOrder: intPtr(order),
		})
	}
	f.store.failPresign["media/m2.png"] = true

	records, err := f.svc.ListByEntity(ctx, "b1", entity.EntityTypeBusiness)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"m0", "m1", "m2"}, []string{records[0].ID, records[1].ID, records[2].ID})
	assert.True(t, records[0].IsPrimary)
	assert.Equal(t, entity.EntityTypeBusiness, *records[2].EntityType)

	empty, err := f.svc.ListByEntity(ctx, "nobody", entity.EntityTypeBusiness)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUnlinkKeepsMedia(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1", EntityID: "e1", EntityType: entity.EntityTypeSchool})
	f.upload(t, UploadInput{FileKey: "m2", EntityID: "e1", EntityType: entity.EntityTypeSchool})

	require.NoError(t, f.svc.Unlink(ctx, "m2", "e1", entity.EntityTypeSchool, "user-1"))

	records, err := f.svc.ListByEntity(ctx, "e1", entity.EntityTypeSchool)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].ID)
	assert.False(t, records[0].IsPrimary, "no promotion by default")
	assert.Equal(t, int64(1), f.countRows(t, &entity.Media{}, "id = ?", "m2"))

	err = f.svc.Unlink(ctx, "m2", "e1", entity.EntityTypeSchool, "user-1")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUnlinkPromotesNext(t *testing.T) {
	f := newFixture(t, Options{UnlinkPromotion: UnlinkPromotionNext})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "m1", EntityID: "e1", EntityType: entity.EntityTypeSchool, DisplayOrder: intPtr(2)})
	f.upload(t, UploadInput{FileKey: "m2", EntityID: "e1", EntityType: entity.EntityTypeSchool, IsPrimary: boolPtr(false), DisplayOrder: intPtr(1)})
	f.upload(t, UploadInput{FileKey: "m3", EntityID: "e1", EntityType: entity.EntityTypeSchool, DisplayOrder: intPtr(0)})

	require.NoError(t, f.svc.Unlink(ctx, "m3", "e1", entity.EntityTypeSchool, "user-1"))

	records, err := f.svc.ListByEntity(ctx, "e1", entity.EntityTypeSchool)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m2", records[0].ID)
	assert.True(t, records[0].IsPrimary)
	assert.False(t, records[1].IsPrimary)
}

func TestReorder(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		f.upload(t, UploadInput{FileKey: id, EntityID: "s1", EntityType: entity.EntityTypeSurvey, IsPrimary: boolPtr(false)})
	}

	records, err := f.svc.Reorder(ctx, "s1", entity.EntityTypeSurvey, []string{"c", "a", "b"}, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{records[0].ID, records[1].ID, records[2].ID})

	_, err = f.svc.Reorder(ctx, "s1", entity.EntityTypeSurvey, []string{"b", "ghost"}, "user-1")
	assert.True(t, IsKind(err, KindNotFound))

	records, err = f.svc.ListByEntity(ctx, "s1", entity.EntityTypeSurvey)
	require.NoError(t, err)
	assert.Equal(t, "c", records[0].ID, "failed reorder is rolled back")

	_, err = f.svc.Reorder(ctx, "s1", entity.EntityTypeSurvey, []string{"a", "a"}, "user-1")
	assert.True(t, IsKind(err, KindInvalidFormat))
}

func TestConcurrentWritesKeepSinglePrimary(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.upload(t, UploadInput{FileKey: "base", EntityID: "r1", EntityType: entity.EntityTypeReligiousSite})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Upload(ctx, UploadInput{
				FileName:    "p.png",
				FileKey:     fmt.Sprintf("m%d", i),
				FileContent: pngDataURL(),
				EntityID:    "r1",
				EntityType:  entity.EntityTypeReligiousSite,
			})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := f.svc.SetPrimary(ctx, "base", "r1", entity.EntityTypeReligiousSite, "user-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	primaries, err := f.repo.EntityMediaRepo.CountPrimaryByEntity(ctx, "r1", entity.EntityTypeReligiousSite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), primaries)
	assert.Equal(t, int64(9), f.countRows(t, &entity.EntityMedia{}, "entity_id = ?", "r1"))
}
