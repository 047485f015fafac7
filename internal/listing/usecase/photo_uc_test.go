package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreAll_KeepsUploadOrderUnderFanOut(t *testing.T) {
	store := new(MockContentStore)
	uc := NewPhotoUsecase(store, metrics.NewMetricsManager("test"), logger.NewNop())

	var uploads []domain.Upload
	var want []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("f%d.jpg", i)
		uploads = append(uploads, upload(name))
		want = append(want, "photos/"+name)
		store.On("Put", mock.Anything, mock.Anything, name).Return("photos/"+name, nil)
	}

	keys, err := uc.StoreAll(context.Background(), uploads)

	require.NoError(t, err)
	assert.Equal(t, want, keys)
}

func TestStoreAll_Empty(t *testing.T) {
	uc := NewPhotoUsecase(new(MockContentStore), metrics.NewMetricsManager("test"), logger.NewNop())

	keys, err := uc.StoreAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, keys)
}

func TestPurge_ContinuesPastFailures(t *testing.T) {
	store := new(MockContentStore)
	uc := NewPhotoUsecase(store, metrics.NewMetricsManager("test"), logger.NewNop())
	boom := errors.New("boom")
	store.On("Delete", mock.Anything, "a").Return(boom)
	store.On("Delete", mock.Anything, "b").Return(nil)
	store.On("Delete", mock.Anything, "c").Return(boom)

	failures := uc.Purge(context.Background(), []string{"a", "b", "c"})

	require.Len(t, failures, 2)
	assert.Equal(t, "a", failures[0].Key)
	assert.Equal(t, "c", failures[1].Key)
	assert.ErrorIs(t, failures[0].Err, boom)
	store.AssertNumberOfCalls(t, "Delete", 3)
}
