package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/repository"
)

type MockDirectorySource struct {
	mock.Mock
}

func (m *MockDirectorySource) LoadContacts(ctx context.Context) (map[string]domain.RawContact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.RawContact), args.Error(1)
}

func (m *MockDirectorySource) LoadContactGroups(ctx context.Context) (map[string][]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]string), args.Error(1)
}

func TestLoadDirectory(t *testing.T) {
	t.Run("builds validated directory", func(t *testing.T) {
		src := new(MockDirectorySource)
		src.On("LoadContacts", mock.Anything).Return(map[string]domain.RawContact{"a": {PhoneNumber: "+1555"}}, nil).Once()
		src.On("LoadContactGroups", mock.Anything).Return(map[string][]string{"g": {"a"}}, nil).Once()

		dir, err := repository.LoadDirectory(context.Background(), src)
		require.NoError(t, err)
		_, ok := dir.Group("g")
		assert.True(t, ok)
		src.AssertExpectations(t)
	})

	t.Run("propagates validation errors", func(t *testing.T) {
		src := new(MockDirectorySource)
		src.On("LoadContacts", mock.Anything).Return(map[string]domain.RawContact{"a": {PhoneNumber: "+1555"}}, nil).Once()
		src.On("LoadContactGroups", mock.Anything).Return(map[string][]string{"g": {"b"}}, nil).Once()

		_, err := repository.LoadDirectory(context.Background(), src)
		assert.ErrorIs(t, err, domain.ErrUnknownMember)
	})

	t.Run("propagates source errors", func(t *testing.T) {
		src := new(MockDirectorySource)
		src.On("LoadContacts", mock.Anything).Return(nil, errors.New("disk on fire")).Once()

		_, err := repository.LoadDirectory(context.Background(), src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading contacts: disk on fire")
		src.AssertNotCalled(t, "LoadContactGroups", mock.Anything)
	})
}
