package resetpassword

import (
	"context"
	"errors"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/logging"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	TOKEN        = user.PasswordResetToken("token-1")
	NEW_PASSWORD = user.RawPassword("new-secret")
)

var NOW time.Time = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	Logger           *logging.FakeLogger
	UserRepository   *user.FakeUserRepository
	PasswordHasher   *user.FakePasswordHasher
	PasswordResetter *user.FakePasswordResetter
	Now              time.Time
	Service          services.Service[Input, Result]
	User             user.User
}

func (suite *testSuite) SetupTest() {
	suite.Logger = logging.NewFakeLogger()
	suite.UserRepository = user.NewFakeUserRepository()
	suite.PasswordHasher = user.NewFakePasswordHasher()
	suite.PasswordResetter = user.NewFakePasswordResetter()
	suite.Now = NOW
	suite.Service = New(
		suite.Logger,
		suite.UserRepository,
		suite.PasswordHasher,
		suite.PasswordResetter,
		func() time.Time { return suite.Now },
	)

	ctx := context.Background()
	oldHash, err := suite.PasswordHasher.HashPassword("old-secret")
	suite.Require().Nil(err)
	suite.User, err = suite.UserRepository.Create(ctx, user.CreateUserInput{
		Name:         "Alice",
		Email:        c.Email("alice@x.com"),
		PasswordHash: oldHash,
		CreatedAt:    NOW,
	})
	suite.Require().Nil(err)
	err = suite.UserRepository.SetPasswordReset(ctx, user.SetPasswordResetInput{
		UserID: suite.User.ID,
		PasswordReset: user.PasswordReset{
			TokenHash: suite.PasswordResetter.HashToken(TOKEN),
			ExpiresAt: NOW.Add(15 * time.Minute),
		},
	})
	suite.Require().Nil(err)
}

func TestResetPasswordService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) storedUser() user.User {
	u, err := suite.UserRepository.GetByID(context.Background(), suite.User.ID)
	suite.Require().Nil(err)
	return u
}

func (suite *testSuite) TestSuccess() {
	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})

	assert := suite.Require()
	assert.Nil(err)
	u := suite.storedUser()
	assert.False(u.PasswordReset.IsPresent)
	ok, err := suite.PasswordHasher.VerifyPassword(NEW_PASSWORD, u.PasswordHash)
	assert.Nil(err)
	assert.True(ok)
	assert.False(suite.Logger.Mentions(string(TOKEN)))
	assert.False(suite.Logger.Mentions(string(NEW_PASSWORD)))
}

func (suite *testSuite) TestReuseIsRejected() {
	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})
	suite.Require().Nil(err)

	_, err = suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: "another-secret"})

	assert := suite.Require()
	assert.ErrorIs(err, user.ErrInvalidPasswordResetToken)
	ok, _ := suite.PasswordHasher.VerifyPassword(NEW_PASSWORD, suite.storedUser().PasswordHash)
	assert.True(ok)
}

func (suite *testSuite) TestExpiredTokenIsRejected() {
	suite.Now = NOW.Add(16 * time.Minute)

	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})

	assert := suite.Require()
	assert.ErrorIs(err, user.ErrInvalidPasswordResetToken)
	assert.True(suite.storedUser().PasswordReset.IsPresent)
}

func (suite *testSuite) TestTokenAtExactExpiryIsRejected() {
	suite.Now = NOW.Add(15 * time.Minute)

	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})

	suite.Require().ErrorIs(err, user.ErrInvalidPasswordResetToken)
}

func (suite *testSuite) TestUnknownTokenIsRejected() {
	_, err := suite.Service.Run(context.Background(), Input{Token: "token-x", Password: NEW_PASSWORD})

	suite.Require().ErrorIs(err, user.ErrInvalidPasswordResetToken)
}

func (suite *testSuite) TestShortPasswordIsRejectedBeforeTokenLookup() {
	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: "12345"})

	assert := suite.Require()
	var validationErr *e.ValidationError
	assert.True(errors.As(err, &validationErr))
	assert.Contains(validationErr.Fields(), "password")
	assert.True(suite.storedUser().PasswordReset.IsPresent)
}

func (suite *testSuite) TestConcurrentConsumptionHasOneWinner() {
	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.Require().ErrorIs(err, user.ErrInvalidPasswordResetToken)
	}
	suite.Require().Equal(1, succeeded)
}

func (suite *testSuite) TestStoreUnavailable() {
	suite.UserRepository.ReturnError = true

	_, err := suite.Service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})

	suite.Require().ErrorIs(err, e.ErrStoreUnavailable)
}

func (suite *testSuite) TestTokenExpiringWhileHashingIsRejected() {
	// Setup ---
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return NOW.Add(15*time.Minute - time.Second)
		}
		return NOW.Add(15 * time.Minute)
	}
	service := New(suite.Logger, suite.UserRepository, suite.PasswordHasher, suite.PasswordResetter, clock)
	oldHash := suite.storedUser().PasswordHash

	// Exercise ---
	_, err := service.Run(context.Background(), Input{Token: TOKEN, Password: NEW_PASSWORD})

	// Verify ---
	assert := suite.Require()
	assert.ErrorIs(err, user.ErrInvalidPasswordResetToken)
	assert.Equal(2, calls)
	assert.Equal(oldHash, suite.storedUser().PasswordHash)
	assert.True(suite.storedUser().PasswordReset.IsPresent)
}
