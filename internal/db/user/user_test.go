package user

import (
	"context"
	c "resetflow/internal/core/domain/common"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/db"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/suite"
)

const (
	EMAIL         = c.Email("alice@x.com")
	PASSWORD_HASH = user.PasswordHash("test-password-hash")
	TOKEN_HASH    = user.PasswordResetTokenHash("test-token-hash")
)

var NOW time.Time = time.Date(2020, 6, 6, 15, 30, 30, 0, time.UTC)

type testSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo *PgxUserRepository
}

func (suite *testSuite) SetupSuite() {
	suite.pool = db.CreateTestPool(suite.T())
	suite.repo = NewPgxRepository(suite.pool)
}

func (suite *testSuite) TearDownSuite() {
	suite.pool.Close()
}

func (suite *testSuite) TearDownTest() {
	db.TruncateTables(suite.pool)
}

func TestPgxUserRepository(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) createUser() user.User {
	u, err := suite.repo.Create(context.Background(), user.CreateUserInput{
		Name:         "Alice",
		Email:        EMAIL,
		PasswordHash: PASSWORD_HASH,
		CreatedAt:    NOW,
	})
	suite.Require().Nil(err)
	return u
}

func (suite *testSuite) setReset(id user.ID, expiresAt time.Time) {
	err := suite.repo.SetPasswordReset(context.Background(), user.SetPasswordResetInput{
		UserID:        id,
		PasswordReset: user.PasswordReset{TokenHash: TOKEN_HASH, ExpiresAt: expiresAt},
	})
	suite.Require().Nil(err)
}

func (suite *testSuite) TestCreateSuccess() {
	u := suite.createUser()

	assert := suite.Require()
	assert.NotEqual(user.ID(0), u.ID)
	assert.Equal("Alice", u.Name)
	assert.Equal(EMAIL, u.Email)
	assert.Equal(PASSWORD_HASH, u.PasswordHash)
	assert.Equal(NOW, u.CreatedAt)
	assert.False(u.PasswordReset.IsPresent)
}

func (suite *testSuite) TestCreateDuplicateEmail() {
	suite.createUser()

	_, err := suite.repo.Create(context.Background(), user.CreateUserInput{
		Name:         "Other",
		Email:        EMAIL,
		PasswordHash: PASSWORD_HASH,
		CreatedAt:    NOW,
	})

	suite.Require().ErrorIs(err, user.ErrEmailAlreadyExists)
}

func (suite *testSuite) TestGetByIDAndEmail() {
	created := suite.createUser()

	byID, err := suite.repo.GetByID(context.Background(), created.ID)
	suite.Require().Nil(err)
	byEmail, err := suite.repo.GetByEmail(context.Background(), EMAIL)
	suite.Require().Nil(err)

	assert := suite.Require()
	assert.Equal(created, byID)
	assert.Equal(created, byEmail)

	_, err = suite.repo.GetByEmail(context.Background(), "bob@x.com")
	assert.ErrorIs(err, user.ErrUserDoesNotExist)
	_, err = suite.repo.GetByID(context.Background(), created.ID+1)
	assert.ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestSetPasswordResetOverwrites() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW.Add(time.Minute))

	err := suite.repo.SetPasswordReset(context.Background(), user.SetPasswordResetInput{
		UserID:        u.ID,
		PasswordReset: user.PasswordReset{TokenHash: "second", ExpiresAt: NOW.Add(time.Hour)},
	})

	assert := suite.Require()
	assert.Nil(err)
	stored, err := suite.repo.GetByID(context.Background(), u.ID)
	assert.Nil(err)
	assert.True(stored.PasswordReset.IsPresent)
	assert.Equal(user.PasswordResetTokenHash("second"), stored.PasswordReset.Value.TokenHash)
	assert.Equal(NOW.Add(time.Hour), stored.PasswordReset.Value.ExpiresAt)

	_, err = suite.repo.GetByPasswordResetTokenHash(context.Background(), TOKEN_HASH, NOW)
	assert.ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestSetPasswordResetUnknownUser() {
	err := suite.repo.SetPasswordReset(context.Background(), user.SetPasswordResetInput{
		UserID:        user.ID(42),
		PasswordReset: user.PasswordReset{TokenHash: TOKEN_HASH, ExpiresAt: NOW},
	})

	suite.Require().ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestGetByPasswordResetTokenHashRespectsExpiry() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW.Add(time.Minute))

	found, err := suite.repo.GetByPasswordResetTokenHash(context.Background(), TOKEN_HASH, NOW)
	suite.Require().Nil(err)
	suite.Require().Equal(u.ID, found.ID)

	_, err = suite.repo.GetByPasswordResetTokenHash(context.Background(), TOKEN_HASH, NOW.Add(time.Minute))
	suite.Require().ErrorIs(err, user.ErrUserDoesNotExist)
}

func (suite *testSuite) TestResetPasswordClearsResetAtomically() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW.Add(time.Minute))
	input := user.ResetPasswordInput{UserID: u.ID, TokenHash: TOKEN_HASH, PasswordHash: "new-hash", At: NOW}

	err := suite.repo.ResetPassword(context.Background(), input)

	assert := suite.Require()
	assert.Nil(err)
	stored, err := suite.repo.GetByID(context.Background(), u.ID)
	assert.Nil(err)
	assert.Equal(user.PasswordHash("new-hash"), stored.PasswordHash)
	assert.False(stored.PasswordReset.IsPresent)

	err = suite.repo.ResetPassword(context.Background(), input)
	assert.ErrorIs(err, user.ErrInvalidPasswordResetToken)
}

func (suite *testSuite) TestResetPasswordRejectsExpiredToken() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW)

	err := suite.repo.ResetPassword(context.Background(), user.ResetPasswordInput{
		UserID:       u.ID,
		TokenHash:    TOKEN_HASH,
		PasswordHash: "new-hash",
		At:           NOW,
	})

	assert := suite.Require()
	assert.ErrorIs(err, user.ErrInvalidPasswordResetToken)
	stored, _ := suite.repo.GetByID(context.Background(), u.ID)
	assert.Equal(PASSWORD_HASH, stored.PasswordHash)
}

func (suite *testSuite) TestConcurrentResetHasOneWinner() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW.Add(time.Minute))

	const attempts = 10
	var wg sync.WaitGroup
	var lock sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.repo.ResetPassword(context.Background(), user.ResetPasswordInput{
				UserID:       u.ID,
				TokenHash:    TOKEN_HASH,
				PasswordHash: "new-hash",
				At:           NOW,
			})
			if err == nil {
				lock.Lock()
				succeeded++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	suite.Require().Equal(1, succeeded)
}

func (suite *testSuite) TestResetColumnsMustBeSetTogether() {
	u := suite.createUser()

	_, err := suite.pool.Exec(
		context.Background(),
		`UPDATE "user" SET password_reset_token_hash = 'x' WHERE id = $1`,
		int64(u.ID),
	)

	suite.Require().NotNil(err)
}

func (suite *testSuite) TestClearExpiredPasswordResets() {
	u := suite.createUser()
	suite.setReset(u.ID, NOW)

	cleared, err := suite.repo.ClearExpiredPasswordResets(context.Background(), NOW.Add(-time.Second))
	suite.Require().Nil(err)
	suite.Require().Equal(int64(0), cleared)

	cleared, err = suite.repo.ClearExpiredPasswordResets(context.Background(), NOW)
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), cleared)

	stored, err := suite.repo.GetByID(context.Background(), u.ID)
	suite.Require().Nil(err)
	suite.Require().False(stored.PasswordReset.IsPresent)
}
