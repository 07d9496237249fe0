package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloodlink/blood-api/internal/email"
	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository/memory"
	authService "github.com/bloodlink/blood-api/internal/service/auth"
	"github.com/bloodlink/blood-api/pkg/auth"
	"github.com/bloodlink/blood-api/pkg/errors"
	"github.com/bloodlink/blood-api/pkg/security"
)

type fixture struct {
	accounts *memory.AccountRepository
	codes    *memory.OTPRepository
	svc      *authService.Service
}

func newFixture() *fixture {
	accounts := memory.NewAccountRepository()
	codes := memory.NewOTPRepository()
	svc := authService.NewService(
		accounts,
		codes,
		security.NewBcryptHasher(bcrypt.MinCost),
		auth.NewJWTService("test-secret", time.Hour),
		auth.NewMemoryTokenStore(),
		email.NewLogSender(),
	)
	return &fixture{accounts: accounts, codes: codes, svc: svc}
}

func donorRegistration(emailAddr string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:       "Test Donor",
		Email:      emailAddr,
		Password:   "password123",
		Phone:      "+1234567890",
		BloodGroup: model.BloodGroupONeg,
	}
}

func hospitalRegistration(emailAddr string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:          "Test Hospital",
		Email:         emailAddr,
		Password:      "password123",
		HospitalName:  "Test Hospital",
		LicenseNumber: "LIC-42",
	}
}

// issuedCode looks up the code the service stored for a pending verification
func (f *fixture) issuedCode(t *testing.T, emailAddr string, role model.Role) string {
	t.Helper()
	code, err := f.codes.GetActive(context.Background(), emailAddr, role)
	require.NoError(t, err)
	return code.Code
}

func TestRegisterAndVerify(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	account, handle, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)
	assert.False(t, account.IsVerified)
	assert.True(t, account.IsActive)
	assert.Equal(t, model.RoleDonor, handle.Role)
	assert.WithinDuration(t, time.Now().Add(model.OTPExpiry), handle.ExpiresAt, time.Minute)

	// cannot log in before verification
	_, err = f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrNotVerified))

	code := f.issuedCode(t, "donor@example.com", model.RoleDonor)
	require.Len(t, code, 6)

	verified, err := f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	token, err := f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, account.ID, token.Account.ID)
}

func TestRegisterProfileValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	missing := donorRegistration("no-group@example.com")
	missing.BloodGroup = ""
	_, _, err := f.svc.Register(ctx, model.RoleDonor, missing)
	assert.True(t, errors.Is(err, errors.ErrInvalidProfile))

	malformed := donorRegistration("bad-group@example.com")
	malformed.BloodGroup = "Z+"
	_, _, err = f.svc.Register(ctx, model.RoleDonor, malformed)
	assert.True(t, errors.Is(err, errors.ErrInvalidBloodGroup))

	noLicense := hospitalRegistration("no-license@example.com")
	noLicense.LicenseNumber = ""
	_, _, err = f.svc.Register(ctx, model.RoleHospital, noLicense)
	assert.True(t, errors.Is(err, errors.ErrInvalidProfile))

	_, _, err = f.svc.Register(ctx, model.Role("superuser"), donorRegistration("bad-role@example.com"))
	assert.True(t, errors.Is(err, errors.ErrInvalidProfile))
}

func TestEmailUniquePerRoleNamespace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("shared@example.com"))
	require.NoError(t, err)

	_, _, err = f.svc.Register(ctx, model.RoleDonor, donorRegistration("shared@example.com"))
	assert.True(t, errors.Is(err, errors.ErrDuplicateAccount))

	// the same address may register independently as a hospital
	_, _, err = f.svc.Register(ctx, model.RoleHospital, hospitalRegistration("shared@example.com"))
	assert.NoError(t, err)
}

func TestVerifyGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, "nobody@example.com", model.RoleDonor, "123456")
	assert.True(t, errors.Is(err, errors.ErrNoPendingVerification))

	_, _, err = f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)

	code := f.issuedCode(t, "donor@example.com", model.RoleDonor)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, wrong)
	assert.True(t, errors.Is(err, errors.ErrCodeMismatch))

	// a mismatch does not consume the code; the right one still works
	verified, err := f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	// and a consumed code cannot be replayed
	_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	assert.True(t, errors.Is(err, errors.ErrNoPendingVerification))
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)

	// age the stored code past its window
	stored, err := f.codes.GetActive(ctx, "donor@example.com", model.RoleDonor)
	require.NoError(t, err)
	stored.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, f.codes.Replace(ctx, stored))

	_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, stored.Code)
	assert.True(t, errors.Is(err, errors.ErrCodeExpired))

	// a code expiring in the future is still honored
	stored.ExpiresAt = time.Now().Add(time.Minute)
	require.NoError(t, f.codes.Replace(ctx, stored))

	verified, err := f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, stored.Code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestReissueReplacesPreviousCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)
	old := f.issuedCode(t, "donor@example.com", model.RoleDonor)

	// replacement invalidates the old code even when the digits differ
	replacement := &model.OneTimeCode{
		ID:        uuid.New(),
		Email:     "donor@example.com",
		Role:      model.RoleDonor,
		Code:      "999999",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(model.OTPExpiry),
	}
	require.NoError(t, f.codes.Replace(ctx, replacement))

	if old != replacement.Code {
		_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, old)
		assert.True(t, errors.Is(err, errors.ErrCodeMismatch))
	}

	verified, err := f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, replacement.Code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestResendThrottled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)

	// registration just issued a code; an immediate resend is on cooldown
	_, err = f.svc.Resend(ctx, "donor@example.com", model.RoleDonor)
	assert.True(t, errors.Is(err, errors.ErrTooManyRequests))
}

func TestResendGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Resend(ctx, "nobody@example.com", model.RoleDonor)
	assert.True(t, errors.Is(err, errors.ErrNoPendingVerification))

	_, _, err = f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)
	code := f.issuedCode(t, "donor@example.com", model.RoleDonor)
	_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	require.NoError(t, err)

	_, err = f.svc.Resend(ctx, "donor@example.com", model.RoleDonor)
	assert.True(t, errors.Is(err, errors.ErrNoPendingVerification))
}

func TestLoginGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)
	code := f.issuedCode(t, "donor@example.com", model.RoleDonor)
	account, err := f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "wrong-password")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredential))

	_, err = f.svc.Login(ctx, model.RoleDonor, "unknown@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredential))

	// a login against the wrong namespace fails like an unknown account
	_, err = f.svc.Login(ctx, model.RoleHospital, "donor@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredential))

	account.IsActive = false
	require.NoError(t, f.accounts.Update(ctx, account))
	_, err = f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrAccountInactive))
}

func TestLoginLockout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, model.RoleDonor, donorRegistration("donor@example.com"))
	require.NoError(t, err)
	code := f.issuedCode(t, "donor@example.com", model.RoleDonor)
	_, err = f.svc.Verify(ctx, "donor@example.com", model.RoleDonor, code)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "wrong-password")
		assert.True(t, errors.Is(err, errors.ErrInvalidCredential))
	}

	// correct password is rejected while the lockout holds
	_, err = f.svc.Login(ctx, model.RoleDonor, "donor@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredential))
}
