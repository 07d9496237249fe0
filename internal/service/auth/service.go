package auth

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/bloodlink/blood-api/internal/email"
	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/pkg/auth"
	"github.com/bloodlink/blood-api/pkg/errors"
	"github.com/bloodlink/blood-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
	resendCooldown   = 60 * time.Second
	maxIssuesPerOTP  = 5
	otpDigits        = 6
)

// Service implements registration, OTP verification and per-namespace
// authentication.
type Service struct {
	accounts repository.AccountRepository
	codes    repository.OTPRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	tokens   auth.TokenStore
	sender   email.Sender
	throttle *gocache.Cache
}

// NewService creates the identity service
func NewService(
	accounts repository.AccountRepository,
	codes repository.OTPRepository,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	tokens auth.TokenStore,
	sender email.Sender,
) *Service {
	return &Service{
		accounts: accounts,
		codes:    codes,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		tokens:   tokens,
		sender:   sender,
		throttle: gocache.New(model.OTPExpiry, time.Minute),
	}
}

// Register creates an unverified account in the given role namespace and
// issues a one-time code. The same email may register independently under
// different roles.
func (s *Service) Register(ctx context.Context, role model.Role, req *model.RegisterRequest) (*model.Account, *model.VerificationHandle, error) {
	if !role.Valid() {
		return nil, nil, errors.Newf(errors.ErrInvalidProfile, "unknown role %q", role)
	}

	account, err := s.buildAccount(role, req)
	if err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrInvalidProfile, "password does not meet requirements", err)
	}
	account.PasswordHash = hash

	if err := s.accounts.Create(ctx, account); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, nil, errors.Newf(errors.ErrDuplicateAccount, "email %s already registered as %s", req.Email, role)
		}
		return nil, nil, errors.Internal(err)
	}

	handle, err := s.issueCode(ctx, account.Email, role, account.Name)
	if err != nil {
		return nil, nil, err
	}
	return account, handle, nil
}

func (s *Service) buildAccount(role model.Role, req *model.RegisterRequest) (*model.Account, error) {
	account := &model.Account{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     role,
		IsActive: true,
	}

	switch role {
	case model.RoleDonor:
		if req.BloodGroup == "" {
			return nil, errors.New(errors.ErrInvalidProfile, "blood group is required for donor registration")
		}
		if !req.BloodGroup.Valid() {
			return nil, errors.Newf(errors.ErrInvalidBloodGroup, "unrecognized blood group %q", req.BloodGroup)
		}
		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		account.Donor = &model.DonorProfile{
			BloodGroup:  req.BloodGroup,
			Location:    req.Location,
			IsAvailable: available,
		}
	case model.RoleHospital:
		if req.HospitalName == "" || req.LicenseNumber == "" {
			return nil, errors.New(errors.ErrInvalidProfile, "hospital name and license number are required")
		}
		account.Hospital = &model.HospitalProfile{
			HospitalName:  req.HospitalName,
			LicenseNumber: req.LicenseNumber,
			Address:       req.Address,
			Location:      req.Location,
		}
	}

	return account, nil
}

// Verify consumes a matching, unexpired code and marks the account verified
func (s *Service) Verify(ctx context.Context, emailAddr string, role model.Role, code string) (*model.Account, error) {
	pending, err := s.codes.GetActive(ctx, emailAddr, role)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.New(errors.ErrNoPendingVerification, "no pending verification for this account")
		}
		return nil, errors.Internal(err)
	}

	if pending.Expired(time.Now()) {
		return nil, errors.New(errors.ErrCodeExpired, "verification code has expired")
	}
	if pending.Code != code {
		return nil, errors.New(errors.ErrCodeMismatch, "verification code does not match")
	}

	if err := s.codes.Consume(ctx, pending.ID); err != nil {
		return nil, errors.Internal(err)
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr, role)
	if err != nil {
		return nil, errors.Internal(err)
	}
	account.IsVerified = true
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}
	return account, nil
}

// Resend invalidates any outstanding code and issues a fresh one. Issuance
// is throttled per (email, role) to stop unlimited reissue inside the expiry
// window.
func (s *Service) Resend(ctx context.Context, emailAddr string, role model.Role) (*model.VerificationHandle, error) {
	account, err := s.accounts.GetByEmail(ctx, emailAddr, role)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.New(errors.ErrNoPendingVerification, "no pending verification for this account")
		}
		return nil, errors.Internal(err)
	}
	if account.IsVerified {
		return nil, errors.New(errors.ErrNoPendingVerification, "account is already verified")
	}

	return s.issueCode(ctx, emailAddr, role, account.Name)
}

func (s *Service) issueCode(ctx context.Context, emailAddr string, role model.Role, name string) (*model.VerificationHandle, error) {
	key := emailAddr + "|" + string(role)

	if _, onCooldown := s.throttle.Get("cooldown:" + key); onCooldown {
		return nil, errors.New(errors.ErrTooManyRequests, "a code was issued recently, try again later")
	}
	if err := s.throttle.Add("issued:"+key, 1, model.OTPExpiry); err != nil {
		n, incErr := s.throttle.IncrementInt("issued:"+key, 1)
		if incErr == nil && n > maxIssuesPerOTP {
			return nil, errors.New(errors.ErrTooManyRequests, "too many codes issued, try again later")
		}
	}
	s.throttle.Set("cooldown:"+key, struct{}{}, resendCooldown)

	digits, err := randomDigits(otpDigits)
	if err != nil {
		return nil, errors.Internal(err)
	}

	now := time.Now()
	code := &model.OneTimeCode{
		ID:        uuid.New(),
		Email:     emailAddr,
		Role:      role,
		Code:      digits,
		IssuedAt:  now,
		ExpiresAt: now.Add(model.OTPExpiry),
	}
	if err := s.codes.Replace(ctx, code); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.sender.SendOTP(ctx, emailAddr, name, digits); err != nil {
		// The code is stored; delivery failure must not orphan the
		// registration, resend remains possible.
		log.Error().Err(err).Str("email", emailAddr).Msg("failed to deliver verification code")
	}

	return &model.VerificationHandle{
		Email:     emailAddr,
		Role:      role,
		ExpiresAt: code.ExpiresAt,
	}, nil
}

// Login authenticates against a single role namespace. Clients that do not
// know their namespace try donor, hospital, then admin in turn.
func (s *Service) Login(ctx context.Context, role model.Role, emailAddr, password string) (*model.TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, emailAddr, role)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.New(errors.ErrInvalidCredential, "invalid credentials")
		}
		return nil, errors.Internal(err)
	}

	if account.LoginAttempts >= maxLoginAttempts {
		if time.Since(account.LastLoginAttempt) < lockoutDuration {
			return nil, errors.New(errors.ErrInvalidCredential, "invalid credentials")
		}
		account.LoginAttempts = 0
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		account.LoginAttempts++
		account.LastLoginAttempt = time.Now()
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, errors.Internal(err)
		}
		return nil, errors.New(errors.ErrInvalidCredential, "invalid credentials")
	}

	verified, active := account.CanAuthenticate()
	if !verified {
		return nil, errors.New(errors.ErrNotVerified, "account is not verified")
	}
	if !active {
		return nil, errors.New(errors.ErrAccountInactive, "account has been deactivated")
	}

	account.LoginAttempts = 0
	account.LastLoginAttempt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}

	token, err := s.jwtSvc.GenerateToken(account.ID, string(account.Role), account.Email)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.TokenResponse{AccessToken: token, Account: account}, nil
}

// Logout revokes the caller's token until its natural expiry
func (s *Service) Logout(ctx context.Context, principal *model.Principal) error {
	ttl := time.Until(principal.ExpiresAt)
	if err := s.tokens.Revoke(ctx, principal.TokenID, ttl); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// Me returns the caller's account
func (s *Service) Me(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("account")
		}
		return nil, errors.Internal(err)
	}
	return account, nil
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	digits := make([]byte, n)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}
