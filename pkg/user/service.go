package user

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/harryhq/mail-manager/internal/errdef"

	"github.com/harryhq/mail-manager/pkg/email"
	"github.com/harryhq/mail-manager/pkg/model"
)

func NewService(uiUrl string, passwordTokenTtl uint, repository *repository, mailService mailService) *Service {
	return &Service{
		uiUrl:            uiUrl,
		passwordTokenTtl: passwordTokenTtl,
		repository:       repository,
		mailService:      mailService,
	}
}

// mailService sends account emails through the regular email message pipeline so they are
// recorded, rendered and rate limited like any other message.
type mailService interface {
	Create(ctx context.Context, message *model.EmailMessage) error
	Queue(ctx context.Context, message *model.EmailMessage, cooldown email.CooldownOptions) (bool, error)
	DefaultCooldown() email.CooldownOptions
}

type Service struct {
	uiUrl            string
	passwordTokenTtl uint
	repository       *repository
	mailService      mailService
}

func (s Service) Save(ctx context.Context, user *model.User) error {
	return s.repository.save(ctx, user)
}

func (s Service) SignUp(ctx context.Context, email string, password string) (*model.User, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %s", err)
	}

	user := &model.User{
		Email:      email,
		EmailToken: uuid.New(),
		Password:   hashedPassword,
	}

	err = s.sendValidationEmail(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to send validation email: %s", err)
	}

	err = s.repository.create(ctx, user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s Service) sendValidationEmail(ctx context.Context, user *model.User) error {
	message := &model.EmailMessage{
		ToEmail:        user.Email,
		TemplatePrefix: "account/validate-email",
		TemplateContext: model.JSONMap{
			"validation_link": fmt.Sprintf("%s/validate/%s", s.uiUrl, user.EmailToken),
		},
	}

	err := s.mailService.Create(ctx, message)
	if err != nil {
		return err
	}

	_, err = s.mailService.Queue(ctx, message, s.mailService.DefaultCooldown())
	return err
}

const (
	argonTime       = 3
	argonMemory     = 128 * 1024
	argonThreads    = 4
	argonKeyLength  = 32
	argonSaltLength = 16
)

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	_, err := rand.Read(salt)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)
	hashedPassword := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, argonMemory, argonTime, argonThreads, encodedSalt, encodedHash)

	return hashedPassword, nil
}

func comparePasswords(storedPassword string, suppliedPassword string) (bool, error) {
	parts := strings.Split(storedPassword, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New("invalid password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid password hash version: %s", parts[2])
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("invalid password parameters: %s", parts[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %s", err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %s", err)
	}

	hash := argon2.IDKey([]byte(suppliedPassword), salt, time, memory, threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}

func (s Service) ValidateEmail(ctx context.Context, token uuid.UUID) error {
	user, err := s.repository.findByEmailToken(ctx, token)
	if err != nil {
		return err
	}

	user.Validated = true
	return s.repository.save(ctx, user)
}

func (s Service) SignIn(ctx context.Context, email string, password string) (*model.User, error) {
	unauthorizedError := "invalid email and password combination"

	user, err := s.repository.findByEmail(ctx, email)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized(unauthorizedError)
		}
		return nil, err
	}

	match, err := comparePasswords(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %s", err)
	}

	if !match {
		return nil, errdef.NewUnauthorized(unauthorizedError)
	}

	if !user.Validated {
		return nil, errdef.NewForbidden("account not validated")
	}

	return user, nil
}

func (s Service) FindAll(ctx context.Context) ([]*model.User, error) {
	return s.repository.findAll(ctx)
}

func (s Service) FindById(ctx context.Context, id uint) (*model.User, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindOrCreate(ctx context.Context, email string, password string) (*model.User, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %s", err)
	}

	user := &model.User{
		Email:      email,
		EmailToken: uuid.New(),
		Password:   hashedPassword,
	}

	return s.repository.findOrCreate(ctx, user)
}

func (s Service) Delete(ctx context.Context, id uint) error {
	return s.repository.delete(ctx, id)
}

func (s Service) Update(ctx context.Context, id uint, email, password string) (*model.User, error) {
	user, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != "" {
		user.Email = email
	}

	if password != "" {
		var err error
		user.Password, err = hashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %s", err)
		}
	}

	return s.repository.update(ctx, user)
}

// RequestPasswordReset issues a reset token and mails it to the user. Nothing happens for an
// unknown email so the endpoint does not reveal which emails have an account.
func (s Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repository.findByEmail(ctx, email)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}

	bytes := make([]byte, 64)
	if _, err := rand.Read(bytes); err != nil {
		return err
	}
	token := base64.URLEncoding.EncodeToString(bytes)

	user.PasswordToken = sql.NullString{String: token, Valid: true}
	user.PasswordTokenTTL = uint(time.Now().Unix()) + s.passwordTokenTtl

	// The token has to be saved before the email is queued, the send consumer might pick the
	// message up before this transaction would otherwise finish.
	err = s.repository.save(ctx, user)
	if err != nil {
		return err
	}

	return s.sendResetPasswordEmail(ctx, user)
}

func (s Service) sendResetPasswordEmail(ctx context.Context, user *model.User) error {
	message := &model.EmailMessage{
		ToEmail:        user.Email,
		TemplatePrefix: "account/reset-password",
		TemplateContext: model.JSONMap{
			"reset_link": fmt.Sprintf("%s/reset-password/%s", s.uiUrl, user.PasswordToken.String),
		},
	}

	err := s.mailService.Create(ctx, message)
	if err != nil {
		return err
	}

	_, err = s.mailService.Queue(ctx, message, s.mailService.DefaultCooldown())
	return err
}

func (s Service) ResetPassword(ctx context.Context, token string, password string) error {
	user, err := s.repository.findByPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}

	tokenTtl := time.Unix(int64(user.PasswordTokenTTL), 0).UTC()
	if tokenTtl.Before(time.Now()) {
		return errdef.NewBadRequest("reset token has expired")
	}

	user.Password, err = hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %s", err)
	}

	return s.repository.resetPassword(ctx, user)
}
