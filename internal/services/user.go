package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/internal/validation"
	"github.com/foodgram/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetView(ctx context.Context, viewerID, id int) (types.UserView, error)
	List(ctx context.Context, viewerID, offset, limit int) ([]types.UserView, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// RegisterInput is a sign-up payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=255,username"`
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// ProfileInput is a partial profile update; nil fields are left unchanged.
type ProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,max=255,username"`
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
}

// PasswordInput changes the caller's password.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

var errBadCredentials = fmt.Errorf("%w: unable to log in with provided credentials", ErrInvalidOperation)

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	images ImageStore
}

func NewUserService(repo UserRepository, images ImageStore) *UserService {
	return &UserService{repo: repo, images: images}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Get returns a profile as seen by viewerID (0 for anonymous callers).
func (s *UserService) Get(ctx context.Context, viewerID, id int) (types.UserView, error) {
	return s.repo.GetView(ctx, viewerID, id)
}

func (s *UserService) List(ctx context.Context, viewerID, offset, limit int) ([]types.UserView, int, error) {
	return s.repo.List(ctx, viewerID, offset, limit)
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateStruct(in); err != nil {
		return types.User{}, err
	}
	if strings.EqualFold(in.Username, "me") {
		return types.User{}, fieldError("username", ErrInvalidValue)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return types.User{}, fmt.Errorf("%w: a user with that email or username already exists", ErrAlreadyExists)
		}
		return types.User{}, err
	}
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.User{}, fieldError("email", ErrMissingField)
	}
	if password == "" {
		return types.User{}, fieldError("password", ErrMissingField)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.User{}, errBadCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, errBadCredentials
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id int, in ProfileInput) (types.UserView, error) {
	if err := validateStruct(in); err != nil {
		return types.UserView{}, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.UserView{}, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return types.UserView{}, fieldError("username", ErrEmptyField)
		}
		if strings.EqualFold(username, "me") {
			return types.UserView{}, fieldError("username", ErrInvalidValue)
		}
		user.Username = username
	}
	if in.FirstName != nil {
		if user.FirstName = strings.TrimSpace(*in.FirstName); user.FirstName == "" {
			return types.UserView{}, fieldError("first_name", ErrEmptyField)
		}
	}
	if in.LastName != nil {
		if user.LastName = strings.TrimSpace(*in.LastName); user.LastName == "" {
			return types.UserView{}, fieldError("last_name", ErrEmptyField)
		}
	}

	if _, err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return types.UserView{}, fieldError("username", ErrAlreadyExists)
		}
		return types.UserView{}, err
	}
	return s.repo.GetView(ctx, id, id)
}

func (s *UserService) SetPassword(ctx context.Context, id int, in PasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return fieldError("current_password", ErrInvalidValue)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	_, err = s.repo.Update(ctx, user)
	return err
}

// SetAvatar uploads an inline image and makes it the user's avatar.
func (s *UserService) SetAvatar(ctx context.Context, id int, dataURI string) (string, error) {
	if strings.TrimSpace(dataURI) == "" {
		return "", fieldError("avatar", ErrMissingField)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s.images == nil {
		return "", errors.New("image storage is not configured")
	}

	url, err := s.images.Upload(ctx, storage.AvatarPrefix, dataURI)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return "", fieldError("avatar", ErrInvalidValue)
		}
		return "", err
	}

	previous := user.Avatar
	user.Avatar = &url
	if _, err := s.repo.Update(ctx, user); err != nil {
		return "", err
	}
	if previous != nil {
		s.removeImage(ctx, *previous)
	}
	return url, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, id int) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Avatar == nil {
		return nil
	}
	previous := *user.Avatar
	user.Avatar = nil
	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.removeImage(ctx, previous)
	return nil
}

func (s *UserService) removeImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("failed to remove previous avatar")
	}
}

// validateStruct maps the first failed validator rule onto the error taxonomy.
func validateStruct(s any) error {
	failed := validation.Struct(s)
	if failed == nil {
		return nil
	}
	switch failed.Tag {
	case "required":
		return fieldError(failed.Field, ErrMissingField)
	case "min", "max":
		return fieldError(failed.Field, fmt.Errorf("%w: length must be %s %s", ErrOutOfRange, boundWord(failed.Tag), failed.Param))
	default:
		return fieldError(failed.Field, ErrInvalidValue)
	}
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
