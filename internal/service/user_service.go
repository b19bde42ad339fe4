package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// UserService owns the user account lifecycle: creation, lookup, partial
// update and deletion, plus the email-uniqueness and admin-role invariants.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	Dispatcher events.Dispatcher
}

// UserCreateInput describes the account creation payload.
type UserCreateInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

// UserUpdateInput describes a partial update. Nil fields are left untouched.
type UserUpdateInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Password    *string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies, bcryptCost int) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: bcryptCost,
	}
}

// CreateUser registers a new account after checking email availability.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if err := s.ensureEmailAvailable(ctx, input.Email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user, nil); err != nil {
		// The availability check is advisory; a concurrent create can still
		// hit the unique constraint at the gateway.
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewAlreadyExists("a user with this email already exists", map[string]any{"email": input.Email})
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserCreated, user.ID, events.UserCreatedPayload{Email: user.Email})
	return user, nil
}

// CreateAdminUser registers a new account with the admin role attached.
// The role lookup is a hard precondition: no write happens unless the
// seeded admin role is present.
func (s *UserService) CreateAdminUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	if err := s.ensureEmailAvailable(ctx, input.Email); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin role", nil)
		}
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user, []string{role.ID}); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewAlreadyExists("a user with this email already exists", map[string]any{"email": input.Email})
		}
		return nil, err
	}

	s.publish(ctx, events.EventAdminUserCreated, user.ID, events.UserCreatedPayload{
		Email: user.Email,
		Roles: []string{string(domain.RoleAdmin)},
	})
	return user, nil
}

// GetAllUsers returns every stored account in gateway-native order.
func (s *UserService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUserByID fetches a single account.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update, re-hashing the password when one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	patch := repository.UserPatch{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	user, err := s.users.UpdatePartial(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewAlreadyExists("a user with this email already exists", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserUpdated, user.ID, events.UserUpdatedPayload{ChangedFields: changedFields(input)})
	return user, nil
}

// DeleteUser removes an account. Deleting an already-deleted id reports not found.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return err
	}

	s.publish(ctx, events.EventUserDeleted, id, nil)
	return nil
}

// ensureEmailAvailable is the advisory uniqueness precheck. The gateway's
// unique constraint remains authoritative under concurrency.
func (s *UserService) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return apperrors.NewAlreadyExists("a user with this email already exists", map[string]any{"email": email})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func changedFields(input UserUpdateInput) []string {
	fields := make([]string, 0, 5)
	if input.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if input.LastName != nil {
		fields = append(fields, "last_name")
	}
	if input.Email != nil {
		fields = append(fields, "email")
	}
	if input.PhoneNumber != nil {
		fields = append(fields, "phone_number")
	}
	if input.Password != nil {
		fields = append(fields, "password")
	}
	return fields
}
