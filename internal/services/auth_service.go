package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/samber/oops"

	"membersite/internal/domain"
	"membersite/internal/validate"
)

// UserStore is the slice of the credential store the auth flows need.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) ([]domain.User, error)
	FindByName(ctx context.Context, name string) ([]domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	ListAll(ctx context.Context) ([]domain.UserSummary, error)
}

type AuthService struct {
	Users  UserStore
	Hasher Hasher
}

func NewAuthService(users UserStore, hasher Hasher) *AuthService {
	return &AuthService{Users: users, Hasher: hasher}
}

// Signup validates the form, hashes the password and stores a standard user.
// The returned identity is what the new session is populated with.
func (s *AuthService) Signup(ctx context.Context, form url.Values) (domain.Identity, error) {
	return s.CreateUser(ctx, form, domain.RoleStandard)
}

// CreateUser is Signup with an explicit role; the CLI uses it to seed admins.
func (s *AuthService) CreateUser(ctx context.Context, form url.Values, role domain.Role) (domain.Identity, error) {
	in, err := validate.Signup.Validate(form)
	if err != nil {
		return domain.Identity{}, err
	}
	hash, err := s.Hasher.Hash(in["password"])
	if err != nil {
		return domain.Identity{}, oops.Code("SIGNUP_HASH").Wrap(err)
	}
	u := &domain.User{
		Email: in["email"],
		Name:  in["name"],
		Hash:  hash,
		Role:  role.Normalize(),
	}
	if err := s.Users.Insert(ctx, u); err != nil {
		return domain.Identity{}, storeErr("signup", err)
	}
	return u.Identity(), nil
}

// Login resolves the email to exactly one record and checks the password.
// Unknown, ambiguous and wrong-password attempts all yield ErrBadCredentials
// after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, form url.Values) (domain.Identity, error) {
	in, err := validate.Login.Validate(form)
	if err != nil {
		return domain.Identity{}, err
	}
	matches, err := s.Users.FindByEmail(ctx, in["email"])
	if err != nil {
		return domain.Identity{}, storeErr("login", err)
	}
	if len(matches) != 1 {
		s.burnCompare(in["password"])
		return domain.Identity{}, ErrBadCredentials
	}
	u := matches[0]
	ok, err := s.Hasher.Verify(in["password"], u.Hash)
	if err != nil {
		// a corrupt stored hash is not the caller's business
		return domain.Identity{}, oops.Code("AUTH_FAILED").With("user_id", u.ID).Wrap(errors.Join(ErrBadCredentials, err))
	}
	if !ok {
		return domain.Identity{}, ErrBadCredentials
	}
	return u.Identity(), nil
}

func (s *AuthService) burnCompare(password string) {
	d, ok := s.Hasher.(interface{ Dummy() (string, error) })
	if !ok {
		return
	}
	if hash, err := d.Dummy(); err == nil {
		_, _ = s.Hasher.Verify(password, hash)
	}
}

// Lookup validates the user parameter and runs the exact-match name query,
// returning the accepted name and how many records matched. A missing or
// empty user returns "" without touching the store.
func (s *AuthService) Lookup(ctx context.Context, query url.Values) (string, int, error) {
	in, err := validate.Lookup.Validate(query)
	if err != nil {
		return "", 0, err
	}
	if in["user"] == "" {
		return "", 0, nil
	}
	us, err := s.Users.FindByName(ctx, in["user"])
	if err != nil {
		return "", 0, storeErr("lookup", err)
	}
	return in["user"], len(us), nil
}

// ListUsers returns every account for the admin view.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	us, err := s.Users.ListAll(ctx)
	if err != nil {
		return nil, storeErr("list_users", err)
	}
	return us, nil
}

func storeErr(op string, err error) error {
	return oops.Code("STORE").With("op", op).Wrap(errors.Join(ErrStore, err))
}
