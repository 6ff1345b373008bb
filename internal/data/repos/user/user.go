package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/pkg/dbctx"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
)

// OAuthProfile is what a provider tells us about a user at login.
type OAuthProfile struct {
	Provider    string
	Subject     string
	Name        string
	Email       string
	AccessToken string
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id int) (*types.User, error)
	GetFirst(dbc dbctx.Context) (*types.User, error)
	GetByProviderSubject(dbc dbctx.Context, provider, subject string) (*types.User, error)
	UpsertOAuthUser(dbc dbctx.Context, profile OAuthProfile) (*types.User, bool, error)
	SetAccessToken(dbc dbctx.Context, id int, token *string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns nil without error when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, id int) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetFirst(dbc dbctx.Context) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Order("id ASC").Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByProviderSubject(dbc dbctx.Context, provider, subject string) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).
		Where("oauth_provider = ? AND provider_user_id = ?", provider, subject).
		Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertOAuthUser finds the user by (provider, subject) and stores the fresh
// access token, or creates the user. The bool reports whether a row was created.
func (ur *userRepo) UpsertOAuthUser(dbc dbctx.Context, profile OAuthProfile) (*types.User, bool, error) {
	existing, err := ur.GetByProviderSubject(dbc, profile.Provider, profile.Subject)
	if err != nil {
		return nil, false, err
	}
	token := profile.AccessToken
	if existing != nil {
		if err := ur.SetAccessToken(dbc, existing.ID, &token); err != nil {
			return nil, false, err
		}
		existing.AccessToken = &token
		return existing, false, nil
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "User"
	}
	if r := []rune(name); len(r) > types.MaxUserNameLength {
		name = string(r[:types.MaxUserNameLength])
	}
	provider, subject := profile.Provider, profile.Subject
	u := &types.User{
		Name:           name,
		OAuthProvider:  &provider,
		ProviderUserID: &subject,
		AccessToken:    &token,
	}
	if email := strings.TrimSpace(profile.Email); email != "" {
		u.Email = &email
	}
	if err := dbc.DB(ur.db).Create(u).Error; err != nil {
		return nil, false, err
	}
	ur.log.Info("Created user from OAuth login", "provider", provider, "user_id", u.ID)
	return u, true, nil
}

func (ur *userRepo) SetAccessToken(dbc dbctx.Context, id int, token *string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", id).
		Update("access_token", token).Error
}
