package service

import (
	"time"

	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/util/crypto"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService owns all reads and writes of user records. It holds the gorm
// handle it was built with rather than reaching for package state, so a
// gateway instance carries its own dependencies.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByName(name string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("name = ?", name).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("email = ?", email).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByResetCode(code string) (*model.User, error) {
	if code == "" {
		return nil, gorm.ErrRecordNotFound
	}
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("code = ?", code).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByVerificationCode(code string) (*model.User, error) {
	if code == "" {
		return nil, gorm.ErrRecordNotFound
	}
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("verification_code = ?", code).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListByRoles returns the union of users holding any of the given roles.
// The LIKE over the JSON column is only a coarse prefilter; membership is
// decided on the decoded roles, so a crafted role name containing quotes
// cannot match a role it does not literally hold.
func (s *UserService) ListByRoles(roles []string) ([]model.User, error) {
	if len(roles) == 0 {
		return []model.User{}, nil
	}

	query := s.db.Model(model.User{})
	cond := s.db.Where("roles LIKE ?", `%"`+roles[0]+`"%`)
	for _, role := range roles[1:] {
		cond = cond.Or("roles LIKE ?", `%"`+role+`"%`)
	}

	var candidates []model.User
	if err := query.Where(cond).Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(candidates))
	for _, user := range candidates {
		for _, role := range roles {
			if user.Roles.Contains(role) {
				users = append(users, user)
				break
			}
		}
	}
	return users, nil
}

// Create hashes the raw password and inserts the record. The unique index on
// email makes a duplicate insert fail even when two signups race past the
// advisory lookup.
func (s *UserService) Create(user *model.User, rawPassword string) error {
	hash, err := crypto.HashPasswordAsBcrypt(rawPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	return s.db.Create(user).Error
}

func (s *UserService) Save(user *model.User) error {
	return s.db.Save(user).Error
}

func (s *UserService) Delete(user *model.User) error {
	return s.db.Delete(&model.User{}, user.Id).Error
}

// CheckUser verifies the credentials and returns the matching user, or nil
// when the name is unknown or the password wrong.
func (s *UserService) CheckUser(name, password string) *model.User {
	user, err := s.GetByName(name)
	if err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil
	}
	return user
}

// IssueResetCode persists a fresh single-use reset token on the record.
func (s *UserService) IssueResetCode(user *model.User) (string, error) {
	code := uuid.NewString()
	now := time.Now()
	user.ResetCode = code
	user.CodeIssuedAt = &now
	if err := s.Save(user); err != nil {
		return "", err
	}
	return code, nil
}

// IssueVerificationCode persists a fresh single-use verification token.
func (s *UserService) IssueVerificationCode(user *model.User) (string, error) {
	code := uuid.NewString()
	now := time.Now()
	user.VerificationCode = code
	user.CodeIssuedAt = &now
	if err := s.Save(user); err != nil {
		return "", err
	}
	return code, nil
}

// ResetPassword consumes the reset token and stores the new password hash.
func (s *UserService) ResetPassword(user *model.User, rawPassword string) error {
	hash, err := crypto.HashPasswordAsBcrypt(rawPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ResetCode = ""
	user.CodeIssuedAt = nil
	return s.Save(user)
}

// MarkVerified consumes the verification token and stamps the record.
func (s *UserService) MarkVerified(user *model.User) error {
	now := time.Now()
	user.VerificationCode = ""
	user.Verified = &now
	user.CodeIssuedAt = nil
	return s.Save(user)
}

// CodeExpired reports whether the record's current token is older than ttl.
// A zero ttl disables expiry.
func (s *UserService) CodeExpired(user *model.User, ttl time.Duration) bool {
	if ttl <= 0 || user.CodeIssuedAt == nil {
		return false
	}
	return time.Since(*user.CodeIssuedAt) > ttl
}

// ClearExpiredCodes removes reset and verification tokens older than ttl.
// Run periodically by the cleanup job.
func (s *UserService) ClearExpiredCodes(ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-ttl)
	result := s.db.Model(model.User{}).
		Where("code_issued_at IS NOT NULL AND code_issued_at < ?", cutoff).
		Updates(map[string]any{
			"code":              "",
			"verification_code": "",
			"code_issued_at":    nil,
		})
	return result.RowsAffected, result.Error
}
