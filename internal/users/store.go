package users

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"jobtracker/internal/auth"
	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
)

var (
	errUserExists         = errcode.New(errcode.Conflict, "Username or email already exists")
	errInvalidCredentials = errcode.New(errcode.InvalidCredentials, "Invalid credentials")
	errUserNotFound       = errcode.New(errcode.NotFound, "User not found")
)

// Store 持久化用户账号并负责口令校验。口令只以 bcrypt 哈希形式保存。
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore 构造 Store。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock 返回使用指定时间源的副本。
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

// Register 创建新用户；用户名或邮箱已被占用时返回 Conflict。
func (s *Store) Register(ctx context.Context, username, email, password string) (*database.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, errcode.New(errcode.InvalidInput, "Missing required fields")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := identityTaken(tx, username, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return errUserExists
		}
		return createUser(tx, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate 按邮箱与口令登录，成功时刷新 last_login。
func (s *Store) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	if email == "" || password == "" {
		return nil, errcode.New(errcode.InvalidInput, "Email and password are required")
	}

	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, errcode.Wrap(errcode.Internal, "Login error", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, errcode.Wrap(errcode.Internal, "Login error", err)
	}
	user.LastLogin = &now
	return &user, nil
}

// Get 返回用户资料。
func (s *Store) Get(ctx context.Context, userID uint) (*database.User, error) {
	return findUser(s.db.WithContext(ctx), userID)
}

// FindByEmail 按邮箱查找用户，供运维命令使用。
func (s *Store) FindByEmail(ctx context.Context, email string) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, errcode.Wrap(errcode.Internal, "Error fetching user", err)
	}
	return &user, nil
}

// UpdateProfile 修改用户名与邮箱；与其他用户冲突时返回 Conflict。
func (s *Store) UpdateProfile(ctx context.Context, userID uint, username, email string) (*database.User, error) {
	if username == "" || email == "" {
		return nil, errcode.New(errcode.InvalidInput, "Username and email are required")
	}

	var updated *database.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		taken, err := identityTaken(tx, username, email, userID)
		if err != nil {
			return err
		}
		if taken {
			return errUserExists
		}

		if err := tx.Model(user).Updates(map[string]any{
			"username": username,
			"email":    email,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errUserExists
			}
			return errcode.Wrap(errcode.Internal, "Error updating user profile", err)
		}
		user.Username = username
		user.Email = email
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword 校验当前口令后替换哈希。
func (s *Store) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return errcode.New(errcode.InvalidInput, "Current password and new password are required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		if !auth.CheckPasswordHash(currentPassword, user.PasswordHash) {
			return errcode.New(errcode.InvalidCredentials, "Current password is incorrect")
		}

		hashed, err := hashPassword(newPassword)
		if err != nil {
			return err
		}

		if err := tx.Model(user).Update("password_hash", hashed).Error; err != nil {
			return errcode.Wrap(errcode.Internal, "Error updating password", err)
		}
		return nil
	})
}

// Delete 删除用户及其全部求职记录。
// 先显式删除 jobs，再删除用户，不依赖数据库是否启用了外键级联。
func (s *Store) Delete(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&database.Job{}).Error; err != nil {
			return errcode.Wrap(errcode.Internal, "Error deleting jobs", err)
		}
		if err := tx.Delete(&database.User{}, userID).Error; err != nil {
			return errcode.Wrap(errcode.Internal, "Error deleting user", err)
		}
		return nil
	})
}

func findUser(db *gorm.DB, userID uint) (*database.User, error) {
	var user database.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, errcode.Wrap(errcode.Internal, "Error fetching user", err)
	}
	return &user, nil
}

// identityTaken 判断用户名或邮箱是否已被 excludeID 之外的用户使用。
func identityTaken(db *gorm.DB, username, email string, excludeID uint) (bool, error) {
	q := db.Model(&database.User{}).Where("(username = ? OR email = ?)", username, email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, errcode.Wrap(errcode.Internal, "Error checking user uniqueness", err)
	}
	return count > 0, nil
}

func createUser(db *gorm.DB, user *database.User) error {
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errUserExists
		}
		return errcode.Wrap(errcode.Internal, "Registration error", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", errcode.New(errcode.InvalidInput, "Password must be at most 72 bytes")
		}
		return "", errcode.Wrap(errcode.Internal, "Error hashing password", err)
	}
	return hashed, nil
}
