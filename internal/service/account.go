package service

import (
	"context"  // Request-scoped cancellation
	"errors"   // Error checks
	"net/mail" // Email syntax validation
	"strings"  // Email normalisation
	"time"     // Timestamps and durations

	"shop_system/internal/apperr" // Application errors
	"shop_system/internal/domain" // Domain models
	"shop_system/internal/policy" // Role permissions
	"shop_system/internal/utils"  // Tokens, passwords and cache

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

const minPasswordLen = 6

// AccountService owns users, their credentials and sessions.
type AccountService struct {
	db     *gorm.DB
	tokens *utils.TokenIssuer
	cost   int
}

func NewAccountService(db *gorm.DB, tokens *utils.TokenIssuer, bcryptCost int) *AccountService {
	return &AccountService{db: db, tokens: tokens, cost: bcryptCost}
}

// Session is a signed-in user and its token.
type Session struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// UserPage is a page of users.
type UserPage struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// UserStats counts users per role.
type UserStats struct {
	TotalUsers      int64 `json:"total_users"`
	SuperAdminCount int64 `json:"superadmin_count"`
	AdminCount      int64 `json:"admin_count"`
}

// Register creates an admin account with its cart and signs it in.
func (s *AccountService) Register(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	return s.session(*user)
}

// Login checks credentials. Unknown emails and wrong passwords fail alike.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Invalid(map[string]string{"credentials": "Email and password are required"})
	}
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "Invalid credentials")
		}
		return nil, apperr.Wrap(err, "Failed to load user")
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid credentials")
	}
	logrus.WithField("user_id", user.ID).Info("User logged in")
	return s.session(user)
}

// Authenticate verifies token and resolves the caller from the live user row,
// so role changes take effect on the next request.
func (s *AccountService) Authenticate(ctx context.Context, token string) (policy.Identity, error) {
	if token == "" {
		return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Access denied. No token provided.")
	}
	claims, err := s.tokens.Verify(token)
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Token expired")
	case err != nil:
		return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Invalid token")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Select("id", "role").Take(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Invalid token - user not found")
		}
		return policy.Identity{}, apperr.Wrap(err, "Failed to load user")
	}
	return policy.Identity{UserID: user.ID, Role: user.Role}, nil
}

// Profile returns the caller's account.
func (s *AccountService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.GetUser(ctx, userID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < minPasswordLen {
		return apperr.Invalid(map[string]string{"newPassword": "New password must be at least 6 characters long"})
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, current) {
		return apperr.Invalidf("Current password is incorrect")
	}
	hash, err := utils.HashPassword(next, s.cost)
	if err != nil {
		return apperr.Wrap(err, "Failed to hash password")
	}
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("password", hash).Error; err != nil {
		return apperr.Wrap(err, "Failed to update password")
	}
	logrus.WithField("user_id", userID).Info("Password changed")
	return nil
}

// UpdateProfile changes the caller's email.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&user, userID).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ? AND id <> ?", email, userID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("Email already exists")
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Update("email", email).Error; err != nil {
			return err
		}
		return tx.Take(&user, userID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "User not found", "Email already exists")
	}
	return &user, nil
}

// ListUsers pages through all users, newest first.
func (s *AccountService) ListUsers(ctx context.Context, page PageRequest) (*UserPage, error) {
	return s.SearchUsers(ctx, "", "", page)
}

// SearchUsers filters users by email substring and role.
func (s *AccountService) SearchUsers(ctx context.Context, q, role string, page PageRequest) (*UserPage, error) {
	page = page.Normalize()
	q = strings.ToLower(strings.TrimSpace(q))
	var r domain.Role
	if role != "" {
		var ok bool
		if r, ok = domain.ParseRole(role); !ok {
			return nil, apperr.Invalid(map[string]string{"role": "Role must be either superadmin or admin"})
		}
	}

	db := s.db.WithContext(ctx)
	filtered := func() *gorm.DB {
		tx := db.Model(&domain.User{})
		if q != "" {
			tx = tx.Where("LOWER(email) LIKE ?", "%"+q+"%")
		}
		if r != "" {
			tx = tx.Where("role = ?", r)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count users")
	}
	users := []domain.User{}
	err := filtered().Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch users")
	}
	return &UserPage{Users: users, Pagination: newPagination(page, total)}, nil
}

// GetUser returns one user.
func (s *AccountService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "User not found", "")
	}
	return &user, nil
}

// Stats counts users by role in one query.
func (s *AccountService) Stats(ctx context.Context) (*UserStats, error) {
	var stats UserStats
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Select("COUNT(*) AS total_users, "+
			"COUNT(CASE WHEN role = ? THEN 1 END) AS super_admin_count, "+
			"COUNT(CASE WHEN role = ? THEN 1 END) AS admin_count",
			domain.RoleSuperAdmin, domain.RoleAdmin).
		Scan(&stats).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch user stats")
	}
	return &stats, nil
}

// CreateAdmin creates an admin account on behalf of a superadmin.
func (s *AccountService) CreateAdmin(ctx context.Context, actor policy.Identity, email, password string) (*domain.User, error) {
	if err := policy.Authorize(actor.Role, policy.CreateAdmin); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "created_by": actor.UserID}).Info("Admin user created")
	return user, nil
}

// CreateSuperAdmin bootstraps a superadmin account from the command line.
func (s *AccountService) CreateSuperAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.createUser(ctx, email, password, domain.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("Superadmin created")
	return user, nil
}

// UpdateRole sets the role of another user.
func (s *AccountService) UpdateRole(ctx context.Context, actor policy.Identity, targetID uint, role string) (*domain.User, error) {
	if err := policy.AuthorizeRoleChange(actor, targetID); err != nil {
		return nil, err
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperr.Invalid(map[string]string{"role": "Role must be either superadmin or admin"})
	}

	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&user, targetID).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", targetID).Update("role", r).Error; err != nil {
			return err
		}
		return tx.Take(&user, targetID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "User not found", "")
	}
	logrus.WithFields(logrus.Fields{"user_id": targetID, "role": r, "changed_by": actor.UserID}).Info("User role updated")
	return &user, nil
}

// DeleteUser removes a user together with their cart.
func (s *AccountService) DeleteUser(ctx context.Context, actor policy.Identity, targetID uint) error {
	if err := policy.Authorize(actor.Role, policy.DeleteUser); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.User
		if err := tx.Take(&target, targetID).Error; err != nil {
			return err
		}
		if err := policy.AuthorizeUserDelete(actor, target); err != nil {
			return err
		}
		carts := tx.Model(&domain.Cart{}).Select("id").Where("user_id = ?", targetID)
		if err := tx.Where("cart_id IN (?)", carts).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&domain.Cart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, targetID).Error
	})
	if err != nil {
		return apperr.FromDB(err, "User not found", "")
	}
	logrus.WithFields(logrus.Fields{"user_id": targetID, "deleted_by": actor.UserID}).Info("User deleted")
	return nil
}

func (s *AccountService) createUser(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)
	fields := map[string]string{}
	if err := validateEmail(email); err != nil {
		fields["email"] = "Please provide a valid email"
	}
	if len(password) < minPasswordLen {
		fields["password"] = "Password must be at least 6 characters long"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid(fields)
	}

	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to hash password")
	}
	user := domain.User{Email: email, Password: hash, Role: role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("User already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Cart{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "User not found", "User already exists")
	}
	return &user, nil
}

func (s *AccountService) session(user domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to issue token")
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperr.Invalid(map[string]string{"email": "Please provide a valid email"})
	}
	return nil
}
