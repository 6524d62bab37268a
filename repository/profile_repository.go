package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yashrajoria/materials-storefront/models"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

// ProfileRepository stores user profiles for the local identity provider
// and for profile lookups after sign-in.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
}

// GormProfileRepository implements ProfileRepository using GORM.
type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProfileRepository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	profile.Email = normalizeEmail(profile.Email)
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

func (r *GormProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryProfileRepository keeps profiles in process memory. Used when no
// database is configured.
type MemoryProfileRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Profile
	byEmail map[string]string
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		byID:    make(map[string]models.Profile),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryProfileRepository) FindByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (r *MemoryProfileRepository) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p := r.byID[id]
	return &p, nil
}

func (r *MemoryProfileRepository) Create(_ context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(profile.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrProfileExists
	}
	if _, ok := r.byID[profile.ID]; ok {
		return ErrProfileExists
	}
	profile.Email = email
	r.byID[profile.ID] = *profile
	r.byEmail[email] = profile.ID
	return nil
}

func (r *MemoryProfileRepository) Update(_ context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[profile.ID]
	if !ok {
		return ErrProfileNotFound
	}
	delete(r.byEmail, old.Email)
	profile.Email = normalizeEmail(profile.Email)
	r.byID[profile.ID] = *profile
	r.byEmail[profile.Email] = profile.ID
	return nil
}
