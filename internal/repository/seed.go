package repository

import (
	"fmt"

	"github.com/Stewz00/academic-auth/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser is a user record with a cleartext password, hashed on load.
type SeedUser struct {
	ID       int64
	Email    string
	Password string
	Profile  model.Profile
}

func strPtr(s string) *string { return &s }

// DefaultSeed is the demo account set loaded at process start.
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{
			ID:       1,
			Email:    "aluno1@universidade.edu.br",
			Password: "123456",
			Profile: model.Profile{
				Name:         "Aluno 1",
				Role:         model.RoleStudent,
				Course:       strPtr("Engenharia de Software"),
				Registration: strPtr("2023001"),
			},
		},
		{
			ID:       2,
			Email:    "aluno2@universidade.edu.br",
			Password: "654321",
			Profile: model.Profile{
				Name:         "Aluno 2",
				Role:         model.RoleStudent,
				Course:       strPtr("Ciência da Computação"),
				Registration: strPtr("2023002"),
			},
		},
		{
			ID:       3,
			Email:    "aluno3@universidade.edu.br",
			Password: "987654",
			Profile: model.Profile{
				Name:         "Aluno 3",
				Role:         model.RoleStudent,
				Course:       strPtr("Sistemas de Informação"),
				Registration: strPtr("2023003"),
			},
		},
		{
			ID:       4,
			Email:    "admin@universidade.edu.br",
			Password: "admin123",
			Profile: model.Profile{
				Name:       "Administrador",
				Role:       model.RoleAdmin,
				Department: strPtr("Secretaria Acadêmica"),
			},
		},
	}
}

// HashSeed turns seed entries into user records with bcrypt verifiers.
func HashSeed(seed []SeedUser, cost int) ([]*model.User, error) {
	users := make([]*model.User, 0, len(seed))
	for _, s := range seed {
		if !s.Profile.Role.Valid() {
			return nil, fmt.Errorf("seed user %s: unknown role %q", s.Email, s.Profile.Role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", s.Email, err)
		}
		users = append(users, &model.User{
			ID:       s.ID,
			Email:    s.Email,
			Password: string(hash),
			Profile:  s.Profile,
		})
	}
	return users, nil
}

// NewSeededUserRepository hashes seed with the given bcrypt cost and loads it.
func NewSeededUserRepository(seed []SeedUser, cost int) (*UserRepositoryImpl, error) {
	users, err := HashSeed(seed, cost)
	if err != nil {
		return nil, err
	}
	return NewUserRepository(users)
}
