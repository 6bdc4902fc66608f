package app

import (
	"context"
	"fmt"

	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState меняет только состояние диалога; язык и прочие поля
// пользователя не перезаписываются.
func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	// Get создаёт пользователя, если его ещё нет
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}
	user.SetState(state)

	return user, nil
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// SetLanguage сохраняет язык ответа пользователя.
// Код должен входить в набор languages; пустой код отключает перевод.
func (s *UserService) SetLanguage(ctx context.Context, userID, chatID int64, code string, languages *entity.LanguageSet) (*entity.User, error) {
	code = entity.NormalizeLanguageCode(code)
	if code != "" && !languages.Supports(code) {
		return nil, fmt.Errorf("%w: unsupported language %q", entity.ErrInvalidInput, code)
	}

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetLanguage(code)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
