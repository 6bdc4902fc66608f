package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"crop-doctor/internal/container"
	"crop-doctor/internal/domain/entity"
)

// Bot представляет Telegram-бота
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *container.Container
	client *http.Client
	logger *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return newBot(api, c, logger), nil
}

func newBot(api *tgbotapi.BotAPI, c *container.Container, logger *zap.Logger) *Bot {
	logger = logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:    api,
		app:    c,
		client: &http.Client{},
		logger: logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	users := b.app.UserService

	switch msg.Command() {
	case "start":
		b.saveState(ctx, user, entity.StateMainMenu)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := users.BeginCheck(ctx, user.ID, user.ChatID); err != nil {
			b.logger.Error("begin check", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "languages":
		b.sendMessage(msg.Chat.ID, LanguagesText(b.app.Languages.All(), user.Language))

	case "lang":
		code := strings.TrimSpace(msg.CommandArguments())
		if code == "" {
			b.sendMessage(msg.Chat.ID, CurrentLanguageText(b.app.Languages, user.Language))
			return
		}
		if strings.EqualFold(code, "off") {
			code = ""
		}
		if _, err := users.SetLanguage(ctx, user.ID, user.ChatID, code, b.app.Languages); err != nil {
			if errors.Is(err, entity.ErrInvalidInput) {
				b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgUnsupportedLanguage, code))
				return
			}
			b.logger.Error("set language", zap.Error(err))
			b.sendMessage(msg.Chat.ID, msgProcessingError)
			return
		}
		b.sendMessage(msg.Chat.ID, CurrentLanguageText(b.app.Languages, entity.NormalizeLanguageCode(code)))

	case "cancel":
		if _, err := users.Cancel(ctx, user.ID, user.ChatID); err != nil {
			b.logger.Error("cancel", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	b.saveState(ctx, user, entity.StateProcessing)
	defer b.saveState(ctx, user, entity.StateMainMenu)

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("download photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	diag, err := b.app.DiagnosisService.Diagnose(ctx, imageData, user.Language)
	if err != nil {
		b.logger.Warn("diagnosis failed", zap.String("kind", string(entity.KindOf(err))), zap.Error(err))
		b.sendMessage(msg.Chat.ID, ErrorText(err))
		return
	}

	caption := FormatCaption(diag)
	if diag.AnnotatedImage == nil {
		b.sendMessage(msg.Chat.ID, caption)
		return
	}

	reply := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "diagnosis.png", Bytes: diag.AnnotatedImage.Data})
	reply.Caption = caption
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error("send photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, caption)
	}
}

func (b *Bot) saveState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.app.UserService.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		b.logger.Error("save user state", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
