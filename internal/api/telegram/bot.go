package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "emotiscan/internal/application"
	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
	"emotiscan/internal/infrastructure/codec"
)

const (
	msgStart = `👋 Привет! Я показываю, какие эмоции видны на лице.

📸 Отправьте фото, и я начну анализировать его вместо камеры.

📋 Команды:
/upload — загрузить фото
/live — вернуться к камере
/explain — включить или выключить объяснение
/scores — последние результаты
/subscribe — сообщать о смене эмоции
/unsubscribe — не сообщать
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото лица
2️⃣ Фото становится источником кадров
3️⃣ Командой /scores получите распределение эмоций

💡 Рекомендации:
• Лицо должно быть хорошо освещено
• Смотрите в камеру
• Одно лицо в кадре

📋 Команды:
/upload — загрузить фото
/live — вернуться к камере
/explain — объяснение
/scores — результаты
/subscribe, /unsubscribe — уведомления`

	msgAwaitingPhoto   = "📸 Отправьте фото лица для анализа."
	msgCancelled       = "❌ Операция отменена."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото лица или команду из /help."
	msgUploadFirst     = "📸 Чтобы заменить камеру фото, сначала отправьте /upload."
	msgExplainFailed   = "⚠️ Анализ ещё не запущен, попробуйте позже."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgStillSet        = "✅ Фото принято (%dx%d). Анализирую его вместо камеры."
	msgLive            = "🎥 Вернулся к камере."
	msgAlreadyLive     = "🎥 Уже работаю с камерой."
	msgExplainOn       = "🔍 Объяснение включено."
	msgExplainOff      = "🔍 Объяснение выключено."
	msgNoScores        = "⏳ Результатов пока нет."
	msgSubscribed      = "🔔 Буду сообщать о смене эмоции."
	msgUnsubscribed    = "🔕 Уведомления выключены."
	msgDominant        = "🙂 Эмоция: %s"
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
)

const outboxSize = 64

// API часть Telegram Bot API, которой пользуется бот
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Source переключение источника кадров
type Source interface {
	SetStill(frame *entity.Frame)
	ClearStill() bool
}

// Explainer переключение режима объяснения
type Explainer interface {
	ToggleExplain(ctx context.Context) (bool, error)
}

// Scores последнее опубликованное табло
type Scores interface {
	Latest() (entity.Scoreboard, uint64)
}

// Bot представляет Telegram-бота
type Bot struct {
	api         API
	subscribers *app.SubscriberService
	source      Source
	explainer   Explainer
	scores      Scores
	client      *http.Client
	logger      *zap.SugaredLogger
	outbox      chan tgbotapi.Chattable
}

// NewBot авторизуется по токену и создаёт бота
func NewBot(token string, subscribers *app.SubscriberService, source Source, explainer Explainer, scores Scores, logger *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	logger.Infow("telegram authorized", "account", api.Self.UserName)

	return newBot(api, subscribers, source, explainer, scores, logger), nil
}

func newBot(api API, subscribers *app.SubscriberService, source Source, explainer Explainer, scores Scores, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		api:         api,
		subscribers: subscribers,
		source:      source,
		explainer:   explainer,
		scores:      scores,
		client:      http.DefaultClient,
		logger:      logger,
		outbox:      make(chan tgbotapi.Chattable, outboxSize),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	go b.drain(ctx)

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

// Publish рассылает смену доминирующей эмоции подписчикам.
// Сообщения ставятся в очередь, цикл анализа не ждёт сети.
func (b *Bot) Publish(ctx context.Context, board entity.Scoreboard) error {
	if board.Empty() {
		return nil
	}

	changed, err := b.subscribers.DominantChanged(ctx, board.Dominant)
	if err != nil {
		return fmt.Errorf("select subscribers: %w", err)
	}

	for _, sub := range changed {
		b.enqueue(tgbotapi.NewMessage(sub.ChatID, fmt.Sprintf(msgDominant, board.Dominant)))
	}
	return nil
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	sub, err := b.subscribers.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Warnw("get subscriber", "user", msg.From.ID, "error", err)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if fileID, ok := imageFileID(msg); ok {
		// В группах фото принимается только после /upload.
		if !msg.Chat.IsPrivate() && sub.State != entity.StateAwaitingPhoto {
			b.reply(msg.Chat.ID, msgUploadFirst)
			return
		}
		b.handlePhoto(ctx, msg, fileID)
		return
	}

	b.reply(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.cancel(ctx, userID, chatID)
		b.reply(chatID, msgStart)

	case "help":
		b.reply(chatID, msgHelp)

	case "upload":
		if _, err := b.subscribers.BeginUpload(ctx, userID, chatID); err != nil {
			b.logger.Warnw("begin upload", "user", userID, "error", err)
			return
		}
		b.reply(chatID, msgAwaitingPhoto)

	case "cancel":
		b.cancel(ctx, userID, chatID)
		b.reply(chatID, msgCancelled)

	case "live":
		if b.source.ClearStill() {
			b.logger.Infow("still image cleared over telegram", "user", userID)
			b.reply(chatID, msgLive)
		} else {
			b.reply(chatID, msgAlreadyLive)
		}

	case "explain":
		on, err := b.explainer.ToggleExplain(ctx)
		if err != nil {
			b.logger.Warnw("toggle explanation", "error", err)
			b.reply(chatID, msgExplainFailed)
			return
		}
		if on {
			b.reply(chatID, msgExplainOn)
		} else {
			b.reply(chatID, msgExplainOff)
		}

	case "scores":
		board, _ := b.scores.Latest()
		if board.Empty() {
			b.reply(chatID, msgNoScores)
			return
		}
		b.reply(chatID, board.String())

	case "subscribe":
		if _, err := b.subscribers.SetNotify(ctx, userID, chatID, true); err != nil {
			b.logger.Warnw("subscribe", "user", userID, "error", err)
			return
		}
		b.reply(chatID, msgSubscribed)

	case "unsubscribe":
		if _, err := b.subscribers.SetNotify(ctx, userID, chatID, false); err != nil {
			b.logger.Warnw("unsubscribe", "user", userID, "error", err)
			return
		}
		b.reply(chatID, msgUnsubscribed)

	default:
		b.reply(chatID, msgUnknownCommand)
	}
}

// handlePhoto делает присланное фото источником кадров
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	chatID := msg.Chat.ID
	defer b.cancel(ctx, msg.From.ID, chatID)

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Warnw("download photo", "error", err)
		b.reply(chatID, msgProcessingError)
		return
	}

	frame, err := codec.FrameFromBytes(data, entity.OriginStill)
	if err != nil {
		b.logger.Warnw("decode photo", "bytes", len(data), "error", err)
		b.reply(chatID, msgProcessingError)
		return
	}

	b.source.SetStill(frame)
	b.logger.Infow("still image set over telegram", "user", msg.From.ID, "width", frame.Width, "height", frame.Height)
	b.reply(chatID, fmt.Sprintf(msgStillSet, frame.Width, frame.Height))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
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

// cancel возвращает собеседника в главное меню
func (b *Bot) cancel(ctx context.Context, userID, chatID int64) {
	if _, err := b.subscribers.Cancel(ctx, userID, chatID); err != nil {
		b.logger.Warnw("save subscriber state", "user", userID, "error", err)
	}
}

// reply ставит ответ в очередь отправки
func (b *Bot) reply(chatID int64, text string) {
	b.enqueue(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) enqueue(c tgbotapi.Chattable) {
	select {
	case b.outbox <- c:
	default:
		b.logger.Warnw("telegram outbox full, message dropped")
	}
}

// drain отправляет сообщения из очереди
func (b *Bot) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-b.outbox:
			if _, err := b.api.Send(c); err != nil {
				b.logger.Warnw("send message", "error", err)
			}
		}
	}
}

// imageFileID возвращает файл с наибольшим разрешением среди фото или документ-изображение
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// Проверка реализации интерфейса
var _ port.Presenter = (*Bot)(nil)
