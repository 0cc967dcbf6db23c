package messages

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/entity/alert"
	"max.ks1230/budget-bot/internal/logger"
)

const internalErrorMessage = "Sorry, something went wrong. Try again later."

// Menu is a reply keyboard: rows of button labels.
type Menu [][]string

// Reply is one outgoing message; Menu is attached when not nil.
type Reply struct {
	Text string
	Menu Menu
}

func plain(msg string) Reply {
	return Reply{Text: msg}
}

func withMenu(msg string) Reply {
	return Reply{Text: msg, Menu: MainMenu}
}

//go:generate minimock -i MessageSender -o ./mock/message_sender_mock.go -n MessageSenderMock
type MessageSender interface {
	SendMessage(text string, userID int64) error
	SendMessageWithMenu(text string, userID int64, menu Menu) error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, text string, userID int64) ([]Reply, error)
}

type Service struct {
	tgClient MessageSender
	handler  MessageHandler
}

type Option func(h *HandlerService)

// WithClock replaces time.Now as the source of the current day.
func WithClock(clock func() time.Time) Option {
	return func(h *HandlerService) {
		h.clock = clock
	}
}

// NewService wires the conversation handler to a transport. A nil alerts
// notifier disables limit alerts.
func NewService(tgClient MessageSender, storage userStorage, alerts alertNotifier, config config, opts ...Option) *Service {
	if alerts == nil {
		alerts = noAlerts{}
	}
	h := newHandler(storage, alerts, config)
	for _, opt := range opts {
		opt(h)
	}
	return &Service{
		tgClient: tgClient,
		handler:  h,
	}
}

type Message struct {
	Text   string
	UserID int64
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "handleMessage")
	defer span.Finish()

	start := time.Now()
	err := s.handle(ctx, msg)
	elapsed := time.Since(start)

	observeResponse(elapsed, err != nil)
	if err != nil {
		ext.Error.Set(span, true)
	}
	return err
}

func (s *Service) handle(ctx context.Context, msg Message) error {
	replies, err := s.handler.HandleMessage(ctx, msg.Text, msg.UserID)
	if err != nil {
		s.sendOnFailure(replies, msg.UserID)
		return err
	}

	for _, r := range replies {
		if err = s.send(r, msg.UserID); err != nil {
			return errors.Wrap(err, "send reply")
		}
	}
	return nil
}

// sendOnFailure delivers the replies a failed handler already produced,
// followed by the generic error message.
func (s *Service) sendOnFailure(replies []Reply, userID int64) {
	for _, r := range replies {
		if err := s.send(r, userID); err != nil {
			logger.Error("error sending reply", zap.Int64("userID", userID), zap.Error(err))
		}
	}
	if err := s.tgClient.SendMessage(internalErrorMessage, userID); err != nil {
		logger.Error("error sending internal error message", zap.Int64("userID", userID), zap.Error(err))
	}
}

func (s *Service) send(r Reply, userID int64) error {
	if r.Menu == nil {
		return s.tgClient.SendMessage(r.Text, userID)
	}
	return s.tgClient.SendMessageWithMenu(r.Text, userID, r.Menu)
}

type noAlerts struct{}

func (noAlerts) NotifyLimitExceeded(context.Context, alert.LimitAlert) error {
	return nil
}
