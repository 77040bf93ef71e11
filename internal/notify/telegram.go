package notify

import (
	"fmt"
	"strings"

	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var statusLabels = map[string]string{
	"pending":     "Pendente",
	"confirmed":   "Confirmado",
	"in_progress": "Em andamento",
	"completed":   "Concluído",
	"cancelled":   "Cancelado",
}

// NewBot connects to the Bot API with the configured token.
func NewBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// ManagerNotifier tells the shop managers about new and updated appointments.
type ManagerNotifier struct {
	sender domain.TelegramSender
	chats  []int64
	logger *zerolog.Logger
}

func NewManagerNotifier(sender domain.TelegramSender, chats []int64, logger *zerolog.Logger) *ManagerNotifier {
	return &ManagerNotifier{sender: sender, chats: chats, logger: logger}
}

func (n *ManagerNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.HandleBookingCreated)
	bus.Subscribe(events.EventAppointmentStatusChanged, n.HandleStatusChanged)
}

func (n *ManagerNotifier) HandleBookingCreated(ev *events.Event) error {
	var payload events.BookingEventPayload
	if err := ev.Decode(&payload); err != nil {
		n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
		return nil
	}
	n.broadcast(bookingMessage(payload), payload.AppointmentID)
	return nil
}

func (n *ManagerNotifier) HandleStatusChanged(ev *events.Event) error {
	var payload events.StatusEventPayload
	if err := ev.Decode(&payload); err != nil {
		n.logger.Error().Err(err).Str("event", ev.Type).Msg("decode payload")
		return nil
	}
	text := fmt.Sprintf("🔄 Agendamento %s: %s → %s",
		payload.AppointmentID, label(payload.OldStatus), label(payload.NewStatus))
	n.broadcast(text, payload.AppointmentID)
	return nil
}

func (n *ManagerNotifier) broadcast(text, appointmentID string) {
	for _, chatID := range n.chats {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("appointment_id", appointmentID).Msg("Failed to notify manager")
		}
	}
}

func bookingMessage(p events.BookingEventPayload) string {
	var b strings.Builder
	b.WriteString("🆕 Novo agendamento:\n\n")
	fmt.Fprintf(&b, "🔧 Serviço: %s\n", p.ServiceName)
	fmt.Fprintf(&b, "🚗 Veículo: %s (%s)\n", p.Vehicle, p.Plate)
	fmt.Fprintf(&b, "📅 Data: %s às %s\n", p.Date, p.Time)
	fmt.Fprintf(&b, "👤 Cliente: %s\n", p.CustomerName)
	if p.CustomerPhone != "" {
		fmt.Fprintf(&b, "📱 Telefone: %s\n", p.CustomerPhone)
	}
	if p.Notes != "" {
		fmt.Fprintf(&b, "💬 Observações: %s\n", p.Notes)
	}
	fmt.Fprintf(&b, "🆔 %s", p.AppointmentID)
	return b.String()
}

func label(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}
