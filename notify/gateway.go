package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sony/gobreaker"
)

var ErrNoRecipient = errors.New("recipient has neither an email address nor a phone number")

var sent = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reservation_notifications",
		Help: "Notifications handed to the gateway by channel and outcome",
	},
	[]string{"channel", "outcome"},
)

func init() {
	prometheus.MustRegister(sent)
}

type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SmsRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Gateway posts emails and text messages to an HTTP delivery service. Calls go
// through a circuit breaker so a dead gateway does not slow every booking down.
type Gateway struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewGateway(baseURL, token string, timeout time.Duration) *Gateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("circuit", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Gateway{client: client, breaker: breaker}
}

// Notify sends an email and a text message where the recipient has the means
// to receive them. It fails if any attempted delivery failed.
func (g *Gateway) Notify(ctx context.Context, recipient reservation.Recipient, summary reservation.Summary) error {
	if recipient.Email == "" && recipient.Phone == "" {
		return errors.WithMessagef(ErrNoRecipient, "user %d", recipient.UserID)
	}

	var failed error
	if recipient.Email != "" {
		req := EmailRequest{To: recipient.Email, Subject: subject(summary), Body: body(recipient, summary)}
		if err := g.post(ctx, "email", "/email", req); err != nil {
			failed = err
		}
	}
	if recipient.Phone != "" {
		req := SmsRequest{To: recipient.Phone, Body: shortBody(summary)}
		if err := g.post(ctx, "sms", "/sms", req); err != nil {
			failed = err
		}
	}
	return failed
}

func (g *Gateway) post(ctx context.Context, channel, path string, payload interface{}) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if resp.IsError() {
			return nil, errors.Errorf("gateway returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return resp, nil
	})

	if err != nil {
		sent.WithLabelValues(channel, "failure").Inc()
		return errors.WithMessagef(err, "failed to send %s", channel)
	}

	sent.WithLabelValues(channel, "success").Inc()
	log.Debug().Str("channel", channel).Msg("notification sent")
	return nil
}
