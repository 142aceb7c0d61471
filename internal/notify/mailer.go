package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/model"
)

// Config holds the mail transport settings. Sender identity and subject are
// fixed by configuration; recipients come from the reservation request.
type Config struct {
	BaseURL string
	APIKey  string
	Sender  string
	Subject string
}

// Mailer delivers notifications through an SES-style HTTP mail API.
type Mailer struct {
	client *resty.Client
	cfg    Config
	log    zerolog.Logger
}

// NewMailer constructs a Mailer for the endpoint at cfg.BaseURL.
func NewMailer(cfg Config, log zerolog.Logger) (*Mailer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("mail API base URL is empty")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("mail sender is empty")
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Mailer{client: c, cfg: cfg, log: log}, nil
}

type sendRequest struct {
	FromEmailAddress string `json:"fromEmailAddress"`
	Destination      struct {
		ToAddresses []string `json:"toAddresses"`
	} `json:"destination"`
	Content struct {
		Simple struct {
			Subject struct {
				Data    string `json:"data"`
				Charset string `json:"charset"`
			} `json:"subject"`
			Body struct {
				Text struct {
					Data    string `json:"data"`
					Charset string `json:"charset"`
				} `json:"text"`
			} `json:"body"`
		} `json:"simple"`
	} `json:"content"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

// SendSuggestion emails the resolved restaurant suggestion to the diner.
func (m *Mailer) SendSuggestion(ctx context.Context, restaurant *model.Restaurant, req *model.ReservationRequest) (string, error) {
	id, err := m.send(ctx, req.Email, suggestionBody(restaurant, req))
	if err != nil {
		return "", err
	}
	m.log.Info().
		Str("message_id", id).
		Str("restaurant_id", restaurant.ID).
		Str("cuisine", req.Cuisine).
		Msg("suggestion email sent")
	return id, nil
}

// SendApology emails the no-match message with the original request details.
func (m *Mailer) SendApology(ctx context.Context, req *model.ReservationRequest) (string, error) {
	id, err := m.send(ctx, req.Email, apologyBody(req))
	if err != nil {
		return "", err
	}
	m.log.Info().
		Str("message_id", id).
		Str("cuisine", req.Cuisine).
		Str("location", req.Location).
		Msg("apology email sent")
	return id, nil
}

func (m *Mailer) send(ctx context.Context, recipient, body string) (string, error) {
	var payload sendRequest
	payload.FromEmailAddress = m.cfg.Sender
	payload.Destination.ToAddresses = []string{recipient}
	payload.Content.Simple.Subject.Data = m.cfg.Subject
	payload.Content.Simple.Subject.Charset = "UTF-8"
	payload.Content.Simple.Body.Text.Data = body
	payload.Content.Simple.Body.Text.Charset = "UTF-8"

	var out sendResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post("/v2/email/outbound-emails")
	if err != nil {
		return "", &model.DeliveryError{Err: err}
	}
	if resp.IsError() {
		return "", &model.DeliveryError{Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())}
	}
	return out.MessageID, nil
}
