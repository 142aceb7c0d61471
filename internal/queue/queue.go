package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ab7289/dining-concierge/internal/model"
)

// Attribute data types carried on queue messages.
const (
	DataTypeString = "String"
	DataTypeNumber = "Number"
)

// Attribute is one typed key/value pair on a message. Consumers read
// attributes directly and never parse the body.
type Attribute struct {
	DataType    string `json:"dataType"`
	StringValue string `json:"stringValue"`
}

// Message is one queued reservation request as the consumer sees it.
type Message struct {
	ID         int64
	GroupID    string
	DedupeID   string
	Body       string
	Attributes map[string]Attribute
}

// Processor handles one leased message. A returned error leaves the message
// unacknowledged; the queue's backoff policy schedules redelivery.
type Processor interface {
	Process(ctx context.Context, msg *Message) error
}

// Emitter enqueues completed reservation requests for asynchronous
// fulfillment.
type Emitter interface {
	Emit(ctx context.Context, req *model.ReservationRequest) error
}

// EncodeAttributes maps every reservation field to a typed attribute pair.
func EncodeAttributes(req *model.ReservationRequest) map[string]Attribute {
	return map[string]Attribute{
		"location": {DataType: DataTypeString, StringValue: req.Location},
		"cuisine":  {DataType: DataTypeString, StringValue: req.Cuisine},
		"date":     {DataType: DataTypeString, StringValue: req.Date},
		"time":     {DataType: DataTypeString, StringValue: req.Time},
		"count":    {DataType: DataTypeNumber, StringValue: strconv.Itoa(req.PartySize)},
		"phone":    {DataType: DataTypeString, StringValue: req.Phone},
		"email":    {DataType: DataTypeString, StringValue: req.Email},
	}
}

// DecodeRequest rebuilds a reservation request from a message's attributes
// and envelope fields.
func DecodeRequest(msg *Message) (*model.ReservationRequest, error) {
	count := msg.Attributes["count"].StringValue
	partySize, err := strconv.Atoi(count)
	if err != nil {
		return nil, fmt.Errorf("message %d: bad count attribute %q: %w", msg.ID, count, err)
	}
	return &model.ReservationRequest{
		Location:  msg.Attributes["location"].StringValue,
		Cuisine:   msg.Attributes["cuisine"].StringValue,
		Date:      msg.Attributes["date"].StringValue,
		Time:      msg.Attributes["time"].StringValue,
		PartySize: partySize,
		Phone:     msg.Attributes["phone"].StringValue,
		Email:     msg.Attributes["email"].StringValue,
		GroupID:   msg.GroupID,
		DedupeID:  msg.DedupeID,
	}, nil
}

// Body renders the human-readable summary carried alongside the attributes.
func Body(req *model.ReservationRequest) string {
	return fmt.Sprintf("%s in %s", req.Cuisine, req.Location)
}
