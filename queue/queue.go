// Package queue moves inventory and reservation changes onto RabbitMQ and
// consumes the units announced by the catalog.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/streadway/amqp"
)

// Publisher is the part of *bunnyq.BunnyQ the publishers need.
type Publisher interface {
	Publish(ctx context.Context, exchange string, body []byte) error
}

// Rabbit publishes through a bunnyq connection.
type Rabbit struct {
	bq *bunnyq.BunnyQ
}

func NewRabbit(bq *bunnyq.BunnyQ) *Rabbit {
	return &Rabbit{bq: bq}
}

func (r *Rabbit) Publish(ctx context.Context, exchange string, body []byte) error {
	return r.bq.Publish(ctx, exchange, body)
}

type UpdateQueue struct {
	queue               Publisher
	inventoryExchange   string
	reservationExchange string
}

func New(pub Publisher, inventoryExchange, reservationExchange string) *UpdateQueue {
	return &UpdateQueue{queue: pub, inventoryExchange: inventoryExchange, reservationExchange: reservationExchange}
}

func (q *UpdateQueue) PublishInventory(ctx context.Context, record inventory.Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize message for queue")
	}
	if err = q.queue.Publish(ctx, q.inventoryExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send inventory update to queue")
	}
	return nil
}

func (q *UpdateQueue) PublishReservation(ctx context.Context, res reservation.Reservation) error {
	body, err := json.Marshal(res)
	if err != nil {
		return errors.WithMessage(err, "error marshalling reservation to send to queue")
	}
	if err = q.queue.Publish(ctx, q.reservationExchange, body); err != nil {
		return errors.WithMessage(err, "error publishing reservation")
	}
	return nil
}

type CalendarGenerator interface {
	GenerateCalendar(ctx context.Context, unitID uint64, from, to time.Time) (int, error)
}

// UnitQueue listens for newly created units and opens their calendar for the
// configured horizon.
type UnitQueue struct {
	queue           *bunnyq.BunnyQ
	dlt             Publisher
	unitQueue       string
	unitDltExchange string
	horizonDays     int
	now             func() time.Time
}

func NewUnitQueue(bq *bunnyq.BunnyQ, unitQueue, unitDltExchange string, horizonDays int) *UnitQueue {
	return &UnitQueue{
		queue:           bq,
		dlt:             NewRabbit(bq),
		unitQueue:       unitQueue,
		unitDltExchange: unitDltExchange,
		horizonDays:     horizonDays,
		now:             time.Now,
	}
}

func (u *UnitQueue) ConsumeUnits(ctx context.Context, generator CalendarGenerator) {
	u.queue.Stream(ctx, u.unitQueue, func(delivery amqp.Delivery) {
		u.handle(ctx, delivery.Body, generator)
	}, bunnyq.StreamOpAutoAck)
}

func (u *UnitQueue) handle(ctx context.Context, body []byte, generator CalendarGenerator) {
	unit := catalog.Unit{}
	if err := json.Unmarshal(body, &unit); err != nil {
		log.Error().Err(err).Msg("error unmarshalling unit, writing to dlt")
		u.sendToDlt(ctx, body)
		return
	}
	if unit.ID == 0 {
		log.Error().Msg("unit message has no id, writing to dlt")
		u.sendToDlt(ctx, body)
		return
	}

	from := core.Day(u.now())
	to := from.AddDate(0, 0, u.horizonDays)

	created, err := generator.GenerateCalendar(ctx, unit.ID, from, to)
	if err != nil {
		log.Error().Err(err).Uint64("unitId", unit.ID).Msg("error generating calendar, writing to dlt")
		u.sendToDlt(ctx, body)
		return
	}

	log.Info().Uint64("unitId", unit.ID).Int("created", created).Msg("opened calendar for new unit")
}

func (u *UnitQueue) sendToDlt(ctx context.Context, data []byte) {
	err := u.dlt.Publish(ctx, u.unitDltExchange, data)
	if err != nil {
		log.Error().Err(err).Msg("error writing to dlt")
	}
}
