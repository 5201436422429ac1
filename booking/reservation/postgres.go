package reservation

import (
	"context"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

type reservationRow struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID              string `bun:"id,pk"`
	Position        int    `bun:"position,notnull"`
	RestaurantID    string `bun:"restaurant_id,notnull"`
	CustomerName    string `bun:"customer_name"`
	CustomerPhone   string `bun:"customer_phone"`
	CustomerEmail   string `bun:"customer_email"`
	PartySize       int    `bun:"party_size,notnull"`
	Date            string `bun:"date,notnull"`
	Time            string `bun:"time,notnull"`
	SpecialRequests string `bun:"special_requests"`
	Status          string `bun:"status,notnull"`
	CreatedAt       string `bun:"created_at"`
	UpdatedAt       string `bun:"updated_at"`
}

func toRow(pos int, r Reservation) reservationRow {
	return reservationRow{
		ID:              r.ID,
		Position:        pos,
		RestaurantID:    r.RestaurantID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerEmail:   r.CustomerEmail,
		PartySize:       r.PartySize,
		Date:            r.Date,
		Time:            r.Time,
		SpecialRequests: r.SpecialRequests,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (row reservationRow) reservation() Reservation {
	return Reservation{
		ID:              row.ID,
		RestaurantID:    row.RestaurantID,
		CustomerName:    row.CustomerName,
		CustomerPhone:   row.CustomerPhone,
		CustomerEmail:   row.CustomerEmail,
		PartySize:       row.PartySize,
		Date:            row.Date,
		Time:            row.Time,
		SpecialRequests: row.SpecialRequests,
		Status:          Status(row.Status),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// PostgresSnapshotter keeps the collection in a reservations table. Every Save
// replaces the table contents inside one SQL transaction.
type PostgresSnapshotter struct {
	db *bun.DB
}

var _ Snapshotter = (*PostgresSnapshotter)(nil)

func NewPostgresSnapshotter(db *bun.DB) *PostgresSnapshotter {
	return &PostgresSnapshotter{db: db}
}

// Init creates the reservations table when missing.
func (p *PostgresSnapshotter) Init(ctx context.Context) error {
	_, err := p.db.NewCreateTable().Model((*reservationRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "create reservations table"), contractx.ErrPersistence)
	}
	return nil
}

func (p *PostgresSnapshotter) Load(ctx context.Context) ([]Reservation, error) {
	var rows []reservationRow
	if err := p.db.NewSelect().Model(&rows).Order("position ASC").Scan(ctx); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "select reservations"), contractx.ErrPersistence)
	}

	items := make([]Reservation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.reservation())
	}
	return items, nil
}

func (p *PostgresSnapshotter) Save(ctx context.Context, items []Reservation) error {
	rows := make([]reservationRow, 0, len(items))
	for i, r := range items {
		rows = append(rows, toRow(i, r))
	}

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*reservationRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return errs.Mark(errs.Wrap(err, "replace reservations"), contractx.ErrPersistence)
	}
	return nil
}
