package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/screenhall/booking-engine/internal/model"
)

func session(baseCents int64, promo uint8) *model.Session {
	return &model.Session{ID: 1, HallID: 1, BasePriceCents: baseCents, PromoPercent: promo}
}

func TestForSeats(t *testing.T) {
	cases := []struct {
		name      string
		baseCents int64
		promo     uint8
		types     []model.SeatType
		perSeat   []int64
		total     int64
	}{
		{"normal no promo", 1000, 0, []model.SeatType{model.SeatNormal}, []int64{1000}, 1000},
		{"vip no promo", 1000, 0, []model.SeatType{model.SeatVIP}, []int64{1500}, 1500},
		{"reduced no promo", 1000, 0, []model.SeatType{model.SeatReduced}, []int64{1250}, 1250},
		// documented example: 10 base, 50% promo, one Reduced seat => 6.25
		{"reduced half promo", 1000, 50, []model.SeatType{model.SeatReduced}, []int64{625}, 625},
		{"normal plus vip", 1000, 0, []model.SeatType{model.SeatNormal, model.SeatVIP}, []int64{1000, 1500}, 2500},
		{"rounding half away from zero", 333, 50, []model.SeatType{model.SeatNormal}, []int64{167}, 167}, // 166.5 -> 167
		{"full promo", 1000, 100, []model.SeatType{model.SeatVIP}, []int64{0}, 0},
		{"zero base", 0, 25, []model.SeatType{model.SeatNormal}, []int64{0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seats := make([]model.Seat, len(tc.types))
			for i, st := range tc.types {
				seats[i] = model.Seat{ID: uint64(i + 1), SeatType: st}
			}
			q, err := ForSeats(session(tc.baseCents, tc.promo), seats)
			if err != nil {
				t.Fatalf("ForSeats: %v", err)
			}
			if q.TotalCents != tc.total {
				t.Errorf("total = %d, want %d", q.TotalCents, tc.total)
			}
			for i, sp := range q.SeatPrices {
				if sp.PriceCents != tc.perSeat[i] {
					t.Errorf("seat %d price = %d, want %d", i, sp.PriceCents, tc.perSeat[i])
				}
				if sp.SeatID != seats[i].ID {
					t.Errorf("seat %d id = %d, want %d", i, sp.SeatID, seats[i].ID)
				}
			}
		})
	}
}

func TestForSeatsNegativeBase(t *testing.T) {
	_, err := ForSeats(session(-1, 0), []model.Seat{{ID: 1, SeatType: model.SeatNormal}})
	if err != ErrNegativeBasePrice {
		t.Fatalf("err = %v, want ErrNegativeBasePrice", err)
	}
}

func TestDiscount(t *testing.T) {
	cases := []struct {
		amount int64
		value  string
		want   int64
	}{
		{1000, "0.1", 900},
		{2500, "0.5", 1250},
		{999, "0.333", 666},  // 332.667 rounds to 333
		{1, "0.5", 0},        // 0.5 rounds away from zero to 1
		{625, "0.999", 1},    // 624.375 -> 624
	}
	for _, tc := range cases {
		got := Discount(tc.amount, decimal.RequireFromString(tc.value))
		if got != tc.want {
			t.Errorf("Discount(%d, %s) = %d, want %d", tc.amount, tc.value, got, tc.want)
		}
	}
}
