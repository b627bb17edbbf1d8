// Package price looks up effective-dated unit prices for billing accounts.
package price

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/table"
)

// Price types used by the billing path.
const (
	HourlyRate  = "Timepris"
	SupportRate = "Support"
)

// ErrMissingPrice is the sentinel for MissingPriceError.
var ErrMissingPrice = errors.New("missing price")

// MissingPriceError is returned when no price point of an account and price
// type is effective on the query date.
type MissingPriceError struct {
	Token     string
	PriceType string
	Date      time.Time
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("%s: No %s price for %s effective on this date",
		e.Date.Format("2006-01-02"), e.PriceType, e.Token)
}

func (e *MissingPriceError) Unwrap() error {
	return ErrMissingPrice
}

type key struct {
	token     string
	priceType string
}

// Resolver holds price points per account and price type, sorted by
// effective date.
type Resolver struct {
	points map[key][]table.PricePoint
}

// NewResolver indexes price points. Storage order does not matter; points are
// sorted by effective date. Two points for the same key and date are an error.
func NewResolver(points []table.PricePoint) (*Resolver, error) {
	r := &Resolver{points: make(map[key][]table.PricePoint)}

	for _, p := range points {
		k := newKey(p.Token, p.PriceType)
		r.points[k] = append(r.points[k], p)
	}

	for k, list := range r.points {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Effective.Before(list[j].Effective)
		})
		for i := 1; i < len(list); i++ {
			if list[i].Effective.Equal(list[i-1].Effective) {
				return nil, fmt.Errorf("%s price for %s is defined twice on %s",
					k.priceType, list[i].Token, list[i].Effective.Format("2006-01-02"))
			}
		}
	}

	return r, nil
}

// Find returns the price with the latest effective date not after date.
func (r *Resolver) Find(token, priceType string, date time.Time) (decimal.Decimal, error) {
	list := r.points[newKey(token, priceType)]

	// First point effective strictly after date; the one before it applies.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Effective.After(date)
	})
	if i == 0 {
		return decimal.Zero, &MissingPriceError{Token: token, PriceType: priceType, Date: date}
	}

	return list[i-1].Price, nil
}

func newKey(token, priceType string) key {
	return key{token: account.Fold(token), priceType: account.Fold(priceType)}
}
