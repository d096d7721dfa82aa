package service

import (
	"context"
	"fmt"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/store"
)

// Resolve builds the effective material list of a booking: its ad-hoc lines
// first, then the lines of kitID whose material no ad-hoc line already
// covers. Both parts keep storage order and every material appears once.
func Resolve(ctx context.Context, tx store.Tx, bookingID int64, kitID *int64) ([]bookings.Resolved, error) {
	items, err := tx.BookingItems(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %d items: %w", bookingID, err)
	}

	out := make([]bookings.Resolved, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		r := bookings.Resolved{
			MaterialID: it.MaterialID,
			Name:       it.MaterialName,
			Category:   it.Category,
			Unit:       it.Unit,
			Class:      it.Class,
			Quantity:   it.Quantity,
			Form:       it.Form,
			Source:     bookings.SourceAdHoc,
			ItemID:     &it.ID,
		}
		if it.PrepWeight.Valid {
			w := it.PrepWeight.Decimal
			r.PrepWeight = &w
		}
		out = append(out, r)
		seen[it.MaterialID] = true
	}

	if kitID == nil {
		return out, nil
	}
	lines, err := tx.KitItems(ctx, *kitID)
	if err != nil {
		return nil, fmt.Errorf("kit %d items: %w", *kitID, err)
	}
	for _, k := range lines {
		if seen[k.MaterialID] {
			continue
		}
		form := k.Form
		if form == "" {
			form = materials.FormSolid
		}
		out = append(out, bookings.Resolved{
			MaterialID: k.MaterialID,
			Name:       k.MaterialName,
			Category:   k.Category,
			Unit:       k.Unit,
			Class:      k.Class,
			Quantity:   k.Quantity,
			Form:       form,
			Source:     bookings.SourceKit,
		})
		seen[k.MaterialID] = true
	}
	return out, nil
}
