package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
)

// bookingDraft holds the typed values of a validated booking payload.
// Nil fields were absent from the request.
type bookingDraft struct {
	userID *uuid.UUID
	items  models.BookingItems
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// validateBookingCreate checks a create payload and collects every violation
func validateBookingCreate(in *models.BookingInput) (*bookingDraft, error) {
	v := validationFor(in)
	draft := &bookingDraft{}

	if blank(in.UserID) {
		v.Add("user_id is required")
	} else if id, err := models.ParseID("user_id", *in.UserID); err != nil {
		v.AddErr(err)
	} else {
		draft.userID = &id
	}

	if blank(in.Status) {
		v.Add("status is required")
	} else {
		validateBookingStatus(v, *in.Status)
	}

	if len(in.Items) == 0 {
		v.Add("items is required (at least 1)")
	} else {
		draft.items = validateBookingItems(v, in.Items)
	}

	if blank(in.Currency) {
		v.Add("currency is required")
	}

	validatePayment(v, in.Payment)

	if err := v.Err(); err != nil {
		return nil, err
	}
	return draft, nil
}

// validateBookingUpdate checks the fields present in an update payload
func validateBookingUpdate(in *models.BookingInput) (*bookingDraft, error) {
	v := validationFor(in)
	draft := &bookingDraft{}

	if in.UserID != nil {
		if id, err := models.ParseID("user_id", *in.UserID); err != nil {
			v.AddErr(err)
		} else {
			draft.userID = &id
		}
	}
	if in.Status != nil {
		validateBookingStatus(v, *in.Status)
	}
	if in.Items != nil {
		if len(in.Items) == 0 {
			v.Add("items must contain at least 1 item")
		} else {
			draft.items = validateBookingItems(v, in.Items)
		}
	}
	validatePayment(v, in.Payment)

	if err := v.Err(); err != nil {
		return nil, err
	}
	return draft, nil
}

func validateBookingStatus(v *ValidationError, status string) {
	if !models.BookingStatus(status).IsValid() {
		v.Add("status must be one of pending, confirmed, paid, completed, cancelled")
	}
}

func validatePayment(v *ValidationError, p *models.PaymentInput) {
	if p == nil {
		return
	}
	if p.Status != nil && *p.Status != models.PaymentUnpaid && *p.Status != models.PaymentPaid {
		v.Add("payment.status must be unpaid or paid")
	}
	if p.Amount != nil && *p.Amount < 0 {
		v.Add("payment.amount must not be negative")
	}
}

// validateBookingItems converts item inputs, recording a violation per bad field
func validateBookingItems(v *ValidationError, inputs []models.BookingItemInput) models.BookingItems {
	items := make(models.BookingItems, 0, len(inputs))
	for idx, in := range inputs {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", idx, name) }
		var item models.BookingItem

		if blank(in.PackageID) {
			v.Add("%s is required", field("package_id"))
		} else if id, err := models.ParseID(field("package_id"), *in.PackageID); err != nil {
			v.AddErr(err)
		} else {
			item.PackageID = id
		}

		if blank(in.Title) {
			v.Add("%s is required", field("title"))
		} else {
			item.Title = *in.Title
		}

		if in.QtyAdults == nil {
			v.Add("%s must be number", field("qtyAdults"))
		} else if *in.QtyAdults < 0 {
			v.Add("%s must not be negative", field("qtyAdults"))
		} else {
			item.QtyAdults = *in.QtyAdults
		}

		if in.PriceAdult == nil {
			v.Add("%s must be number", field("priceAdult"))
		} else if *in.PriceAdult < 0 {
			v.Add("%s must not be negative", field("priceAdult"))
		} else {
			item.PriceAdult = *in.PriceAdult
		}

		if in.QtyChildren != nil {
			if *in.QtyChildren < 0 {
				v.Add("%s must not be negative", field("qtyChildren"))
			} else {
				item.QtyChildren = *in.QtyChildren
			}
		}
		if in.PriceChild != nil {
			if *in.PriceChild < 0 {
				v.Add("%s must not be negative", field("priceChild"))
			} else {
				item.PriceChild = *in.PriceChild
			}
		}

		item.Options = in.Options
		if item.Options == nil {
			item.Options = []models.BookingOption{}
		}
		items = append(items, item)
	}
	return items
}

// parseBookingDates converts the textual travel window and traveler dates
func parseBookingDates(in *models.BookingInput) (*models.TravelWindow, models.Travelers, error) {
	v := NewValidationError()

	var window *models.TravelWindow
	if in.TravelWindow != nil {
		window = &models.TravelWindow{
			StartDate: parseOptionalDate(v, "travelWindow.startDate", in.TravelWindow.StartDate),
			EndDate:   parseOptionalDate(v, "travelWindow.endDate", in.TravelWindow.EndDate),
		}
		if window.StartDate != nil && window.EndDate != nil && window.EndDate.Before(*window.StartDate) {
			v.Add("travelWindow.endDate must not be before travelWindow.startDate")
		}
	}

	var travelers models.Travelers
	if in.Travelers != nil {
		travelers = make(models.Travelers, 0, len(in.Travelers))
		for idx, t := range in.Travelers {
			travelers = append(travelers, models.Traveler{
				Name:        t.Name,
				Type:        t.Type,
				DOB:         parseOptionalDate(v, fmt.Sprintf("travelers[%d].dob", idx), t.DOB),
				PassportNo:  t.PassportNo,
				Nationality: t.Nationality,
			})
		}
	}

	if err := v.Err(); err != nil {
		return nil, nil, err
	}
	return window, travelers, nil
}
