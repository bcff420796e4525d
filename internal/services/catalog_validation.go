package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

// checkName validates a name that must be non-blank and at most max characters.
// A nil name is only reported when required.
func checkName(v *ValidationError, field string, name *string, max int, required bool) {
	if name == nil {
		if required {
			v.Add("%s is required", field)
		}
		return
	}
	if strings.TrimSpace(*name) == "" {
		v.Add("%s cannot be empty", field)
		return
	}
	if utf8.RuneCountInString(*name) > max {
		v.Add("%s must be less than %d characters", field, max)
	}
}

// checkRef parses a reference id. A nil raw value is only reported when required.
func checkRef(v *ValidationError, field string, raw *string, required bool) *uuid.UUID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		if required {
			v.Add("%s is required", field)
		}
		return nil
	}
	id, err := models.ParseID(field, *raw)
	if err != nil {
		v.AddErr(err)
		return nil
	}
	return &id
}

// checkLocation validates a GeoJSON point. On update the type may be omitted.
func checkLocation(v *ValidationError, in *models.GeoPointInput, required bool) *models.GeoPoint {
	if in == nil {
		if required {
			v.Add("location is required")
		}
		return nil
	}
	ok := true
	if (in.Type != nil || required) && (in.Type == nil || *in.Type != "Point") {
		v.Add("location.type must be 'Point'")
		ok = false
	}
	if len(in.Coordinates) != 2 {
		v.Add("location.coordinates must have exactly 2 values [lng, lat]")
		return nil
	}
	lng, lat := in.Coordinates[0], in.Coordinates[1]
	if lng < -180 || lng > 180 {
		v.Add("longitude must be between -180 and 180")
		ok = false
	}
	if lat < -90 || lat > 90 {
		v.Add("latitude must be between -90 and 90")
		ok = false
	}
	if !ok {
		return nil
	}
	p := models.NewGeoPoint(lng, lat)
	return &p
}

// requireExists returns a NotFoundError naming entity when id is unknown
func requireExists(ctx context.Context, entity string, id *uuid.UUID, exists func(context.Context, uuid.UUID) (bool, error)) error {
	if id == nil {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return internal("check "+entity, err)
	}
	if !ok {
		return &NotFoundError{Entity: entity, Key: id.String()}
	}
	return nil
}

// finishUpdate stamps updated_at, applies the set and maps zero rows to UpdateError
func finishUpdate(entity string, set *patch.Set, at time.Time, apply func(*patch.Set) (int64, error)) error {
	if set.Len() == 0 {
		return ErrNoChange
	}
	set.Put("updated_at", at)
	rows, err := apply(set)
	if err != nil {
		return internal("update "+entity, err)
	}
	if rows == 0 {
		return &UpdateError{Entity: entity}
	}
	return nil
}

// trimPtr trims a present value so updates diff what Create would store
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// pageDefaults maps missing paging parameters to page 1 of 10
func pageDefaults(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
